package role

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/serenebook/serenebook/internal/audit"
	"github.com/serenebook/serenebook/internal/authz"
	"github.com/serenebook/serenebook/internal/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, r *Role) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Role), args.Error(1)
}

func (m *mockRepo) GetByName(ctx context.Context, name string, tenantID *string) (*Role, error) {
	args := m.Called(ctx, name, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Role), args.Error(1)
}

func (m *mockRepo) GetWithUsage(ctx context.Context, id string) (*Role, int, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*Role), args.Int(1), args.Error(2)
}

func (m *mockRepo) Update(ctx context.Context, r *Role) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRepo) ReplacePermissions(ctx context.Context, id string, permissions []string) error {
	args := m.Called(ctx, id, permissions)
	return args.Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepo) List(ctx context.Context, q authz.Query, scope authz.RoleFilter) ([]*Role, error) {
	args := m.Called(ctx, q, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Role), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func newTestService() (*Service, *mockRepo, *mockAudit) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Maybe()
	return NewService(repo, auditLogger), repo, auditLogger
}

func principalIn(tenantID string, perms ...string) authz.Principal {
	tid := tenantID
	return authz.Principal{ID: "user-1", TenantID: &tid, Permissions: permission.NewSet(perms)}
}

func operator(perms ...string) authz.Principal {
	return authz.Principal{ID: "op-1", Permissions: permission.NewSet(perms)}
}

func tenantRole(tenantID string) *Role {
	tid := tenantID
	return &Role{
		ID:          uuid.NewString(),
		Type:        TypeTenant,
		TenantID:    &tid,
		Name:        "senior_stylist",
		Permissions: []string{"appointments:read:own"},
	}
}

func systemRole() *Role {
	return &Role{
		ID:       uuid.NewString(),
		Type:     TypeSystem,
		Name:     RoleSalonManager,
		IsSystem: true,
	}
}

// TestPurpose: Validates that system role definitions are immutable regardless of the caller's privileges.
// Scope: Unit Test
// Security: Platform-managed roles are the trust anchor of every tenant's permission model.
// Expected: Update and AssignPermissions fail with ErrSystemRoleImmutable even for a platform operator, before any permission evaluation.
// Test Case ID: ROL-01
func TestRole_Service_SystemRoleImmutable(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()
	sys := systemRole()

	repo.On("GetByID", ctx, sys.ID).Return(sys, nil)

	name := "renamed"
	_, err := service.Update(ctx, operator("roles:update:all"), sys.ID, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrSystemRoleImmutable)

	_, err = service.AssignPermissions(ctx, operator("roles:update:all"), sys.ID, []string{"clients:read:all"})
	assert.ErrorIs(t, err, ErrSystemRoleImmutable)

	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "ReplacePermissions", mock.Anything, mock.Anything, mock.Anything)
}

// TestPurpose: Validates the ordered deletion guards: system, default, in-use, then permission.
// Scope: Unit Test
// Expected: Each guard fires with its own sentinel; the permission check comes last.
// Test Case ID: ROL-02
func TestRole_Service_DeleteGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("system role", func(t *testing.T) {
		service, repo, _ := newTestService()
		sys := systemRole()
		repo.On("GetWithUsage", ctx, sys.ID).Return(sys, 0, nil)

		err := service.Delete(ctx, operator("roles:delete:all"), sys.ID)
		assert.ErrorIs(t, err, ErrSystemRoleImmutable)
	})

	t.Run("default role", func(t *testing.T) {
		service, repo, _ := newTestService()
		r := tenantRole("tenant-a")
		r.IsDefault = true
		repo.On("GetWithUsage", ctx, r.ID).Return(r, 0, nil)

		err := service.Delete(ctx, principalIn("tenant-a", "roles:delete:own"), r.ID)
		assert.ErrorIs(t, err, ErrDefaultRoleProtected)
	})

	t.Run("role with assigned users", func(t *testing.T) {
		service, repo, _ := newTestService()
		r := tenantRole("tenant-a")
		repo.On("GetWithUsage", ctx, r.ID).Return(r, 3, nil)

		err := service.Delete(ctx, principalIn("tenant-a", "roles:delete:own"), r.ID)
		assert.ErrorIs(t, err, ErrRoleInUse)
	})

	t.Run("insufficient permission checked last", func(t *testing.T) {
		service, repo, _ := newTestService()
		r := tenantRole("tenant-a")
		repo.On("GetWithUsage", ctx, r.ID).Return(r, 0, nil)

		err := service.Delete(ctx, principalIn("tenant-a"), r.ID)
		assert.ErrorIs(t, err, authz.ErrAccessDenied)
	})

	t.Run("deletable role is deleted", func(t *testing.T) {
		service, repo, _ := newTestService()
		r := tenantRole("tenant-a")
		repo.On("GetWithUsage", ctx, r.ID).Return(r, 0, nil)
		repo.On("Delete", ctx, r.ID).Return(nil)

		err := service.Delete(ctx, principalIn("tenant-a", "roles:delete:own"), r.ID)
		assert.NoError(t, err)
		repo.AssertCalled(t, "Delete", ctx, r.ID)
	})
}

// TestPurpose: Validates that a missing role surfaces as not-found before any permission evaluation.
// Scope: Unit Test
// Security: A 403 on a nonexistent ID would confirm the ID exists.
// Test Case ID: ROL-03
func TestRole_Service_NotFoundBeforePermission(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, ErrRoleNotFound)

	_, err := service.Get(ctx, principalIn("tenant-a"), "missing")
	assert.ErrorIs(t, err, ErrRoleNotFound)

	_, err = service.Update(ctx, principalIn("tenant-a"), "missing", UpdateInput{})
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

// TestPurpose: Validates that another tenant's role reads as not-found, not forbidden.
// Scope: Unit Test
// Security: Role IDs must not leak across tenant boundaries through error codes.
// Test Case ID: ROL-04
func TestRole_Service_CrossTenantGetIsNotFound(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()
	foreign := tenantRole("tenant-b")

	repo.On("GetByID", ctx, foreign.ID).Return(foreign, nil)

	_, err := service.Get(ctx, principalIn("tenant-a", "roles:read:own"), foreign.ID)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

// TestPurpose: Validates that system roles are readable by any tenant principal as reference data.
// Scope: Unit Test
// Test Case ID: ROL-05
func TestRole_Service_SystemRoleVisibleToTenants(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()
	sys := systemRole()

	repo.On("GetByID", ctx, sys.ID).Return(sys, nil)

	got, err := service.Get(ctx, principalIn("tenant-a"), sys.ID)
	assert.NoError(t, err)
	assert.Equal(t, sys.ID, got.ID)
}

// TestPurpose: Validates the creation rules for both role types.
// Scope: Unit Test
// Security: System role creation requires the literal roles:create:system grant; tenant roles never cross tenants without operator status.
// Test Case ID: ROL-06
func TestRole_Service_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("system role requires the literal permission", func(t *testing.T) {
		service, _, _ := newTestService()
		_, err := service.Create(ctx, operator("roles:create:all"), CreateInput{
			Name: "auditor", Type: TypeSystem, Permissions: []string{"reports:read:all"},
		})
		assert.ErrorIs(t, err, authz.ErrAccessDenied)
	})

	t.Run("system role with the grant succeeds", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("Create", ctx, mock.MatchedBy(func(r *Role) bool {
			uid, err := uuid.Parse(r.ID)
			return err == nil && uid.Version() == 7 && r.Type == TypeSystem && r.TenantID == nil
		})).Return(nil)

		r, err := service.Create(ctx, operator(PermCreateSystemRole), CreateInput{
			Name: "auditor", Type: TypeSystem, Permissions: []string{"reports:read:all"},
		})
		assert.NoError(t, err)
		assert.Nil(t, r.TenantID)
	})

	t.Run("system role naming a tenant is rejected", func(t *testing.T) {
		service, _, _ := newTestService()
		tid := "tenant-a"
		_, err := service.Create(ctx, operator(PermCreateSystemRole), CreateInput{
			Name: "auditor", Type: TypeSystem, TenantID: &tid,
		})
		assert.ErrorIs(t, err, ErrSystemRoleTenantBound)
	})

	t.Run("tenant role defaults to the creator's tenant", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("Create", ctx, mock.MatchedBy(func(r *Role) bool {
			return r.Type == TypeTenant && r.TenantID != nil && *r.TenantID == "tenant-a"
		})).Return(nil)

		r, err := service.Create(ctx, principalIn("tenant-a", "roles:create:own"), CreateInput{
			Name: "front_desk_lead", Type: TypeTenant, Permissions: []string{"appointments:read:own"},
		})
		assert.NoError(t, err)
		assert.Equal(t, "tenant-a", *r.TenantID)
	})

	t.Run("cross-tenant creation requires an operator", func(t *testing.T) {
		service, _, _ := newTestService()
		tid := "tenant-b"
		_, err := service.Create(ctx, principalIn("tenant-a", "roles:create:own"), CreateInput{
			Name: "front_desk_lead", Type: TypeTenant, TenantID: &tid,
		})
		assert.ErrorIs(t, err, authz.ErrAccessDenied)
	})

	t.Run("malformed permission strings are rejected", func(t *testing.T) {
		service, _, _ := newTestService()
		_, err := service.Create(ctx, principalIn("tenant-a", "roles:create:own"), CreateInput{
			Name: "broken", Type: TypeTenant, Permissions: []string{"not valid"},
		})
		assert.ErrorIs(t, err, permission.ErrInvalidPermission)
	})

	t.Run("unknown role type is rejected", func(t *testing.T) {
		service, _, _ := newTestService()
		_, err := service.Create(ctx, operator(), CreateInput{Name: "x", Type: "global"})
		assert.ErrorIs(t, err, ErrInvalidRoleType)
	})
}

// TestPurpose: Validates wholesale permission replacement on a tenant role.
// Scope: Unit Test
// Expected: The stored set is replaced, not merged, and the returned role reflects it.
// Test Case ID: ROL-07
func TestRole_Service_AssignPermissions(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()
	r := tenantRole("tenant-a")

	next := []string{"appointments:read:own", "clients:read:own"}
	repo.On("GetByID", ctx, r.ID).Return(r, nil)
	repo.On("ReplacePermissions", ctx, r.ID, next).Return(nil)

	got, err := service.AssignPermissions(ctx, principalIn("tenant-a", "roles:update:own"), r.ID, next)
	assert.NoError(t, err)
	assert.Equal(t, next, got.Permissions)
}

// TestPurpose: Validates list scoping and the type filter.
// Scope: Unit Test
// Test Case ID: ROL-08
func TestRole_Service_List(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	repo.On("List", ctx, mock.MatchedBy(func(q authz.Query) bool {
		return len(q.Filters) == 1 && q.Filters[0].Column == "type" && q.Filters[0].Value == TypeTenant
	}), authz.RoleFilter{TenantID: "tenant-a"}).Return([]*Role{tenantRole("tenant-a")}, nil)

	roles, err := service.List(ctx, principalIn("tenant-a"), ListFilters{Type: TypeTenant})
	assert.NoError(t, err)
	assert.Len(t, roles, 1)

	_, err = service.List(ctx, principalIn("tenant-a"), ListFilters{Type: "global"})
	assert.ErrorIs(t, err, ErrInvalidRoleType)
}
