package identity

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/serenebook/serenebook/internal/audit"
	"github.com/serenebook/serenebook/internal/authz"
	"github.com/serenebook/serenebook/internal/permission"
	"github.com/serenebook/serenebook/internal/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *User, credentials *Credentials) error {
	args := m.Called(ctx, user, credentials)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, tenantID *string, email string) (*User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) List(ctx context.Context, q authz.Query) ([]*User, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*User), args.Error(1)
}

type mockRoleDir struct {
	mock.Mock
}

func (m *mockRoleDir) GetByID(ctx context.Context, id string) (*role.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*role.Role), args.Error(1)
}

func (m *mockRoleDir) GetByName(ctx context.Context, name string, tenantID *string) (*role.Role, error) {
	args := m.Called(ctx, name, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*role.Role), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

// Small Argon2 parameters keep the suite fast; production sizing lives in config.
func testHasher() *PasswordHasher {
	return NewPasswordHasher(8192, 1, 1, 16, 32)
}

func newTestService() (*Service, *mockUserRepo, *mockRoleDir) {
	repo := new(mockUserRepo)
	roles := new(mockRoleDir)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Maybe()
	return NewService(repo, roles, testHasher(), auditLogger), repo, roles
}

func operator(perms ...string) authz.Principal {
	return authz.Principal{ID: "op-1", Permissions: permission.NewSet(perms)}
}

func principalIn(tenantID string, perms ...string) authz.Principal {
	tid := tenantID
	return authz.Principal{ID: "actor-1", TenantID: &tid, Permissions: permission.NewSet(perms)}
}

func strptr(s string) *string { return &s }

// TestPurpose: Validates user creation inside the creator's own tenant.
// Scope: Unit Test
// Expected: The target tenant defaults to the creator's, the ID is a UUIDv7, and the stored credential verifies the supplied password.
// Test Case ID: IDN-01
func TestIdentity_Service_CreateOwnTenant(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestService()

	var storedHash string
	repo.On("Create", ctx, mock.MatchedBy(func(u *User) bool {
		uid, err := uuid.Parse(u.ID)
		return err == nil && uid.Version() == 7 &&
			u.TenantID != nil && *u.TenantID == "tenant-a" &&
			u.Status == StatusActive
	}), mock.MatchedBy(func(c *Credentials) bool {
		storedHash = c.PasswordHash
		return c.PasswordHash != ""
	})).Return(nil)

	u, err := service.Create(ctx, principalIn("tenant-a", "users:create:own"), CreateInput{
		Email:    "mira@bluelotus.example",
		FullName: "Mira Okafor",
		Password: "correct horse battery",
		RoleID:   "role-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, "mira@bluelotus.example", u.Email)

	ok, err := testHasher().Verify("correct horse battery", storedHash)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = testHasher().Verify("wrong password", storedHash)
	assert.NoError(t, err)
	assert.False(t, ok)
}

// TestPurpose: Validates the cross-tenant creation rule.
// Scope: Unit Test
// Security: Only a platform operator holding users:create:all may create into a foreign tenant; tenant-bound principals cannot, whatever they hold.
// Test Case ID: IDN-02
func TestIdentity_Service_CreateCrossTenant(t *testing.T) {
	ctx := context.Background()
	in := CreateInput{
		Email:    "kai@bluelotus.example",
		FullName: "Kai Lindgren",
		Password: "a long enough secret",
		TenantID: strptr("tenant-b"),
	}

	t.Run("tenant principal into a foreign tenant is denied", func(t *testing.T) {
		service, repo, _ := newTestService()
		_, err := service.Create(ctx, principalIn("tenant-a", "users:create:all"), in)
		assert.ErrorIs(t, err, authz.ErrAccessDenied)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("operator without the grant is denied", func(t *testing.T) {
		service, _, _ := newTestService()
		_, err := service.Create(ctx, operator(), in)
		assert.ErrorIs(t, err, authz.ErrAccessDenied)
	})

	t.Run("operator with users:create:all succeeds", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("Create", ctx, mock.MatchedBy(func(u *User) bool {
			return u.TenantID != nil && *u.TenantID == "tenant-b"
		}), mock.Anything).Return(nil)

		_, err := service.Create(ctx, operator(PermCreateAnyUser), in)
		assert.NoError(t, err)
	})
}

// TestPurpose: Validates input rejection on user creation.
// Scope: Unit Test
// Expected: Malformed emails, short passwords, and malformed additional permissions all fail before any write.
// Test Case ID: IDN-03
func TestIdentity_Service_CreateValidation(t *testing.T) {
	ctx := context.Background()
	p := principalIn("tenant-a", "users:create:own")
	base := CreateInput{Email: "mira@bluelotus.example", FullName: "Mira", Password: "long enough"}

	t.Run("invalid email", func(t *testing.T) {
		service, repo, _ := newTestService()
		in := base
		in.Email = "not-an-address"
		_, err := service.Create(ctx, p, in)
		assert.ErrorIs(t, err, ErrInvalidEmail)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("weak password", func(t *testing.T) {
		service, _, _ := newTestService()
		in := base
		in.Password = "short"
		_, err := service.Create(ctx, p, in)
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("malformed additional permission", func(t *testing.T) {
		service, _, _ := newTestService()
		in := base
		in.AdditionalPermissions = []string{"appointments:read:own", "Bad:Grant"}
		_, err := service.Create(ctx, p, in)
		assert.ErrorIs(t, err, permission.ErrInvalidPermission)
	})
}

// seatLimitedRepo is an in-memory UserRepository whose Create enforces the
// seat limit under a single lock, like the storage transaction does.
type seatLimitedRepo struct {
	mu       sync.Mutex
	maxUsers int
	users    []*User
}

func (r *seatLimitedRepo) Create(ctx context.Context, user *User, credentials *Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.users) >= r.maxUsers {
		return ErrSeatLimitReached
	}
	r.users = append(r.users, user)
	return nil
}

func (r *seatLimitedRepo) GetByID(ctx context.Context, id string) (*User, error) {
	return nil, ErrUserNotFound
}

func (r *seatLimitedRepo) GetByEmail(ctx context.Context, tenantID *string, email string) (*User, error) {
	return nil, ErrUserNotFound
}

func (r *seatLimitedRepo) Update(ctx context.Context, user *User) error { return nil }
func (r *seatLimitedRepo) Delete(ctx context.Context, id string) error  { return nil }
func (r *seatLimitedRepo) List(ctx context.Context, q authz.Query) ([]*User, error) {
	return nil, nil
}

// TestPurpose: Validates that concurrent creations never overshoot a tenant's seat limit.
// Scope: Unit Test
// Expected: With 3 seats and 8 concurrent creations, exactly 3 succeed and the rest fail with the seat-limit sentinel.
// Test Case ID: IDN-04
func TestIdentity_Service_SeatLimitUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	repo := &seatLimitedRepo{maxUsers: 3}
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Maybe()
	service := NewService(repo, new(mockRoleDir), testHasher(), auditLogger)

	p := principalIn("tenant-a", "users:create:own")
	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Create(ctx, p, CreateInput{
				Email:    fmt.Sprintf("staff%d@bluelotus.example", i),
				FullName: fmt.Sprintf("Staff %d", i),
				Password: "a long enough secret",
			})
		}(i)
	}
	wg.Wait()

	var created, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		default:
			assert.ErrorIs(t, err, ErrSeatLimitReached)
			rejected++
		}
	}
	assert.Equal(t, 3, created)
	assert.Equal(t, attempts-3, rejected)
	assert.Len(t, repo.users, 3)
}

// TestPurpose: Validates soft-delete semantics at the service boundary.
// Scope: Unit Test
// Expected: Deleting a live user succeeds; a second delete finds no live row and reports not found.
// Test Case ID: IDN-05
func TestIdentity_Service_DeleteTwice(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestService()

	u := &User{ID: "user-9", TenantID: strptr("tenant-a"), Email: "gone@bluelotus.example"}
	repo.On("GetByID", ctx, u.ID).Return(u, nil).Once()
	repo.On("Delete", ctx, u.ID).Return(nil).Once()
	repo.On("GetByID", ctx, u.ID).Return(nil, ErrUserNotFound).Once()

	p := principalIn("tenant-a", "users:delete:own")

	assert.NoError(t, service.Delete(ctx, p, u.ID))
	assert.ErrorIs(t, service.Delete(ctx, p, u.ID), ErrUserNotFound)
}

// TestPurpose: Validates effective permission resolution.
// Scope: Unit Test
// Expected: Role permissions and additional grants merge into one deduplicated, sorted list; a role-less user resolves to just their grants.
// Test Case ID: IDN-06
func TestIdentity_Service_EffectivePermissions(t *testing.T) {
	ctx := context.Background()

	t.Run("union with dedup and sort", func(t *testing.T) {
		service, repo, roles := newTestService()
		repo.On("GetByID", ctx, "user-1").Return(&User{
			ID:                    "user-1",
			TenantID:              strptr("tenant-a"),
			RoleID:                "role-1",
			AdditionalPermissions: []string{"reports:read:own", "appointments:read:own"},
		}, nil)
		roles.On("GetByID", ctx, "role-1").Return(&role.Role{
			ID:          "role-1",
			Permissions: []string{"appointments:read:own", "clients:read:own"},
		}, nil)

		perms, err := service.EffectivePermissions(ctx, "user-1")
		assert.NoError(t, err)
		assert.Equal(t, []string{
			"appointments:read:own",
			"clients:read:own",
			"reports:read:own",
		}, perms)
	})

	t.Run("role-less user", func(t *testing.T) {
		service, repo, roles := newTestService()
		repo.On("GetByID", ctx, "user-2").Return(&User{
			ID:                    "user-2",
			AdditionalPermissions: []string{"tenants:read:all"},
		}, nil)

		perms, err := service.EffectivePermissions(ctx, "user-2")
		assert.NoError(t, err)
		assert.Equal(t, []string{"tenants:read:all"}, perms)
		roles.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

// TestPurpose: Validates that user updates only accept declared status values.
// Scope: Unit Test
// Expected: An unknown status string is rejected before any write; declared values pass through.
// Test Case ID: IDN-08
func TestIdentity_Service_UpdateStatusValidation(t *testing.T) {
	ctx := context.Background()
	p := principalIn("tenant-a", "users:update:own")

	t.Run("unknown status rejected", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("GetByID", ctx, "user-1").Return(&User{ID: "user-1", TenantID: strptr("tenant-a")}, nil)

		bogus := "banned"
		_, err := service.Update(ctx, p, "user-1", UpdateInput{Status: &bogus})
		assert.ErrorIs(t, err, ErrInvalidStatus)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("declared status accepted", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("GetByID", ctx, "user-1").Return(&User{ID: "user-1", TenantID: strptr("tenant-a"), Status: StatusInvited}, nil)
		repo.On("Update", ctx, mock.MatchedBy(func(u *User) bool {
			return u.Status == StatusActive
		})).Return(nil)

		active := StatusActive
		u, err := service.Update(ctx, p, "user-1", UpdateInput{Status: &active})
		assert.NoError(t, err)
		assert.Equal(t, StatusActive, u.Status)
	})
}

// TestPurpose: Validates the encoded Argon2id format survives a round trip and rejects tampering.
// Scope: Unit Test
// Security: A truncated or reformatted hash must error rather than verify.
// Test Case ID: IDN-07
func TestIdentity_PasswordHasher(t *testing.T) {
	h := testHasher()

	encoded, err := h.Hash("a long enough secret")
	assert.NoError(t, err)
	assert.Contains(t, encoded, "$argon2id$")

	ok, err := h.Verify("a long enough secret", encoded)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("something else", encoded)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("a long enough secret", "not-a-hash")
	assert.Error(t, err)
}
