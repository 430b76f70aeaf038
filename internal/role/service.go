// Copyright 2026 The SereneBook Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package role

import (
	"context"
	"fmt"
	"time"

	"github.com/serenebook/serenebook/internal/audit"
	"github.com/serenebook/serenebook/internal/authz"
	"github.com/serenebook/serenebook/internal/id"
	"github.com/serenebook/serenebook/internal/permission"
)

// PermCreateSystemRole is the literal permission required to create a
// system-wide role definition.
const PermCreateSystemRole = "roles:create:system"

// Service provides role management business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new role service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, auditLogger: auditLogger}
}

// ListFilters are the request-level filters for role listings.
type ListFilters struct {
	Type   string
	Limit  int
	Offset int
}

// List returns the role definitions visible to the principal: everything for
// platform operators, system roles plus the principal's own tenant's roles
// otherwise. System roles are reference data; listing them requires no
// explicit roles:read grant.
func (s *Service) List(ctx context.Context, p authz.Principal, filters ListFilters) ([]*Role, error) {
	q := authz.Query{
		SortBy:   "level",
		SortDesc: true,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}
	if filters.Type != "" {
		if filters.Type != TypeSystem && filters.Type != TypeTenant {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRoleType, filters.Type)
		}
		q = q.Where("type", filters.Type)
	}

	roles, err := s.repo.List(ctx, q, authz.RoleScope(p))
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// Get retrieves one role. A tenant role belonging to another tenant is
// reported as not found, never as forbidden, so role IDs do not leak across
// tenants.
func (s *Service) Get(ctx context.Context, p authz.Principal, roleID string) (*Role, error) {
	r, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if !s.visible(p, r) {
		return nil, ErrRoleNotFound
	}
	return r, nil
}

// visible applies the RoleScope rule to a single loaded role.
func (s *Service) visible(p authz.Principal, r *Role) bool {
	scope := authz.RoleScope(p)
	if scope.Unrestricted || r.Type == TypeSystem {
		return true
	}
	return r.TenantID != nil && *r.TenantID == scope.TenantID
}

// CreateInput carries the fields of a new role definition.
type CreateInput struct {
	Name        string
	Description string
	Type        string
	TenantID    *string
	Permissions []string
	Level       int
	IsDefault   bool
}

// Create creates a role definition. System roles require the literal
// roles:create:system permission and must not name a tenant; tenant roles
// default to the creator's tenant, and targeting a different tenant requires
// a platform operator.
func (s *Service) Create(ctx context.Context, p authz.Principal, in CreateInput) (*Role, error) {
	if err := permission.ValidateAll(in.Permissions); err != nil {
		return nil, err
	}

	var tenantID *string
	switch in.Type {
	case TypeSystem:
		if !p.Permissions.HasString(PermCreateSystemRole) {
			return nil, authz.ErrAccessDenied
		}
		if in.TenantID != nil {
			// A mismatch is a caller bug; never silently correct it.
			return nil, ErrSystemRoleTenantBound
		}
	case TypeTenant:
		tenantID = in.TenantID
		if tenantID == nil {
			tenantID = p.TenantID
		}
		if tenantID == nil {
			return nil, ErrTenantRoleNeedsTenant
		}
		if !p.IsPlatformOperator() && *tenantID != *p.TenantID {
			return nil, authz.ErrAccessDenied
		}
		if err := authz.ValidateTenantAccess(p, tenantID, "roles", "create"); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRoleType, in.Type)
	}

	now := time.Now()
	r := &Role{
		ID:          id.NewUUIDv7(),
		Type:        in.Type,
		TenantID:    tenantID,
		Name:        in.Name,
		Description: in.Description,
		Permissions: in.Permissions,
		Level:       in.Level,
		IsDefault:   in.IsDefault,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleCreated,
		TenantID: deref(tenantID),
		ActorID:  p.ID,
		Resource: r.ID,
		Metadata: map[string]any{"name": r.Name, "type": r.Type},
	})

	return r, nil
}

// UpdateInput carries the mutable fields of a role. Nil pointers leave the
// stored value unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Level       *int
	IsDefault   *bool
	Permissions []string
}

// Update mutates a role definition. The system-role immutability check
// precedes the permission check: no caller, however privileged, may touch a
// platform-managed role.
func (s *Service) Update(ctx context.Context, p authz.Principal, roleID string, in UpdateInput) (*Role, error) {
	r, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if r.IsSystem {
		return nil, ErrSystemRoleImmutable
	}
	if !authz.CanAccess(p, r, "roles", "update") {
		return nil, authz.ErrAccessDenied
	}
	if in.Permissions != nil {
		if err := permission.ValidateAll(in.Permissions); err != nil {
			return nil, err
		}
		r.Permissions = in.Permissions
	}

	if in.Name != nil {
		r.Name = *in.Name
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.Level != nil {
		r.Level = *in.Level
	}
	if in.IsDefault != nil {
		r.IsDefault = *in.IsDefault
	}
	r.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleUpdated,
		TenantID: deref(r.TenantID),
		ActorID:  p.ID,
		Resource: r.ID,
	})

	return r, nil
}

// Delete removes a role definition. The four guards are independent hard
// stops checked in order: platform-managed, tenant default, assigned users,
// then the caller's delete permission.
func (s *Service) Delete(ctx context.Context, p authz.Principal, roleID string) error {
	r, assigned, err := s.repo.GetWithUsage(ctx, roleID)
	if err != nil {
		return err
	}
	if r.IsSystem {
		return ErrSystemRoleImmutable
	}
	if r.IsDefault {
		return ErrDefaultRoleProtected
	}
	if assigned > 0 {
		return fmt.Errorf("%w: %d assigned", ErrRoleInUse, assigned)
	}
	if !authz.CanAccess(p, r, "roles", "delete") {
		return authz.ErrAccessDenied
	}

	if err := s.repo.Delete(ctx, roleID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleDeleted,
		TenantID: deref(r.TenantID),
		ActorID:  p.ID,
		Resource: r.ID,
		Metadata: map[string]any{"name": r.Name},
	})

	return nil
}

// AssignPermissions replaces a role's permission set wholesale. There is no
// partial merge; the caller sends the full intended set.
func (s *Service) AssignPermissions(ctx context.Context, p authz.Principal, roleID string, permissions []string) (*Role, error) {
	r, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if r.IsSystem {
		return nil, ErrSystemRoleImmutable
	}
	if err := permission.ValidateAll(permissions); err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, r, "roles", "update") {
		return nil, authz.ErrAccessDenied
	}

	if err := s.repo.ReplacePermissions(ctx, roleID, permissions); err != nil {
		return nil, err
	}
	r.Permissions = permissions

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePermissionsAssigned,
		TenantID: deref(r.TenantID),
		ActorID:  p.ID,
		Resource: r.ID,
		Metadata: map[string]any{"count": len(permissions)},
	})

	return r, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
