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

package identity

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"time"

	"github.com/serenebook/serenebook/internal/audit"
	"github.com/serenebook/serenebook/internal/authz"
	"github.com/serenebook/serenebook/internal/id"
	"github.com/serenebook/serenebook/internal/permission"
	"github.com/serenebook/serenebook/internal/role"
)

// PermCreateAnyUser is the permission a platform operator needs to create a
// user in a tenant other than their own (they have none).
const PermCreateAnyUser = "users:create:all"

const minPasswordLength = 8

// RoleDirectory is the slice of role persistence the identity service needs:
// resolving a user's role to its permission set, and the seeded system roles
// by name during bootstrap.
type RoleDirectory interface {
	GetByID(ctx context.Context, id string) (*role.Role, error)
	GetByName(ctx context.Context, name string, tenantID *string) (*role.Role, error)
}

// Service provides principal management business logic
type Service struct {
	repo        UserRepository
	roles       RoleDirectory
	hasher      *PasswordHasher
	auditLogger audit.Logger
}

// NewService creates a new identity service
func NewService(repo UserRepository, roles RoleDirectory, hasher *PasswordHasher, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		roles:       roles,
		hasher:      hasher,
		auditLogger: auditLogger,
	}
}

// ListFilters are the request-level filters for user listings.
type ListFilters struct {
	RoleID string
	Status string
	Limit  int
	Offset int
}

// List returns the users visible to the principal, scoped by the engine.
func (s *Service) List(ctx context.Context, p authz.Principal, filters ListFilters) ([]*User, error) {
	q := authz.Query{
		SortBy: "created_at",
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}
	if filters.RoleID != "" {
		q = q.Where("role_id", filters.RoleID)
	}
	if filters.Status != "" {
		q = q.Where("status", filters.Status)
	}

	q, err := authz.ScopeQuery(p, q, "users")
	if err != nil {
		return nil, err
	}

	users, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Get retrieves one user.
func (s *Service) Get(ctx context.Context, p authz.Principal, userID string) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, u, "users", "read") {
		return nil, authz.ErrAccessDenied
	}
	return u, nil
}

// CreateInput carries the fields of a new user.
type CreateInput struct {
	Email                 string
	FullName              string
	Password              string
	TenantID              *string
	RoleID                string
	AdditionalPermissions []string
}

// Create provisions a user. The target tenant defaults to the creator's own;
// creating into a different tenant requires a platform operator holding
// users:create:all. The seat-limit check and the insert run in one storage
// transaction, so concurrent creations cannot overshoot the tenant's limit.
func (s *Service) Create(ctx context.Context, p authz.Principal, in CreateInput) (*User, error) {
	target := in.TenantID
	if target == nil {
		target = p.TenantID
	}

	if crossTenant(p.TenantID, target) {
		if !p.IsPlatformOperator() || !p.Permissions.HasString(PermCreateAnyUser) {
			return nil, authz.ErrAccessDenied
		}
	} else if err := authz.ValidateTenantAccess(p, target, "users", "create"); err != nil {
		return nil, err
	}

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if err := permission.ValidateAll(in.AdditionalPermissions); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	u := &User{
		ID:                    id.NewUUIDv7(),
		TenantID:              target,
		Email:                 in.Email,
		FullName:              in.FullName,
		RoleID:                in.RoleID,
		AdditionalPermissions: in.AdditionalPermissions,
		Status:                StatusActive,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	creds := &Credentials{UserID: u.ID, PasswordHash: hash, UpdatedAt: now}

	if err := s.repo.Create(ctx, u, creds); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserCreated,
		TenantID: deref(target),
		ActorID:  p.ID,
		Resource: u.ID,
		Metadata: map[string]any{"email": u.Email},
	})

	return u, nil
}

// UpdateInput carries the mutable fields of a user. Nil pointers leave the
// stored value unchanged.
type UpdateInput struct {
	FullName              *string
	RoleID                *string
	Status                *string
	AdditionalPermissions []string
}

// Update mutates a user. The entity check runs against the freshly loaded
// row, not a cached copy.
func (s *Service) Update(ctx context.Context, p authz.Principal, userID string, in UpdateInput) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, u, "users", "update") {
		return nil, authz.ErrAccessDenied
	}
	if in.AdditionalPermissions != nil {
		if err := permission.ValidateAll(in.AdditionalPermissions); err != nil {
			return nil, err
		}
		u.AdditionalPermissions = in.AdditionalPermissions
	}
	if in.Status != nil && *in.Status != StatusActive && *in.Status != StatusInvited {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *in.Status)
	}

	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.RoleID != nil {
		u.RoleID = *in.RoleID
	}
	if in.Status != nil {
		u.Status = *in.Status
	}
	u.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserUpdated,
		TenantID: deref(u.TenantID),
		ActorID:  p.ID,
		Resource: u.ID,
	})

	return u, nil
}

// Delete soft-deletes a user. The row stays for audit joins; repeating the
// call finds no live row and reports not found.
func (s *Service) Delete(ctx context.Context, p authz.Principal, userID string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !authz.CanAccess(p, u, "users", "delete") {
		return authz.ErrAccessDenied
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserDeleted,
		TenantID: deref(u.TenantID),
		ActorID:  p.ID,
		Resource: u.ID,
	})

	return nil
}

// EffectivePermissions resolves the flattened, deduplicated permission set
// the authentication layer attaches to each request:
// the union of role.permissions and additionalPermissions. It is recomputed
// on every call
// and never cached on the stored user.
func (s *Service) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	if u.RoleID != "" {
		r, err := s.roles.GetByID(ctx, u.RoleID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve role: %w", err)
		}
		for _, perm := range r.Permissions {
			seen[perm] = struct{}{}
		}
	}
	for _, perm := range u.AdditionalPermissions {
		seen[perm] = struct{}{}
	}

	perms := make([]string, 0, len(seen))
	for perm := range seen {
		perms = append(perms, perm)
	}
	sort.Strings(perms)
	return perms, nil
}

// crossTenant reports whether creator and target differ as tenant values.
func crossTenant(creator, target *string) bool {
	if creator == nil && target == nil {
		return false
	}
	if creator == nil || target == nil {
		return true
	}
	return *creator != *target
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
