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

package tenant

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/serenebook/serenebook/internal/audit"
	"github.com/serenebook/serenebook/internal/authz"
	"github.com/serenebook/serenebook/internal/id"
)

// PermCreateTenant is the literal permission required to provision a tenant.
// Tenant principals can never self-provision; the permission exists only in
// all scope.
const PermCreateTenant = "tenants:create:all"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Service provides tenant management business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new tenant service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, auditLogger: auditLogger}
}

// ListFilters are the request-level filters for tenant listings.
type ListFilters struct {
	Status string
	Plan   string
	Limit  int
	Offset int
}

// List returns the tenants visible to the principal. The scoping engine
// either leaves the query platform-wide (tenants:read:all) or pins it to the
// principal's own tenant (tenants:read:own).
func (s *Service) List(ctx context.Context, p authz.Principal, filters ListFilters) ([]*Tenant, error) {
	q := authz.Query{
		SortBy: "created_at",
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}
	if filters.Status != "" {
		q = q.Where("status", filters.Status)
	}
	if filters.Plan != "" {
		q = q.Where("plan", filters.Plan)
	}

	q, err := authz.ScopeQuery(p, q, "tenants")
	if err != nil {
		return nil, err
	}

	tenants, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

// Get retrieves a tenant by ID.
func (s *Service) Get(ctx context.Context, p authz.Principal, tenantID string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, t, "tenants", "read") {
		return nil, authz.ErrAccessDenied
	}
	return t, nil
}

// CreateInput carries the fields of a new tenant.
type CreateInput struct {
	Name     string
	Slug     string
	Plan     string
	MaxUsers int
}

// Create provisions a tenant. Only a platform operator holding
// tenants:create:all may do this; a nil home tenant alone is not enough.
func (s *Service) Create(ctx context.Context, p authz.Principal, in CreateInput) (*Tenant, error) {
	if !p.IsPlatformOperator() || !p.Permissions.HasString(PermCreateTenant) {
		return nil, authz.ErrAccessDenied
	}
	if !slugPattern.MatchString(in.Slug) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, in.Slug)
	}

	plan := in.Plan
	if plan == "" {
		plan = PlanStarter
	}

	now := time.Now()
	t := &Tenant{
		ID:        id.NewUUIDv7(),
		Name:      in.Name,
		Slug:      in.Slug,
		Plan:      plan,
		MaxUsers:  in.MaxUsers,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantCreated,
		TenantID: t.ID,
		ActorID:  p.ID,
		Resource: t.Slug,
	})

	return t, nil
}

// UpdateInput carries the mutable fields of a tenant. Nil pointers leave the
// stored value unchanged. Status is not here; use Suspend and Activate.
type UpdateInput struct {
	Name     *string
	Plan     *string
	MaxUsers *int
}

// Update mutates a tenant's profile fields.
func (s *Service) Update(ctx context.Context, p authz.Principal, tenantID string, in UpdateInput) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, t, "tenants", "update") {
		return nil, authz.ErrAccessDenied
	}

	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Plan != nil {
		t.Plan = *in.Plan
	}
	if in.MaxUsers != nil {
		t.MaxUsers = *in.MaxUsers
	}
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantUpdated,
		TenantID: t.ID,
		ActorID:  p.ID,
		Resource: t.Slug,
	})

	return t, nil
}

// Delete removes a tenant. It is blocked while any non-deleted principal is
// attached, mirroring the role-deletion dependency guard.
func (s *Service) Delete(ctx context.Context, p authz.Principal, tenantID string) error {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}

	count, err := s.repo.CountActiveUsers(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to count tenant users: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d active", ErrTenantHasUsers, count)
	}

	if !authz.CanAccess(p, t, "tenants", "delete") {
		return authz.ErrAccessDenied
	}

	if err := s.repo.Delete(ctx, tenantID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantDeleted,
		TenantID: t.ID,
		ActorID:  p.ID,
		Resource: t.Slug,
	})

	return nil
}

// Suspend transitions an active tenant to suspended. Suspending an already
// suspended tenant fails instead of silently succeeding, so a caller acting
// on stale state finds out.
func (s *Service) Suspend(ctx context.Context, p authz.Principal, tenantID string) (*Tenant, error) {
	return s.transition(ctx, p, tenantID, StatusSuspended, "suspend")
}

// Activate transitions a suspended tenant back to active. Idempotency-guarded
// like Suspend.
func (s *Service) Activate(ctx context.Context, p authz.Principal, tenantID string) (*Tenant, error) {
	return s.transition(ctx, p, tenantID, StatusActive, "activate")
}

func (s *Service) transition(ctx context.Context, p authz.Principal, tenantID, target, action string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, t, "tenants", action) {
		return nil, authz.ErrAccessDenied
	}
	if t.Status == target {
		if target == StatusSuspended {
			return nil, ErrTenantAlreadySuspended
		}
		return nil, ErrTenantAlreadyActive
	}

	t.Status = target
	t.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	auditType := audit.TypeTenantSuspended
	if target == StatusActive {
		auditType = audit.TypeTenantActivated
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     auditType,
		TenantID: t.ID,
		ActorID:  p.ID,
		Resource: t.Slug,
	})

	return t, nil
}
