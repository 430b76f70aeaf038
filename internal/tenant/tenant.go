package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/serenebook/serenebook/internal/authz"
)

// Domain errors
var (
	ErrTenantNotFound         = errors.New("tenant not found")
	ErrSlugTaken              = errors.New("tenant slug already exists")
	ErrInvalidSlug            = errors.New("invalid tenant slug")
	ErrTenantAlreadySuspended = errors.New("tenant is already suspended")
	ErrTenantAlreadyActive    = errors.New("tenant is already active")
	ErrTenantHasUsers         = errors.New("tenant has active users and cannot be deleted")
)

// Lifecycle status constants. Suspension is a reversible status transition,
// not a deletion.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Subscription plans
const (
	PlanStarter  = "starter"
	PlanStudio   = "studio"
	PlanBusiness = "business"
)

// Tenant represents one salon or spa: an isolated customer organization.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Plan      string    `json:"plan"`
	MaxUsers  int       `json:"max_users"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerTenantID implements authz.Entity: a tenant row is owned by itself.
func (t *Tenant) OwnerTenantID() *string {
	return &t.ID
}

// Repository defines the interface for tenant storage
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q authz.Query) ([]*Tenant, error)

	// CountActiveUsers counts the tenant's non-deleted principals, via a
	// join against the users table.
	CountActiveUsers(ctx context.Context, tenantID string) (int, error)
}
