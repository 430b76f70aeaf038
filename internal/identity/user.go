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
	"errors"
	"time"

	"github.com/serenebook/serenebook/internal/authz"
)

// Domain errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already exists")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrWeakPassword     = errors.New("password does not meet security requirements")
	ErrInvalidStatus    = errors.New("invalid user status")
	ErrSeatLimitReached = errors.New("tenant user limit reached")
)

// User status constants
const (
	StatusActive  = "active"
	StatusInvited = "invited"
)

// User represents a principal: an authenticated actor managed by the
// platform. A nil TenantID marks a platform-wide operator, not a user with
// no data.
//
// The struct deliberately carries no credential field. Password hashes live
// in a separate credentials table and a separate type, so no read path can
// leak a hash by accident; stripping is structural, not a projection callers
// must remember to apply.
type User struct {
	ID                    string     `json:"id"`
	TenantID              *string    `json:"tenant_id"`
	Email                 string     `json:"email"`
	FullName              string     `json:"full_name"`
	RoleID                string     `json:"role_id"`
	AdditionalPermissions []string   `json:"additional_permissions"`
	Status                string     `json:"status"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	DeletedAt             *time.Time `json:"deleted_at,omitempty"`
}

// OwnerTenantID implements authz.Entity.
func (u *User) OwnerTenantID() *string {
	return u.TenantID
}

// Credentials represents user authentication credentials
type Credentials struct {
	UserID       string
	PasswordHash string
	UpdatedAt    time.Time
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create inserts a user and their credentials in one transaction that
	// also re-reads the target tenant's seat limit against its current
	// non-deleted user count: two concurrent creations can never both pass
	// a stale count. Returns ErrSeatLimitReached when the tenant is full.
	Create(ctx context.Context, user *User, credentials *Credentials) error

	// GetByID retrieves a non-deleted user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a non-deleted user by email within a tenant
	GetByEmail(ctx context.Context, tenantID *string, email string) (*User, error)

	// Update updates user information
	Update(ctx context.Context, user *User) error

	// Delete soft-deletes a user. Deleting an already-deleted user returns
	// ErrUserNotFound.
	Delete(ctx context.Context, id string) error

	// List retrieves users matching the scoped query
	List(ctx context.Context, q authz.Query) ([]*User, error)
}
