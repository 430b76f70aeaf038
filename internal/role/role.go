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
	"errors"
	"time"

	"github.com/serenebook/serenebook/internal/authz"
)

// Domain errors
var (
	ErrRoleNotFound          = errors.New("role not found")
	ErrSystemRoleImmutable   = errors.New("system roles cannot be modified or deleted")
	ErrDefaultRoleProtected  = errors.New("the default role cannot be deleted")
	ErrRoleInUse             = errors.New("role has assigned users and cannot be deleted")
	ErrSystemRoleTenantBound = errors.New("system roles cannot belong to a tenant")
	ErrTenantRoleNeedsTenant = errors.New("tenant roles require a tenant")
	ErrInvalidRoleType       = errors.New("invalid role type")
	ErrRoleNameTaken         = errors.New("role name already exists")
)

// Role types
const (
	TypeSystem = "system"
	TypeTenant = "tenant"
)

// Role is a named permission set. System roles are platform-managed
// definitions shared by every tenant; tenant roles are owned by and visible
// within a single tenant.
type Role struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	TenantID    *string   `json:"tenant_id"` // nil iff Type == system
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	Level       int       `json:"level"` // display ordering only, never an authorization input
	IsSystem    bool      `json:"is_system"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnerTenantID implements authz.Entity.
func (r *Role) OwnerTenantID() *string {
	return r.TenantID
}

// Repository defines the interface for role persistence
type Repository interface {
	// Create creates a new role definition
	Create(ctx context.Context, role *Role) error

	// GetByID retrieves a role by ID
	GetByID(ctx context.Context, id string) (*Role, error)

	// GetByName retrieves a role by name within a tenant (nil for system roles)
	GetByName(ctx context.Context, name string, tenantID *string) (*Role, error)

	// GetWithUsage retrieves a role together with its assigned-user count
	GetWithUsage(ctx context.Context, id string) (*Role, int, error)

	// Update updates role information
	Update(ctx context.Context, role *Role) error

	// ReplacePermissions replaces a role's permission set wholesale
	ReplacePermissions(ctx context.Context, id string, permissions []string) error

	// Delete deletes a role definition
	Delete(ctx context.Context, id string) error

	// List retrieves roles matching the query within the visibility scope
	List(ctx context.Context, q authz.Query, scope authz.RoleFilter) ([]*Role, error)
}
