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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/serenebook/serenebook/internal/authz"
	"github.com/serenebook/serenebook/internal/role"
)

// RoleRepository implements role.Repository
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

const roleColumns = `id, type, tenant_id, name, description, permissions, level, is_system, is_default, created_at, updated_at`

// Create creates a new role definition
func (r *RoleRepository) Create(ctx context.Context, ro *role.Role) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO roles (`+roleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, ro.ID, ro.Type, ro.TenantID, ro.Name, ro.Description, ro.Permissions,
		ro.Level, ro.IsSystem, ro.IsDefault, ro.CreatedAt, ro.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return role.ErrRoleNameTaken
		}
		return fmt.Errorf("failed to insert role: %w", err)
	}
	return nil
}

// GetByID retrieves a role by ID
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*role.Role, error) {
	row := r.db.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

// GetByName retrieves a role by name within a tenant (nil for system roles)
func (r *RoleRepository) GetByName(ctx context.Context, name string, tenantID *string) (*role.Role, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE name = $1 AND tenant_id IS NOT DISTINCT FROM $2
	`, name, tenantID)
	return scanRole(row)
}

// GetWithUsage retrieves a role together with its assigned-user count
func (r *RoleRepository) GetWithUsage(ctx context.Context, id string) (*role.Role, int, error) {
	var ro role.Role
	var count int
	err := r.db.pool.QueryRow(ctx, `
		SELECT r.id, r.type, r.tenant_id, r.name, r.description, r.permissions,
			r.level, r.is_system, r.is_default, r.created_at, r.updated_at,
			(SELECT count(*) FROM users u WHERE u.role_id = r.id AND u.deleted_at IS NULL)
		FROM roles r
		WHERE r.id = $1
	`, id).Scan(
		&ro.ID, &ro.Type, &ro.TenantID, &ro.Name, &ro.Description, &ro.Permissions,
		&ro.Level, &ro.IsSystem, &ro.IsDefault, &ro.CreatedAt, &ro.UpdatedAt, &count,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, role.ErrRoleNotFound
		}
		return nil, 0, fmt.Errorf("failed to get role: %w", err)
	}
	return &ro, count, nil
}

// Update updates role information
func (r *RoleRepository) Update(ctx context.Context, ro *role.Role) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE roles SET
			name = $2,
			description = $3,
			permissions = $4,
			level = $5,
			is_default = $6,
			updated_at = $7
		WHERE id = $1 AND is_system = FALSE
	`, ro.ID, ro.Name, ro.Description, ro.Permissions, ro.Level, ro.IsDefault, ro.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return role.ErrRoleNameTaken
		}
		return fmt.Errorf("failed to update role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return role.ErrRoleNotFound
	}
	return nil
}

// ReplacePermissions replaces a role's permission set wholesale
func (r *RoleRepository) ReplacePermissions(ctx context.Context, id string, permissions []string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE roles SET permissions = $2, updated_at = $3
		WHERE id = $1 AND is_system = FALSE
	`, id, permissions, time.Now())
	if err != nil {
		return fmt.Errorf("failed to replace role permissions: %w", err)
	}
	if result.RowsAffected() == 0 {
		return role.ErrRoleNotFound
	}
	return nil
}

// Delete deletes a role definition
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1 AND is_system = FALSE`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return role.ErrRoleNotFound
	}
	return nil
}

// List retrieves roles matching the query within the visibility scope
func (r *RoleRepository) List(ctx context.Context, q authz.Query, scope authz.RoleFilter) ([]*role.Role, error) {
	var conds []string
	var args []any
	if !scope.Unrestricted {
		args = append(args, scope.TenantID)
		conds = append(conds, fmt.Sprintf("(tenant_id IS NULL OR tenant_id = $%d)", len(args)))
	}

	clauses, args := buildClauses(q, conds, args)
	rows, err := r.db.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles`+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*role.Role
	for rows.Next() {
		var ro role.Role
		if err := rows.Scan(
			&ro.ID, &ro.Type, &ro.TenantID, &ro.Name, &ro.Description, &ro.Permissions,
			&ro.Level, &ro.IsSystem, &ro.IsDefault, &ro.CreatedAt, &ro.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, &ro)
	}
	return roles, rows.Err()
}

func scanRole(row pgx.Row) (*role.Role, error) {
	var ro role.Role
	err := row.Scan(
		&ro.ID, &ro.Type, &ro.TenantID, &ro.Name, &ro.Description, &ro.Permissions,
		&ro.Level, &ro.IsSystem, &ro.IsDefault, &ro.CreatedAt, &ro.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, role.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &ro, nil
}
