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
	"github.com/serenebook/serenebook/internal/identity"
	"github.com/serenebook/serenebook/internal/tenant"
)

// UserRepository implements identity.UserRepository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, tenant_id, email, full_name, role_id, additional_permissions, status, created_at, updated_at, deleted_at`

// Create inserts a user and credentials atomically, enforcing the tenant's
// seat limit inside the same transaction. The tenant row is locked first so
// two concurrent creations serialize on the count check instead of both
// reading a stale value.
func (r *UserRepository) Create(ctx context.Context, u *identity.User, creds *identity.Credentials) error {
	tx, err := r.db.BeginTenantTx(ctx, u.TenantID)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if u.TenantID != nil {
		var maxUsers int
		err := tx.QueryRow(ctx, `
			SELECT max_users FROM tenants WHERE id = $1 FOR UPDATE
		`, *u.TenantID).Scan(&maxUsers)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return tenant.ErrTenantNotFound
			}
			return fmt.Errorf("failed to lock tenant: %w", err)
		}

		var current int
		err = tx.QueryRow(ctx, `
			SELECT count(*) FROM users WHERE tenant_id = $1 AND deleted_at IS NULL
		`, *u.TenantID).Scan(&current)
		if err != nil {
			return fmt.Errorf("failed to count tenant users: %w", err)
		}

		if maxUsers > 0 && current >= maxUsers {
			return identity.ErrSeatLimitReached
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, tenant_id, email, full_name, role_id, additional_permissions, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.TenantID, u.Email, u.FullName, nullable(u.RoleID), u.AdditionalPermissions,
		u.Status, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO credentials (user_id, password_hash, updated_at)
		VALUES ($1, $2, $3)
	`, creds.UserID, creds.PasswordHash, creds.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert credentials: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a non-deleted user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*identity.User, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanUser(row)
}

// GetByEmail retrieves a non-deleted user by email within a tenant
func (r *UserRepository) GetByEmail(ctx context.Context, tenantID *string, email string) (*identity.User, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE tenant_id IS NOT DISTINCT FROM $1 AND lower(email) = lower($2) AND deleted_at IS NULL
	`, tenantID, email)
	return scanUser(row)
}

// Update updates user information
func (r *UserRepository) Update(ctx context.Context, u *identity.User) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE users SET
			full_name = $2,
			role_id = $3,
			additional_permissions = $4,
			status = $5,
			updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL
	`, u.ID, u.FullName, nullable(u.RoleID), u.AdditionalPermissions, u.Status, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// Delete soft-deletes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE users SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// List retrieves users matching the scoped query
func (r *UserRepository) List(ctx context.Context, q authz.Query) ([]*identity.User, error) {
	clauses, args := buildClauses(q, []string{"deleted_at IS NULL"}, nil)
	rows, err := r.db.pool.Query(ctx, `SELECT `+userColumns+` FROM users`+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*identity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*identity.User, error) {
	var u identity.User
	var roleID *string
	err := row.Scan(
		&u.ID, &u.TenantID, &u.Email, &u.FullName, &roleID, &u.AdditionalPermissions,
		&u.Status, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if roleID != nil {
		u.RoleID = *roleID
	}
	return &u, nil
}

// nullable maps an empty string to SQL NULL for optional foreign keys.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
