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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/serenebook/serenebook/internal/authz"
	"github.com/serenebook/serenebook/internal/tenant"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, slug, plan, max_users, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.Name, t.Slug, t.Plan, t.MaxUsers, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return tenant.ErrSlugTaken
		}
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	return r.get(ctx, "id", id)
}

// GetBySlug retrieves a tenant by slug
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return r.get(ctx, "slug", slug)
}

func (r *TenantRepository) get(ctx context.Context, column, value string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, slug, plan, max_users, status, created_at, updated_at
		FROM tenants
		WHERE `+column+` = $1
	`, value).Scan(&t.ID, &t.Name, &t.Slug, &t.Plan, &t.MaxUsers, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

// Update updates tenant information
func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE tenants SET
			name = $2,
			plan = $3,
			max_users = $4,
			status = $5,
			updated_at = $6
		WHERE id = $1
	`, t.ID, t.Name, t.Plan, t.MaxUsers, t.Status, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// Delete removes a tenant. Only live users block deletion; soft-deleted user
// rows still reference the tenant through a RESTRICT constraint, so they are
// purged in the same transaction (their credentials cascade). A concurrent
// creation that lands between the service's count and this delete trips the
// constraint and is reported as the tenant still having users.
func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM users WHERE tenant_id = $1 AND deleted_at IS NOT NULL
	`, id); err != nil {
		return fmt.Errorf("failed to purge deleted tenant users: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return tenant.ErrTenantHasUsers
		}
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return tx.Commit(ctx)
}

// List retrieves tenants matching the scoped query
func (r *TenantRepository) List(ctx context.Context, q authz.Query) ([]*tenant.Tenant, error) {
	// The scoping engine filters on tenant_id; for this table that is the
	// primary key itself.
	q = renameFilters(q, "tenant_id", "id")

	clauses, args := buildClauses(q, nil, nil)
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, slug, plan, max_users, status, created_at, updated_at
		FROM tenants`+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*tenant.Tenant
	for rows.Next() {
		var t tenant.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Plan, &t.MaxUsers, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, &t)
	}
	return tenants, rows.Err()
}

// CountActiveUsers counts the tenant's non-deleted principals
func (r *TenantRepository) CountActiveUsers(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.db.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM users u
		JOIN tenants t ON t.id = u.tenant_id
		WHERE t.id = $1 AND u.deleted_at IS NULL
	`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tenant users: %w", err)
	}
	return count, nil
}

// isUniqueViolation reports a Postgres unique constraint error (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports a Postgres foreign key error (23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
