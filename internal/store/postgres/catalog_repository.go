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
	"fmt"
)

// CatalogRepository implements permission.CatalogRepository over the roles
// table. The catalog is derived, not stored: every permission string granted
// to any role is part of it.
type CatalogRepository struct {
	db *DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// DistinctPermissions returns every distinct permission string granted to any
// role, system or tenant.
func (r *CatalogRepository) DistinctPermissions(ctx context.Context) ([]string, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT DISTINCT unnest(permissions) FROM roles
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query permission catalog: %w", err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
