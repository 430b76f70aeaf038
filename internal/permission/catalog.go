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

package permission

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Group is the administrative view of every permission string known for one
// resource, for display and role assignment in the admin UI.
type Group struct {
	Resource    string   `json:"resource"`
	Permissions []string `json:"permissions"`
}

// CatalogRepository extracts the distinct permission strings appearing across
// all stored role definitions. There is no separate permission registry; the
// roles table is the de facto one.
type CatalogRepository interface {
	DistinctPermissions(ctx context.Context) ([]string, error)
}

// Catalog groups the system's known permissions by resource.
type Catalog struct {
	repo CatalogRepository
}

// NewCatalog creates a catalog service.
func NewCatalog(repo CatalogRepository) *Catalog {
	return &Catalog{repo: repo}
}

// List returns one group per resource. Groups are ordered by resource name
// and each group's permission list is lexicographically sorted. Strings that
// do not match the grammar are skipped; they cannot be assigned anyway.
func (c *Catalog) List(ctx context.Context) ([]Group, error) {
	perms, err := c.repo.DistinctPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission catalog: %w", err)
	}

	byResource := make(map[string][]string)
	for _, s := range perms {
		p, err := Parse(s)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed permission in catalog",
				slog.String("permission", s))
			continue
		}
		byResource[p.Resource] = append(byResource[p.Resource], s)
	}

	groups := make([]Group, 0, len(byResource))
	for resource, list := range byResource {
		sort.Strings(list)
		groups = append(groups, Group{Resource: resource, Permissions: list})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Resource < groups[j].Resource })

	return groups, nil
}
