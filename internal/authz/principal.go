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

// Package authz is the data scoping engine: it decides, for every read and
// write against the shared multi-tenant tables, whether the acting principal
// may see or mutate a given row, and rewrites list queries so tenants are
// invisible to each other without per-call manual filtering.
//
// The engine is stateless and request-scoped. Every operation receives the
// principal's resolved identity and flattened permission set as an argument;
// the set is computed once per request by the authentication layer and
// trusted completely here. Scoping is always evaluated against the literal
// permission string, never inferred from role level or hierarchy, so the
// authorization surface stays auditable as a flat list of strings.
package authz

import (
	"errors"

	"github.com/serenebook/serenebook/internal/permission"
)

// ErrAccessDenied is returned whenever a principal lacks the permission
// string an operation requires, or an entity-level scope check fails.
// Management services propagate it unchanged.
var ErrAccessDenied = errors.New("insufficient permissions")

// Principal is an authenticated actor as resolved by the authentication
// collaborator: identity, home tenant (nil means platform-wide operator, not
// "no data"), and the deduplicated union of role permissions and individual
// permission grants.
type Principal struct {
	ID          string
	TenantID    *string
	Permissions permission.Set
}

// IsPlatformOperator reports whether the principal operates platform-wide.
// A nil tenant is necessary but not sufficient for cross-tenant reads; list
// queries still require the relevant permission string.
func (p Principal) IsPlatformOperator() bool {
	return p.TenantID == nil
}

// Entity is any row owned by (or identified with) a tenant. Tenants
// themselves satisfy it with their own ID; system-wide rows such as system
// roles return nil.
type Entity interface {
	OwnerTenantID() *string
}
