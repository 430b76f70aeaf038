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

package authz

import "github.com/serenebook/serenebook/internal/permission"

// ScopeQuery narrows a list query to what the principal may see of the given
// resource. Holding "{resource}:read:all" leaves the query untouched;
// holding only "{resource}:read:own" appends exactly one
// tenant_id = principal.TenantID filter. Anything less is ErrAccessDenied;
// there is no silent empty-result fallback, so a caller mistake surfaces as
// a 403 instead of a confusing empty list.
func ScopeQuery(p Principal, q Query, resource string) (Query, error) {
	read := permission.Permission{Resource: resource, Action: "read"}

	if p.Permissions.Has(read.WithScope(permission.ScopeAll)) {
		return q, nil
	}
	if p.Permissions.Has(read.WithScope(permission.ScopeOwn)) {
		if p.TenantID == nil {
			// An own-scoped grant is meaningless without a home tenant.
			return Query{}, ErrAccessDenied
		}
		return q.Where("tenant_id", *p.TenantID), nil
	}
	return Query{}, ErrAccessDenied
}

// CanAccessEntity decides an entity-level operation against a loaded row.
// It returns true when the principal is a platform operator, when perm is an
// ":all"-scoped permission the principal holds, or when perm is an
// ":own"-scoped permission the principal holds and the entity belongs to the
// principal's home tenant. A nil entity is never accessible.
func CanAccessEntity(p Principal, entity Entity, perm permission.Permission) bool {
	if entity == nil {
		return false
	}
	if p.IsPlatformOperator() {
		return true
	}
	switch perm.Scope {
	case permission.ScopeAll:
		return p.Permissions.Has(perm)
	case permission.ScopeOwn:
		if !p.Permissions.Has(perm) {
			return false
		}
		owner := entity.OwnerTenantID()
		return owner != nil && p.TenantID != nil && *owner == *p.TenantID
	default:
		return false
	}
}

// CanAccess is the form the management services call: it tries the ":all"
// variant of resource:action, then the ":own" variant.
func CanAccess(p Principal, entity Entity, resource, action string) bool {
	perm := permission.Permission{Resource: resource, Action: action}
	return CanAccessEntity(p, entity, perm.WithScope(permission.ScopeAll)) ||
		CanAccessEntity(p, entity, perm.WithScope(permission.ScopeOwn))
}

// ValidateTenantAccess applies the same all/own logic as CanAccessEntity for
// pre-write checks where no entity exists yet (e.g. create): may the
// principal perform resource:action within the target tenant? A platform
// operator always passes.
func ValidateTenantAccess(p Principal, targetTenantID *string, resource, action string) error {
	if p.IsPlatformOperator() {
		return nil
	}
	perm := permission.Permission{Resource: resource, Action: action}
	if p.Permissions.Has(perm.WithScope(permission.ScopeAll)) {
		return nil
	}
	if p.Permissions.Has(perm.WithScope(permission.ScopeOwn)) &&
		targetTenantID != nil && p.TenantID != nil && *targetTenantID == *p.TenantID {
		return nil
	}
	return ErrAccessDenied
}

// RoleScope returns the visibility filter for role listings. Platform
// operators see every role definition; tenant-bound principals see system
// roles plus their own tenant's roles.
func RoleScope(p Principal) RoleFilter {
	if p.IsPlatformOperator() {
		return RoleFilter{Unrestricted: true}
	}
	return RoleFilter{TenantID: *p.TenantID}
}
