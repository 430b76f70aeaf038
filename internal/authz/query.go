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

// Filter is one equality predicate appended to a list query.
type Filter struct {
	Column string
	Value  any
}

// Query is the typed query value management services build from request
// filters and the engine scopes. The store layer renders it to SQL; nothing
// in the core merges loosely-shaped query objects.
type Query struct {
	Filters  []Filter
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// Where returns a copy of q with one more equality filter appended. Queries
// are values; the receiver is never mutated.
func (q Query) Where(column string, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Column: column, Value: value})
	return q
}

// RoleFilter is the visibility rule for role listings. Unrestricted means
// platform-wide visibility; otherwise the listing covers system role
// definitions plus the named tenant's own roles. Tenant administrators must
// be able to read system roles (they are inherited reference data) but never
// another tenant's custom roles.
type RoleFilter struct {
	Unrestricted bool
	TenantID     string
}
