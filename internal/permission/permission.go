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

// Package permission defines the string grammar that is the atomic unit of
// every authorization decision on the platform.
//
// The wire format is "resource:action" or "resource:action:scope", lower-case
// ASCII words joined by colons. Scope is conventionally "all" (cross-tenant)
// or "own" (home-tenant only). Comparison is always exact string membership
// in a principal's flattened permission set; there is no wildcard or
// hierarchical matching.
package permission

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPermission indicates a string that does not match the grammar.
var ErrInvalidPermission = errors.New("invalid permission")

// Scope constants. Other scope words (e.g. "system" on role-management
// permissions) are valid grammar but carry no implicit tenant semantics.
const (
	ScopeAll = "all"
	ScopeOwn = "own"
)

var grammar = regexp.MustCompile(`^[a-z]+:[a-z]+(:[a-z]+)?$`)

// Permission is a parsed resource:action[:scope] tuple. The zero value is
// not a valid permission.
type Permission struct {
	Resource string
	Action   string
	Scope    string // empty when the wire form has two segments
}

// Parse validates a wire-format permission string and splits it into its
// structural parts.
func Parse(s string) (Permission, error) {
	if !grammar.MatchString(s) {
		return Permission{}, fmt.Errorf("%w: %q", ErrInvalidPermission, s)
	}
	parts := strings.Split(s, ":")
	p := Permission{Resource: parts[0], Action: parts[1]}
	if len(parts) == 3 {
		p.Scope = parts[2]
	}
	return p, nil
}

// Validate reports whether s matches the permission grammar.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}

// ValidateAll checks every string in perms against the grammar, failing on
// the first malformed entry.
func ValidateAll(perms []string) error {
	for _, s := range perms {
		if err := Validate(s); err != nil {
			return err
		}
	}
	return nil
}

// String renders the permission back to its wire format.
func (p Permission) String() string {
	if p.Scope == "" {
		return p.Resource + ":" + p.Action
	}
	return p.Resource + ":" + p.Action + ":" + p.Scope
}

// WithScope returns a copy of p carrying the given scope segment.
func (p Permission) WithScope(scope string) Permission {
	p.Scope = scope
	return p
}

// Set is a principal's flattened, deduplicated permission set, as resolved by
// the authentication layer once per request. Membership is exact-string.
type Set map[string]struct{}

// NewSet builds a Set from the wire-format strings, deduplicating.
// Malformed strings are kept verbatim; they simply never match anything the
// services ask for.
func NewSet(perms []string) Set {
	set := make(Set, len(perms))
	for _, s := range perms {
		set[s] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the exact permission.
func (s Set) Has(p Permission) bool {
	_, ok := s[p.String()]
	return ok
}

// HasString reports whether the set contains the exact wire-format string.
func (s Set) HasString(perm string) bool {
	_, ok := s[perm]
	return ok
}

// Strings returns the set's members in unspecified order.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	return out
}
