package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPurpose: Validates the permission grammar accepts well-formed strings and rejects anything else.
// Scope: Unit Test
// Security: Malformed permission strings must never enter a principal's set or a role definition.
// Expected: Two- and three-segment lower-case strings parse; everything else returns ErrInvalidPermission.
// Test Case ID: PRM-01
func TestPermission_Parse_Grammar(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"appointments:read", true},
		{"appointments:read:all", true},
		{"appointments:read:own", true},
		{"roles:create:system", true},
		{"a:b", true},
		{"a:b:c", true},
		{"", false},
		{"appointments", false},
		{"appointments:", false},
		{":read", false},
		{"appointments:read:", false},
		{"appointments:read:all:extra", false},
		{"Appointments:read", false},
		{"appointments:READ", false},
		{"appointments:read:All", false},
		{"appointments:read :all", false},
		{"appointments-x:read", false},
		{"appointments:read:own ", false},
		{"appointments::own", false},
		{"app1:read", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := Parse(tt.input)
			if tt.valid {
				assert.NoError(t, err)
				assert.Equal(t, tt.input, p.String())
			} else {
				assert.ErrorIs(t, err, ErrInvalidPermission)
			}
		})
	}
}

// TestPurpose: Validates that parsing splits a permission into its structural parts.
// Scope: Unit Test
// Expected: Resource, action and scope segments land in their fields; a two-segment string has empty scope.
// Test Case ID: PRM-02
func TestPermission_Parse_Fields(t *testing.T) {
	p, err := Parse("clients:update:own")
	assert.NoError(t, err)
	assert.Equal(t, "clients", p.Resource)
	assert.Equal(t, "update", p.Action)
	assert.Equal(t, ScopeOwn, p.Scope)

	p, err = Parse("reports:read")
	assert.NoError(t, err)
	assert.Equal(t, "reports", p.Resource)
	assert.Equal(t, "read", p.Action)
	assert.Empty(t, p.Scope)
}

// TestPurpose: Validates ValidateAll fails on the first malformed entry of a mixed batch.
// Scope: Unit Test
// Test Case ID: PRM-03
func TestPermission_ValidateAll(t *testing.T) {
	assert.NoError(t, ValidateAll(nil))
	assert.NoError(t, ValidateAll([]string{"users:read:all", "users:create:own"}))
	assert.ErrorIs(t, ValidateAll([]string{"users:read:all", "bogus"}), ErrInvalidPermission)
}

// TestPurpose: Validates that set membership is exact string comparison with no wildcard expansion.
// Scope: Unit Test
// Security: A scoped grant must not imply its unscoped or differently-scoped variants.
// Expected: Only the literal member strings match.
// Test Case ID: PRM-04
func TestPermission_Set_ExactMembership(t *testing.T) {
	set := NewSet([]string{"appointments:read:own", "clients:read:all", "clients:read:all"})

	assert.True(t, set.HasString("appointments:read:own"))
	assert.True(t, set.Has(Permission{Resource: "clients", Action: "read", Scope: ScopeAll}))

	assert.False(t, set.HasString("appointments:read"))
	assert.False(t, set.HasString("appointments:read:all"))
	assert.False(t, set.HasString("appointments:write:own"))

	// Duplicates collapse.
	assert.Len(t, set.Strings(), 2)
}

// TestPurpose: Validates WithScope derives a scoped variant without mutating the receiver.
// Scope: Unit Test
// Test Case ID: PRM-05
func TestPermission_WithScope(t *testing.T) {
	base := Permission{Resource: "roles", Action: "delete"}
	all := base.WithScope(ScopeAll)

	assert.Equal(t, "roles:delete:all", all.String())
	assert.Equal(t, "roles:delete", base.String())
}
