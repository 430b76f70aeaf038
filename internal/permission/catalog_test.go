package permission

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) DistinctPermissions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// TestPurpose: Validates the catalog groups stored permission strings by resource with deterministic ordering.
// Scope: Unit Test
// Expected: One group per resource, groups sorted by resource name, each group's permissions sorted lexicographically.
// Test Case ID: CAT-01
func TestCatalog_List_GroupsByResource(t *testing.T) {
	repo := new(mockCatalogRepo)
	catalog := NewCatalog(repo)
	ctx := context.Background()

	repo.On("DistinctPermissions", ctx).Return([]string{
		"clients:read:own",
		"appointments:update:own",
		"appointments:read:all",
		"clients:create:own",
		"appointments:read:own",
	}, nil)

	groups, err := catalog.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, groups, 2)

	assert.Equal(t, "appointments", groups[0].Resource)
	assert.Equal(t, []string{
		"appointments:read:all",
		"appointments:read:own",
		"appointments:update:own",
	}, groups[0].Permissions)

	assert.Equal(t, "clients", groups[1].Resource)
	assert.Equal(t, []string{
		"clients:create:own",
		"clients:read:own",
	}, groups[1].Permissions)
}

// TestPurpose: Validates that every stored permission round-trips into exactly one catalog group.
// Scope: Unit Test
// Expected: The union of all group members equals the stored set; no string is duplicated or dropped.
// Test Case ID: CAT-02
func TestCatalog_List_RoundTrip(t *testing.T) {
	repo := new(mockCatalogRepo)
	catalog := NewCatalog(repo)
	ctx := context.Background()

	stored := []string{
		"staff:create:own",
		"staff:read:all",
		"reports:read:own",
		"tenants:suspend:all",
		"roles:delete:own",
	}
	repo.On("DistinctPermissions", ctx).Return(stored, nil)

	groups, err := catalog.List(ctx)
	assert.NoError(t, err)

	seen := make(map[string]int)
	for _, g := range groups {
		for _, p := range g.Permissions {
			seen[p]++
			parsed, err := Parse(p)
			assert.NoError(t, err)
			assert.Equal(t, g.Resource, parsed.Resource)
		}
	}
	for _, p := range stored {
		assert.Equal(t, 1, seen[p], p)
	}
}

// TestPurpose: Validates that malformed strings in storage are skipped, not fatal.
// Scope: Unit Test
// Expected: The catalog omits strings that fail the grammar and still returns the valid remainder.
// Test Case ID: CAT-03
func TestCatalog_List_SkipsMalformed(t *testing.T) {
	repo := new(mockCatalogRepo)
	catalog := NewCatalog(repo)
	ctx := context.Background()

	repo.On("DistinctPermissions", ctx).Return([]string{
		"clients:read:own",
		"not a permission",
		"UPPER:case",
	}, nil)

	groups, err := catalog.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, groups, 1)
	assert.Equal(t, "clients", groups[0].Resource)
}

// TestPurpose: Validates repository failures surface as errors.
// Scope: Unit Test
// Test Case ID: CAT-04
func TestCatalog_List_RepoError(t *testing.T) {
	repo := new(mockCatalogRepo)
	catalog := NewCatalog(repo)
	ctx := context.Background()

	repo.On("DistinctPermissions", ctx).Return(nil, errors.New("connection refused"))

	groups, err := catalog.List(ctx)
	assert.Error(t, err)
	assert.Nil(t, groups)
}
