package graphstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(":memory:", DefaultSQLiteConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedVMWorkload(t *testing.T, store *SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.InsertResource(ctx, Resource{ID: "vm1", Type: "Microsoft.Compute/virtualMachines", Name: "vm1", Location: "eastus"}, "rg1"))
	require.NoError(t, store.InsertResource(ctx, Resource{ID: "disk1", Type: "Microsoft.Compute/disks", Name: "disk1"}, "rg1"))
	require.NoError(t, store.InsertResource(ctx, Resource{ID: "kv1", Type: "Microsoft.KeyVault/vaults", Name: "kv1"}, "rg2"))
	require.NoError(t, store.InsertRelationship(ctx, "vm1", "disk1", "ATTACHED_TO"))
	require.NoError(t, store.InsertRelationship(ctx, "vm1", "kv1", GenericRelationship))
}

func TestSQLiteAllRelationshipsExcludesBookkeeping(t *testing.T) {
	store := openTestStore(t)
	seedVMWorkload(t, store)

	rows, err := store.AllRelationships(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Microsoft.Compute/virtualMachines", rows[0].SourceType)
	assert.Equal(t, "ATTACHED_TO", rows[0].RelType)
	assert.Equal(t, "Microsoft.Compute/disks", rows[0].TargetType)
	assert.Equal(t, []string{"Resource"}, rows[0].SourceLabels)
}

func TestSQLiteRelationshipsAmong(t *testing.T) {
	store := openTestStore(t)
	seedVMWorkload(t, store)
	ctx := context.Background()

	rows, err := store.RelationshipsAmong(ctx, []string{"vm1", "disk1"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = store.RelationshipsAmong(ctx, []string{"vm1"})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = store.RelationshipsAmong(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLiteContainmentAndLinks(t *testing.T) {
	store := openTestStore(t)
	seedVMWorkload(t, store)

	result, err := store.ContainmentAndLinks(context.Background(),
		map[string]struct{}{"virtualMachines": {}, "disks": {}})
	require.NoError(t, err)

	require.Contains(t, result.Containers, "rg1")
	assert.Len(t, result.Containers["rg1"], 2)
	assert.NotContains(t, result.ByID, "kv1")
	// Links are symmetric; the generic edge to kv1 is invisible because kv1
	// is outside the filter.
	assert.ElementsMatch(t, []string{"disk1"}, result.Links["vm1"])
	assert.ElementsMatch(t, []string{"vm1"}, result.Links["disk1"])
}

func TestSQLiteResourcesByContainerForTypes(t *testing.T) {
	store := openTestStore(t)
	seedVMWorkload(t, store)

	groups, err := store.ResourcesByContainerForTypes(context.Background(),
		[]string{"vaults", "Microsoft.KeyVault/vaults"})
	require.NoError(t, err)
	require.Contains(t, groups, "rg2")
	assert.Len(t, groups["rg2"], 1)
	assert.NotContains(t, groups, "rg1")
}

func TestSQLiteResourceTypeCounts(t *testing.T) {
	store := openTestStore(t)
	seedVMWorkload(t, store)

	counts, err := store.ResourceTypeCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"virtualMachines": 1,
		"disks":           1,
		"vaults":          1,
	}, counts)
}

func TestSimpleType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Microsoft.Compute/virtualMachines", "virtualMachines"},
		{"Microsoft.Sql/servers/databases", "databases"},
		{"storageAccounts", "storageAccounts"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SimpleType(tt.in); got != tt.want {
			t.Errorf("SimpleType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMemoryStoreMatchesSQLiteContract(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	mem.AddResource(Resource{ID: "vm1", Type: "Microsoft.Compute/virtualMachines", Name: "vm1"}, "rg1")
	mem.AddResource(Resource{ID: "disk1", Type: "Microsoft.Compute/disks", Name: "disk1"}, "rg1")
	mem.AddRelationship("vm1", "disk1", "ATTACHED_TO")
	mem.AddRelationship("vm1", "disk1", GenericRelationship)

	rows, err := mem.AllRelationships(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	counts, err := mem.ResourceTypeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"virtualMachines": 1, "disks": 1}, counts)

	result, err := mem.ContainmentAndLinks(ctx, map[string]struct{}{"virtualMachines": {}, "disks": {}})
	require.NoError(t, err)
	assert.Len(t, result.Containers["rg1"], 2)
	assert.ElementsMatch(t, []string{"disk1"}, result.Links["vm1"])
}
