package replicator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"
)

func TestFindConnectedInstancesGroupsByContainer(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.AddResource(graphstore.Resource{ID: "vm1", Type: "Microsoft.Compute/virtualMachines", Name: "vm1"}, "rg1")
	store.AddResource(graphstore.Resource{ID: "disk1", Type: "Microsoft.Compute/disks", Name: "disk1"}, "rg1")
	store.AddResource(graphstore.Resource{ID: "vm2", Type: "Microsoft.Compute/virtualMachines", Name: "vm2"}, "rg2")
	store.AddResource(graphstore.Resource{ID: "disk2", Type: "Microsoft.Compute/disks", Name: "disk2"}, "rg2")
	store.AddRelationship("vm1", "disk1", "ATTACHED_TO")
	store.AddRelationship("vm2", "disk2", "ATTACHED_TO")

	locator := NewLocator(store, nil)
	instances, overlap, err := locator.FindConnectedInstances(context.Background(),
		"Virtual Machine Workload", []string{"virtualMachines", "disks"})
	require.NoError(t, err)
	assert.Len(t, instances, 2)
	assert.Zero(t, overlap)
	for _, in := range instances {
		assert.Len(t, in.Resources, 2)
		assert.Equal(t, "Virtual Machine Workload", in.Pattern)
		assert.NotEmpty(t, in.ID)
	}
}

func TestFindConnectedInstancesExpandsAcrossContainers(t *testing.T) {
	store := graphstore.NewMemoryStore()
	// Seed container: two matching resources.
	store.AddResource(graphstore.Resource{ID: "vm1", Type: "Microsoft.Compute/virtualMachines", Name: "vm1"}, "rg1")
	store.AddResource(graphstore.Resource{ID: "nic1", Type: "Microsoft.Network/networkInterfaces", Name: "nic1"}, "rg1")
	// disk9 lives alone in another container and cannot seed, but vm1 links
	// to it directly.
	store.AddResource(graphstore.Resource{ID: "disk9", Type: "Microsoft.Compute/disks", Name: "disk9"}, "rg9")
	store.AddRelationship("vm1", "nic1", "USES")
	store.AddRelationship("vm1", "disk9", "ATTACHED_TO")

	locator := NewLocator(store, nil)
	instances, _, err := locator.FindConnectedInstances(context.Background(),
		"Virtual Machine Workload", []string{"virtualMachines", "disks", "networkInterfaces"})
	require.NoError(t, err)
	require.Len(t, instances, 1)

	ids := instances[0].ResourceIDs()
	assert.ElementsMatch(t, []string{"vm1", "nic1", "disk9"}, ids)
}

func TestFindConnectedInstancesIgnoresNonMatchingNeighbors(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.AddResource(graphstore.Resource{ID: "vm1", Type: "Microsoft.Compute/virtualMachines", Name: "vm1"}, "rg1")
	store.AddResource(graphstore.Resource{ID: "disk1", Type: "Microsoft.Compute/disks", Name: "disk1"}, "rg1")
	store.AddResource(graphstore.Resource{ID: "kv1", Type: "Microsoft.KeyVault/vaults", Name: "kv1"}, "rg1")
	store.AddRelationship("vm1", "disk1", "ATTACHED_TO")
	store.AddRelationship("vm1", "kv1", "READS_SECRETS")

	locator := NewLocator(store, nil)
	instances, _, err := locator.FindConnectedInstances(context.Background(),
		"Virtual Machine Workload", []string{"virtualMachines", "disks"})
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.ElementsMatch(t, []string{"vm1", "disk1"}, instances[0].ResourceIDs())
}

func TestFindConnectedInstancesSingleResourceContainerNoSeed(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.AddResource(graphstore.Resource{ID: "vm1", Type: "Microsoft.Compute/virtualMachines", Name: "vm1"}, "rg1")

	locator := NewLocator(store, nil)
	instances, _, err := locator.FindConnectedInstances(context.Background(),
		"Virtual Machine Workload", []string{"virtualMachines", "disks"})
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestFindConnectedInstancesOverlapReported(t *testing.T) {
	store := graphstore.NewMemoryStore()
	// Two seed containers that both link to the same shared disk.
	store.AddResource(graphstore.Resource{ID: "vm1", Type: "Microsoft.Compute/virtualMachines", Name: "vm1"}, "rg1")
	store.AddResource(graphstore.Resource{ID: "nic1", Type: "Microsoft.Network/networkInterfaces", Name: "nic1"}, "rg1")
	store.AddResource(graphstore.Resource{ID: "vm2", Type: "Microsoft.Compute/virtualMachines", Name: "vm2"}, "rg2")
	store.AddResource(graphstore.Resource{ID: "nic2", Type: "Microsoft.Network/networkInterfaces", Name: "nic2"}, "rg2")
	store.AddResource(graphstore.Resource{ID: "shared", Type: "Microsoft.Compute/disks", Name: "shared"}, "rg3")
	store.AddRelationship("vm1", "nic1", "USES")
	store.AddRelationship("vm2", "nic2", "USES")
	store.AddRelationship("vm1", "shared", "ATTACHED_TO")
	store.AddRelationship("vm2", "shared", "ATTACHED_TO")

	locator := NewLocator(store, nil)
	instances, overlap, err := locator.FindConnectedInstances(context.Background(),
		"Virtual Machine Workload", []string{"virtualMachines", "disks", "networkInterfaces"})
	require.NoError(t, err)
	assert.Len(t, instances, 2)
	assert.Equal(t, 1, overlap)
}
