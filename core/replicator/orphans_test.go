package replicator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/patterns"
)

func detectedVM() []patterns.DetectedPattern {
	return []patterns.DetectedPattern{{
		Name:             "Virtual Machine Workload",
		MatchedResources: []string{"disks", "virtualMachines"},
	}}
}

func TestFindOrphanedNodeInstances(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.AddResource(graphstore.Resource{ID: "vm1", Type: "Microsoft.Compute/virtualMachines", Name: "vm1"}, "rg1")
	store.AddResource(graphstore.Resource{ID: "disk1", Type: "Microsoft.Compute/disks", Name: "disk1"}, "rg1")
	store.AddResource(graphstore.Resource{ID: "acct1", Type: "Microsoft.CognitiveServices/accounts", Name: "acct1"}, "rg2")

	handler := NewOrphanHandler(store, nil)
	instances, warnings, err := handler.FindOrphanedNodeInstances(context.Background(), detectedVM())
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Empty(t, warnings)

	in := instances[0]
	assert.Equal(t, "Orphaned: accounts", in.Pattern)
	assert.True(t, IsOrphanLabel(in.Pattern))
	require.Len(t, in.Resources, 1)
	assert.Equal(t, "acct1", in.Resources[0].ID)
}

func TestFindOrphanedNodeInstancesNoOrphans(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.AddResource(graphstore.Resource{ID: "vm1", Type: "Microsoft.Compute/virtualMachines", Name: "vm1"}, "rg1")

	handler := NewOrphanHandler(store, nil)
	instances, warnings, err := handler.FindOrphanedNodeInstances(context.Background(), detectedVM())
	require.NoError(t, err)
	assert.Nil(t, instances)
	assert.Nil(t, warnings)
}

func TestFindOrphanedNodeInstancesUnmatchedTypeWarns(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.AddResource(graphstore.Resource{ID: "vm1", Type: "Microsoft.Compute/virtualMachines", Name: "vm1"}, "rg1")
	// Containerless orphan resource: its type is orphaned but no container
	// group can include it.
	store.AddResource(graphstore.Resource{ID: "sub1", Type: "Microsoft.Resources/subscriptions", Name: "sub1"}, "")

	handler := NewOrphanHandler(store, nil)
	instances, warnings, err := handler.FindOrphanedNodeInstances(context.Background(), detectedVM())
	require.NoError(t, err)
	assert.Empty(t, instances)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnOrphanUnmatched, warnings[0].Kind)
	assert.Contains(t, warnings[0].Message, "subscriptions")
}

func TestFindOrphanedNodeInstancesLabelCapsAtThreeTypes(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.AddResource(graphstore.Resource{ID: "vm1", Type: "Microsoft.Compute/virtualMachines", Name: "vm1"}, "rg1")
	for _, typ := range []string{"alphaServices", "betaServices", "gammaServices", "deltaServices"} {
		store.AddResource(graphstore.Resource{ID: typ + "-1", Type: "Custom.Provider/" + typ, Name: typ}, "rg2")
	}

	handler := NewOrphanHandler(store, nil)
	instances, _, err := handler.FindOrphanedNodeInstances(context.Background(), detectedVM())
	require.NoError(t, err)
	require.Len(t, instances, 1)

	label := strings.TrimPrefix(instances[0].Pattern, "Orphaned: ")
	assert.Len(t, strings.Split(label, ", "), 3)
	// All four resources are still carried even though the label names three.
	assert.Len(t, instances[0].Resources, 4)
}

func TestSuggestedGroups(t *testing.T) {
	instances := []Instance{{
		ID:      "i1",
		Pattern: "Orphaned: accounts",
		Resources: []graphstore.Resource{
			{ID: "a1", Type: "Microsoft.CognitiveServices/accounts"},
			{ID: "a2", Type: "Microsoft.CognitiveServices/accounts"},
		},
	}}
	groups := SuggestedGroups(instances)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"accounts"}, groups[0].Types)
	assert.Equal(t, 2, groups[0].ResourceCount)
}
