package graphstore

import (
	"context"
	"strings"
)

// GenericRelationship is the reserved bookkeeping relationship kind. It links
// every resource to its tenant root for traversal convenience and carries no
// architectural meaning, so every read excludes it.
const GenericRelationship = "GENERIC_RELATIONSHIP"

// RelationshipRow is one observed relationship between two resources, carrying
// enough label/type context to derive canonical type names downstream.
type RelationshipRow struct {
	SourceLabels []string
	SourceType   string
	RelType      string
	TargetLabels []string
	TargetType   string
}

// Resource is a concrete resource record. Location, SKU and Tags are optional
// configuration fingerprint fields used by coherence-based selection.
type Resource struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Name     string            `json:"name"`
	Location string            `json:"location,omitempty"`
	SKU      string            `json:"sku,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// ContainmentResult groups candidate resources by their immediate container
// and exposes the direct links among them.
type ContainmentResult struct {
	// Containers maps a container ID to the candidate resources it holds.
	Containers map[string][]Resource
	// Links is a symmetric adjacency over candidate resource IDs. Both
	// directions of every link are present.
	Links map[string][]string
	// ByID indexes every candidate resource.
	ByID map[string]Resource
}

// Gateway is the read-only query contract the analyzer and replicator consume.
// Implementations must never retry internally; failures propagate to the
// caller as-is.
type Gateway interface {
	// AllRelationships returns every relationship row in the store,
	// excluding the GenericRelationship bookkeeping kind.
	AllRelationships(ctx context.Context) ([]RelationshipRow, error)

	// RelationshipsAmong returns rows whose source and target are both in
	// ids. Used to rebuild the type graph induced by a selection.
	RelationshipsAmong(ctx context.Context, ids []string) ([]RelationshipRow, error)

	// ContainmentAndLinks returns container groups and direct links
	// restricted to resources whose simplified type is in typeFilter.
	ContainmentAndLinks(ctx context.Context, typeFilter map[string]struct{}) (*ContainmentResult, error)

	// ResourcesByContainerForTypes returns container groups for resources
	// whose qualified or simplified type matches any candidate string.
	ResourcesByContainerForTypes(ctx context.Context, qualifiedTypes []string) (map[string][]Resource, error)

	// ResourceTypeCounts returns the simplified-type frequency table over
	// all resources, including resources with no relationships.
	ResourceTypeCounts(ctx context.Context) (map[string]int, error)
}

// SimpleType reduces a provider-qualified type string to its last path
// segment: "Microsoft.Compute/virtualMachines" -> "virtualMachines".
// Unqualified names pass through unchanged.
func SimpleType(qualified string) string {
	if i := strings.LastIndex(qualified, "/"); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
