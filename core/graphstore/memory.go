package graphstore

import (
	"context"
	"sort"
	"strings"
)

type memoryRel struct {
	sourceID string
	targetID string
	kind     string
}

// MemoryStore is an in-memory Gateway used by tests and as a loading target.
// Not safe for concurrent mutation; the core only reads.
type MemoryStore struct {
	resources   map[string]Resource
	containerOf map[string]string
	labelsOf    map[string][]string
	rels        []memoryRel
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		resources:   make(map[string]Resource),
		containerOf: make(map[string]string),
		labelsOf:    make(map[string][]string),
	}
}

// AddResource registers a resource under the given container (empty for
// top-level). Labels default to {"Resource"}.
func (m *MemoryStore) AddResource(r Resource, containerID string, labels ...string) {
	if len(labels) == 0 {
		labels = []string{"Resource"}
	}
	m.resources[r.ID] = r
	m.labelsOf[r.ID] = labels
	if containerID != "" {
		m.containerOf[r.ID] = containerID
	}
}

func (m *MemoryStore) AddRelationship(sourceID, targetID, kind string) {
	m.rels = append(m.rels, memoryRel{sourceID: sourceID, targetID: targetID, kind: kind})
}

func (m *MemoryStore) row(rel memoryRel) (RelationshipRow, bool) {
	src, srcOK := m.resources[rel.sourceID]
	dst, dstOK := m.resources[rel.targetID]
	if !srcOK || !dstOK {
		return RelationshipRow{}, false
	}
	return RelationshipRow{
		SourceLabels: m.labelsOf[rel.sourceID],
		SourceType:   src.Type,
		RelType:      rel.kind,
		TargetLabels: m.labelsOf[rel.targetID],
		TargetType:   dst.Type,
	}, true
}

func (m *MemoryStore) AllRelationships(_ context.Context) ([]RelationshipRow, error) {
	var out []RelationshipRow
	for _, rel := range m.rels {
		if rel.kind == GenericRelationship {
			continue
		}
		if row, ok := m.row(rel); ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *MemoryStore) RelationshipsAmong(_ context.Context, ids []string) ([]RelationshipRow, error) {
	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	var out []RelationshipRow
	for _, rel := range m.rels {
		if rel.kind == GenericRelationship {
			continue
		}
		if _, ok := idSet[rel.sourceID]; !ok {
			continue
		}
		if _, ok := idSet[rel.targetID]; !ok {
			continue
		}
		if row, ok := m.row(rel); ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *MemoryStore) ContainmentAndLinks(_ context.Context, typeFilter map[string]struct{}) (*ContainmentResult, error) {
	result := &ContainmentResult{
		Containers: make(map[string][]Resource),
		Links:      make(map[string][]string),
		ByID:       make(map[string]Resource),
	}
	for id, r := range m.resources {
		if _, ok := typeFilter[SimpleType(r.Type)]; !ok {
			continue
		}
		result.ByID[id] = r
		if container := m.containerOf[id]; container != "" {
			result.Containers[container] = append(result.Containers[container], r)
		}
	}
	for container := range result.Containers {
		group := result.Containers[container]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	}
	for _, rel := range m.rels {
		if rel.kind == GenericRelationship {
			continue
		}
		_, srcOK := result.ByID[rel.sourceID]
		_, dstOK := result.ByID[rel.targetID]
		if !srcOK || !dstOK {
			continue
		}
		result.Links[rel.sourceID] = append(result.Links[rel.sourceID], rel.targetID)
		result.Links[rel.targetID] = append(result.Links[rel.targetID], rel.sourceID)
	}
	return result, nil
}

func (m *MemoryStore) ResourcesByContainerForTypes(_ context.Context, qualifiedTypes []string) (map[string][]Resource, error) {
	wanted := make(map[string]struct{}, len(qualifiedTypes))
	for _, t := range qualifiedTypes {
		wanted[strings.ToLower(t)] = struct{}{}
	}
	groups := make(map[string][]Resource)
	for id, r := range m.resources {
		container := m.containerOf[id]
		if container == "" {
			continue
		}
		_, exact := wanted[strings.ToLower(r.Type)]
		_, simple := wanted[strings.ToLower(SimpleType(r.Type))]
		if !exact && !simple {
			continue
		}
		groups[container] = append(groups[container], r)
	}
	for container := range groups {
		group := groups[container]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	}
	return groups, nil
}

func (m *MemoryStore) ResourceTypeCounts(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, r := range m.resources {
		counts[SimpleType(r.Type)]++
	}
	return counts, nil
}
