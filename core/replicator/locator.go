package replicator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"
)

// Locator finds concrete architectural instances: connected groups of
// resources that together realize a detected pattern.
type Locator struct {
	gw     graphstore.Gateway
	logger *slog.Logger
}

func NewLocator(gw graphstore.Gateway, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{gw: gw, logger: logger}
}

// FindConnectedInstances locates instances of a pattern given its matched
// type names. Resources are grouped by immediate container; containers
// holding at least two matching resources seed one instance each. Seeds then
// absorb, to a fixed point, any directly linked resource of a matching type
// from any container. The overlap return counts resources that landed in
// more than one instance (seeds may reach shared neighbors).
func (l *Locator) FindConnectedInstances(ctx context.Context, patternName string, matchedTypes []string) ([]Instance, int, error) {
	typeSet := make(map[string]struct{}, len(matchedTypes))
	for _, t := range matchedTypes {
		typeSet[t] = struct{}{}
	}

	result, err := l.gw.ContainmentAndLinks(ctx, typeSet)
	if err != nil {
		return nil, 0, fmt.Errorf("containment query for %q: %w", patternName, err)
	}

	containers := make([]string, 0, len(result.Containers))
	for c, group := range result.Containers {
		if len(group) >= 2 {
			containers = append(containers, c)
		}
	}
	sort.Strings(containers)

	var instances []Instance
	seen := make(map[string]int)
	for _, container := range containers {
		included := make(map[string]graphstore.Resource)
		for _, r := range result.Containers[container] {
			included[r.ID] = r
		}
		expandToFixedPoint(included, result, typeSet)

		resources := make([]graphstore.Resource, 0, len(included))
		for _, r := range included {
			resources = append(resources, r)
		}
		sort.Slice(resources, func(i, j int) bool { return resources[i].ID < resources[j].ID })
		for _, r := range resources {
			seen[r.ID]++
		}

		instances = append(instances, Instance{
			ID:        uuid.NewString(),
			Pattern:   patternName,
			Resources: resources,
		})
	}

	overlap := 0
	for _, n := range seen {
		if n > 1 {
			overlap++
		}
	}
	if overlap > 0 {
		l.logger.Debug("instances share resources",
			"pattern", patternName, "shared_resources", overlap)
	}

	l.logger.Info("located instances",
		"pattern", patternName,
		"instances", len(instances),
		"candidate_resources", len(result.ByID))
	return instances, overlap, nil
}

// expandToFixedPoint grows included by scanning every included resource's
// direct neighbors and pulling in matching-type resources until no addition
// occurs. Bounded by the candidate pool, so it terminates.
func expandToFixedPoint(included map[string]graphstore.Resource, result *graphstore.ContainmentResult, typeSet map[string]struct{}) {
	for {
		changed := false
		for id := range included {
			for _, nb := range result.Links[id] {
				if _, ok := included[nb]; ok {
					continue
				}
				r, ok := result.ByID[nb]
				if !ok {
					continue
				}
				if _, ok := typeSet[graphstore.SimpleType(r.Type)]; !ok {
					continue
				}
				included[nb] = r
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// LocateAll finds instances for every detected pattern, keyed by pattern
// name. Patterns whose container grouping yields nothing map to an empty
// slice rather than being dropped.
func (l *Locator) LocateAll(ctx context.Context, matchedTypesByPattern map[string][]string) (map[string][]Instance, error) {
	names := make([]string, 0, len(matchedTypesByPattern))
	for name := range matchedTypesByPattern {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string][]Instance, len(names))
	for _, name := range names {
		instances, _, err := l.FindConnectedInstances(ctx, name, matchedTypesByPattern[name])
		if err != nil {
			return nil, err
		}
		out[name] = instances
	}
	return out, nil
}
