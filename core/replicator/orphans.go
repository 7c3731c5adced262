package replicator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/patterns"
)

// orphanLabelPrefix prefixes the synthetic pattern label of orphan-derived
// instances.
const orphanLabelPrefix = "Orphaned: "

// maxOrphanLabelTypes caps how many type names appear in the label.
const maxOrphanLabelTypes = 3

// providerNamespaces are the common provider namespaces tried when expanding
// a bare type name into qualified candidates.
var providerNamespaces = []string{
	"Microsoft.Compute",
	"Microsoft.Network",
	"Microsoft.Storage",
	"Microsoft.Web",
	"Microsoft.Sql",
	"Microsoft.KeyVault",
	"Microsoft.ContainerService",
	"Microsoft.Insights",
	"Microsoft.EventHub",
	"Microsoft.ServiceBus",
	"Microsoft.DataFactory",
	"Microsoft.ManagedIdentity",
}

// OrphanHandler locates concrete instances containing resource types that no
// detected pattern claimed, so pattern-based selection does not drop them.
type OrphanHandler struct {
	gw     graphstore.Gateway
	logger *slog.Logger
}

func NewOrphanHandler(gw graphstore.Gateway, logger *slog.Logger) *OrphanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrphanHandler{gw: gw, logger: logger}
}

// FindOrphanedNodeInstances computes the orphaned type set against the
// store-wide type frequency table (so zero-degree types still count), then
// groups matching resources by container into candidate instances. Groups
// with no genuinely orphan-typed member are discarded. Returns nil instances
// and no error when nothing is orphaned.
func (h *OrphanHandler) FindOrphanedNodeInstances(ctx context.Context, detected []patterns.DetectedPattern) ([]Instance, []Warning, error) {
	counts, err := h.gw.ResourceTypeCounts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("type counts: %w", err)
	}

	matched := patterns.MatchedTypeUnion(detected)
	var orphaned []string
	for t := range counts {
		if _, ok := matched[t]; !ok {
			orphaned = append(orphaned, t)
		}
	}
	if len(orphaned) == 0 {
		h.logger.Info("no orphaned types")
		return nil, nil, nil
	}
	sort.Strings(orphaned)
	h.logger.Info("found orphaned types", "count", len(orphaned))

	orphanSet := make(map[string]struct{}, len(orphaned))
	candidates := make([]string, 0, len(orphaned)*(len(providerNamespaces)+1))
	for _, t := range orphaned {
		orphanSet[t] = struct{}{}
		candidates = append(candidates, t)
		for _, ns := range providerNamespaces {
			candidates = append(candidates, ns+"/"+t)
		}
	}

	groups, err := h.gw.ResourcesByContainerForTypes(ctx, candidates)
	if err != nil {
		return nil, nil, fmt.Errorf("orphan container query: %w", err)
	}

	containers := make([]string, 0, len(groups))
	for c := range groups {
		containers = append(containers, c)
	}
	sort.Strings(containers)

	covered := make(map[string]struct{})
	var instances []Instance
	for _, container := range containers {
		group := groups[container]

		var orphanTypes []string
		seenType := make(map[string]struct{})
		for _, r := range group {
			t := graphstore.SimpleType(r.Type)
			if _, isOrphan := orphanSet[t]; !isOrphan {
				continue
			}
			if _, dup := seenType[t]; dup {
				continue
			}
			seenType[t] = struct{}{}
			orphanTypes = append(orphanTypes, t)
			covered[t] = struct{}{}
		}
		// Qualified-type candidates can collide across providers; a group
		// with no true orphan member is a false positive.
		if len(orphanTypes) == 0 {
			continue
		}
		sort.Strings(orphanTypes)
		if len(orphanTypes) > maxOrphanLabelTypes {
			orphanTypes = orphanTypes[:maxOrphanLabelTypes]
		}

		instances = append(instances, Instance{
			ID:        uuid.NewString(),
			Pattern:   orphanLabelPrefix + strings.Join(orphanTypes, ", "),
			Resources: group,
		})
	}

	var warnings []Warning
	for _, t := range orphaned {
		if _, ok := covered[t]; !ok {
			warnings = append(warnings, Warning{
				Kind:    WarnOrphanUnmatched,
				Message: fmt.Sprintf("orphaned type %q matched no container", t),
			})
			h.logger.Warn("orphaned type matched no container", "type", t)
		}
	}

	return instances, warnings, nil
}

// SuggestedGroups converts orphan instances into report-ready suggestions.
func SuggestedGroups(instances []Instance) []patterns.SuggestedGroup {
	out := make([]patterns.SuggestedGroup, 0, len(instances))
	for _, in := range instances {
		seen := make(map[string]struct{})
		var types []string
		for _, r := range in.Resources {
			t := graphstore.SimpleType(r.Type)
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			types = append(types, t)
		}
		sort.Strings(types)
		out = append(out, patterns.SuggestedGroup{
			Label:         in.Pattern,
			Types:         types,
			ResourceCount: len(in.Resources),
		})
	}
	return out
}

// IsOrphanLabel reports whether a pattern label marks an orphan-derived
// instance.
func IsOrphanLabel(label string) bool {
	return strings.HasPrefix(label, orphanLabelPrefix)
}
