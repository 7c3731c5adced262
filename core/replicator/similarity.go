package replicator

import (
	"sort"
	"strings"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"
)

// Configuration-similarity weights: location equality, SKU tier prefix
// match, tag key-value Jaccard overlap.
const (
	simWeightLocation = 0.5
	simWeightSKUTier  = 0.3
	simWeightTags     = 0.2
)

// configurationSimilarity scores how alike two resources are configured,
// in [0, 1]. Mismatched or absent components contribute zero.
func configurationSimilarity(a, b graphstore.Resource) float64 {
	s := 0.0
	if a.Location != "" && a.Location == b.Location {
		s += simWeightLocation
	}
	if ta, tb := skuTier(a.SKU), skuTier(b.SKU); ta != "" && ta == tb {
		s += simWeightSKUTier
	}
	s += simWeightTags * tagJaccard(a.Tags, b.Tags)
	return s
}

// skuTier extracts the tier prefix of a SKU name: the segment before the
// first underscore ("Standard_D2s_v3" -> "Standard").
func skuTier(sku string) string {
	if sku == "" {
		return ""
	}
	if i := strings.Index(sku, "_"); i >= 0 {
		return sku[:i]
	}
	return sku
}

// tagJaccard computes Jaccard overlap of key=value tag pairs. Empty on both
// sides scores zero.
func tagJaccard(a, b map[string]string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k, v := range a {
		if bv, ok := b[k]; ok && bv == v {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// instanceSimilarity averages pairwise resource similarity between two
// instances. Empty instances score zero.
func instanceSimilarity(a, b Instance) float64 {
	if len(a.Resources) == 0 || len(b.Resources) == 0 {
		return 0
	}
	total := 0.0
	for _, ra := range a.Resources {
		for _, rb := range b.Resources {
			total += configurationSimilarity(ra, rb)
		}
	}
	return total / float64(len(a.Resources)*len(b.Resources))
}

// orderByCoherence sorts instances so those whose configurations cluster
// with the rest of the group come first. Each instance is scored by its mean
// similarity to the others; ties break by instance ID.
func orderByCoherence(instances []Instance) []Instance {
	if len(instances) <= 2 {
		out := make([]Instance, len(instances))
		copy(out, instances)
		return out
	}

	type scored struct {
		inst  Instance
		score float64
	}
	items := make([]scored, len(instances))
	for i, inst := range instances {
		total := 0.0
		for j, other := range instances {
			if i == j {
				continue
			}
			total += instanceSimilarity(inst, other)
		}
		items[i] = scored{inst: inst, score: total / float64(len(instances)-1)}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].inst.ID < items[j].inst.ID
	})

	out := make([]Instance, len(items))
	for i, it := range items {
		out[i] = it.inst
	}
	return out
}
