package patterns

import (
	"math"
	"sort"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/typegraph"
)

// Distribution score component weights. Instance share dominates, structural
// shares follow.
const (
	weightInstanceShare   = 0.30
	weightResourceShare   = 0.25
	weightStrengthShare   = 0.25
	weightCentralityShare = 0.20
)

// InstanceStats summarizes a pattern's discovered architectural instances.
type InstanceStats struct {
	Instances int
	Resources int
}

// DistributionScore is the weighted composite describing how much of the
// source architecture a pattern accounts for.
type DistributionScore struct {
	Pattern           string  `json:"pattern"`
	Instances         int     `json:"instances"`
	Resources         int     `json:"resources"`
	InstancePercent   float64 `json:"instance_percent"`
	ResourcePercent   float64 `json:"resource_percent"`
	StrengthPercent   float64 `json:"strength_percent"`
	CentralityPercent float64 `json:"centrality_percent"`
	Score             float64 `json:"score"`
	Rank              int     `json:"rank"`
}

// ComputeArchitectureDistribution scores each pattern by its share of
// instances (30%), resources (25%), intra-pattern connection strength (25%)
// and betweenness centrality (20%), all relative to totals across patterns.
// Strength and centrality are computed over the pattern's full defined type
// set, restricted to types present in the graph. Zero instance or resource
// totals yield an empty result. Ranks are 1..N by descending score, name
// ascending on ties.
func ComputeArchitectureDistribution(stats map[string]InstanceStats, g *typegraph.Graph) []DistributionScore {
	totalInstances, totalResources := 0, 0
	for _, s := range stats {
		totalInstances += s.Instances
		totalResources += s.Resources
	}
	if totalInstances == 0 || totalResources == 0 {
		return nil
	}

	centrality := typegraph.Betweenness(g)

	strength := make(map[string]float64, len(stats))
	central := make(map[string]float64, len(stats))
	totalStrength, totalCentrality := 0.0, 0.0
	for name := range stats {
		def, ok := DefinitionByName(name)
		if !ok {
			continue
		}
		var s float64
		for _, src := range def.Types {
			for _, dst := range def.Types {
				if src == dst || !g.HasNode(src) || !g.HasNode(dst) {
					continue
				}
				s += float64(g.EdgeFrequency(src, dst))
			}
		}
		var c float64
		for _, t := range def.Types {
			if g.HasNode(t) {
				c += centrality[t]
			}
		}
		strength[name] = s
		central[name] = c
		totalStrength += s
		totalCentrality += c
	}

	share := func(part, total float64) float64 {
		if total == 0 {
			return 0
		}
		return part / total * 100
	}

	out := make([]DistributionScore, 0, len(stats))
	for name, s := range stats {
		d := DistributionScore{
			Pattern:           name,
			Instances:         s.Instances,
			Resources:         s.Resources,
			InstancePercent:   share(float64(s.Instances), float64(totalInstances)),
			ResourcePercent:   share(float64(s.Resources), float64(totalResources)),
			StrengthPercent:   share(strength[name], totalStrength),
			CentralityPercent: share(central[name], totalCentrality),
		}
		composite := weightInstanceShare*d.InstancePercent +
			weightResourceShare*d.ResourcePercent +
			weightStrengthShare*d.StrengthPercent +
			weightCentralityShare*d.CentralityPercent
		d.Score = math.Round(composite*10) / 10
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Pattern < out[j].Pattern
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// ComputePatternTargets apportions target instance counts proportionally to
// distribution scores. Floor division allocates first; any shortfall is
// distributed one unit at a time to the highest-scoring patterns and any
// overshoot removed from the lowest-scoring patterns with a positive
// allocation, so the result sums exactly to target. When every score is zero
// the target is split evenly and the remainder dropped.
func ComputePatternTargets(scores map[string]float64, target int) map[string]int {
	out := make(map[string]int, len(scores))
	if len(scores) == 0 || target <= 0 {
		for name := range scores {
			out[name] = 0
		}
		return out
	}

	names := make([]string, 0, len(scores))
	total := 0.0
	for name, s := range scores {
		names = append(names, name)
		total += s
	}
	// Descending score, name ascending on ties. Fixes which patterns absorb
	// remainder units.
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}
		return names[i] < names[j]
	})

	if total == 0 {
		even := target / len(scores)
		for _, name := range names {
			out[name] = even
		}
		return out
	}

	allocated := 0
	for _, name := range names {
		n := int(math.Floor(float64(target) * scores[name] / total))
		out[name] = n
		allocated += n
	}

	for allocated < target {
		for _, name := range names {
			out[name]++
			allocated++
			if allocated == target {
				break
			}
		}
	}
	for allocated > target {
		for i := len(names) - 1; i >= 0; i-- {
			if out[names[i]] > 0 {
				out[names[i]]--
				allocated--
				if allocated == target {
					break
				}
			}
		}
	}
	return out
}
