package replicator

import (
	"sort"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"
)

// Instance is one concrete connected group of resources realizing a pattern.
// Pattern is the pattern name, or an "Orphaned: ..." label for orphan-derived
// candidates.
type Instance struct {
	ID        string                `json:"id"`
	Pattern   string                `json:"pattern"`
	Resources []graphstore.Resource `json:"resources"`
}

// ResourceIDs returns the IDs of the instance's resources.
func (in Instance) ResourceIDs() []string {
	ids := make([]string, len(in.Resources))
	for i, r := range in.Resources {
		ids[i] = r.ID
	}
	return ids
}

// StepRecord captures the metrics after one greedy selection step.
type StepRecord struct {
	Step             int     `json:"step"`
	InstanceID       string  `json:"instance_id"`
	Pattern          string  `json:"pattern"`
	SpectralDistance float64 `json:"spectral_distance"`
	NodeCoverage     float64 `json:"node_coverage"`
}

// Warning kinds reported in a plan.
const (
	WarnPatternShortfall = "pattern_shortfall"
	WarnOrphanUnmatched  = "orphan_unmatched"
)

// Warning is a non-fatal condition encountered while building a plan.
type Warning struct {
	Kind    string `json:"kind"`
	Pattern string `json:"pattern,omitempty"`
	Message string `json:"message"`
	Wanted  int    `json:"wanted,omitempty"`
	Got     int    `json:"got,omitempty"`
}

// Plan is the result of one replication-plan generation call.
type Plan struct {
	Mode                  string       `json:"mode"`
	TargetCount           int          `json:"target_count"`
	PoolSize              int          `json:"pool_size"`
	Selected              []Instance   `json:"selected"`
	History               []StepRecord `json:"history,omitempty"`
	FinalSpectralDistance float64      `json:"final_spectral_distance"`
	FinalNodeCoverage     float64      `json:"final_node_coverage"`
	Warnings              []Warning    `json:"warnings,omitempty"`
}

// GroupedByPattern returns the selected instances keyed by their pattern
// label, preserving selection order within each group.
func (p *Plan) GroupedByPattern() map[string][]Instance {
	out := make(map[string][]Instance)
	for _, in := range p.Selected {
		out[in.Pattern] = append(out[in.Pattern], in)
	}
	return out
}

// SelectedResourceCount returns the total resources across selected
// instances.
func (p *Plan) SelectedResourceCount() int {
	n := 0
	for _, in := range p.Selected {
		n += len(in.Resources)
	}
	return n
}

// PatternLabels returns the sorted distinct labels present in the selection.
func (p *Plan) PatternLabels() []string {
	seen := make(map[string]struct{})
	for _, in := range p.Selected {
		seen[in.Pattern] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for label := range seen {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}
