// Package replicator selects a subset of concrete architectural instances
// whose induced type graph best approximates a source environment, under a
// target instance-count budget.
package replicator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/patterns"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/typegraph"
)

// distCacheSize bounds the spectral-distance memoization cache. Keys are
// canonical type-graph fingerprints; distinct selections frequently induce
// the same type graph, so hits are common inside the greedy loop.
const distCacheSize = 4096

// Selection modes reported in the plan.
const (
	ModeGreedySpectral = "greedy_spectral"
	ModeProportional   = "proportional"
)

// Options configures one replication-plan generation call.
type Options struct {
	// TargetInstanceCount is the instance budget. Zero or negative selects
	// the full pool.
	TargetInstanceCount int

	// NodeCoverageWeight blends the score: (1-w)*spectral + w*coverage gap.
	// Must be in [0, 1]. The weight is explicit here; callers wanting the
	// alternating pure-structural / pure-coverage behavior draw 0 or 1
	// themselves.
	NodeCoverageWeight float64

	// Proportional switches from greedy spectral selection to
	// distribution-proportional per-pattern draws.
	Proportional bool

	// ConfigCoherence, in proportional mode, prefers instances whose
	// resource configurations cluster together.
	ConfigCoherence bool
}

// Engine runs the selection loop. Construct with NewEngine after analyzing
// the source and locating instances.
type Engine struct {
	gw        graphstore.Gateway
	source    *typegraph.Graph
	detected  []patterns.DetectedPattern
	instances map[string][]Instance
	opts      Options
	logger    *slog.Logger
	distCache *lru.Cache[string, float64]
}

// NewEngine builds a selection engine. instances maps pattern labels
// (detected pattern names plus any orphan labels) to their located
// instances.
func NewEngine(gw graphstore.Gateway, source *typegraph.Graph, detected []patterns.DetectedPattern, instances map[string][]Instance, opts Options, logger *slog.Logger) (*Engine, error) {
	if opts.NodeCoverageWeight < 0 || opts.NodeCoverageWeight > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidCoverageWeight, opts.NodeCoverageWeight)
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, float64](distCacheSize)
	if err != nil {
		return nil, fmt.Errorf("distance cache: %w", err)
	}
	if instances == nil {
		instances = map[string][]Instance{}
	}
	return &Engine{
		gw:        gw,
		source:    source,
		detected:  detected,
		instances: instances,
		opts:      opts,
		logger:    logger,
		distCache: cache,
	}, nil
}

// GenerateReplicationPlan selects instances until the target budget (or the
// pool) is exhausted. Configuration errors surface before any graph-store
// work; query failures during target-graph rebuild abort the run.
func (e *Engine) GenerateReplicationPlan(ctx context.Context) (*Plan, error) {
	if e.source == nil {
		return nil, ErrSourceNotAnalyzed
	}
	if len(e.detected) == 0 {
		return nil, ErrNoPatternsDetected
	}

	pool := e.assemblePool()
	target := e.opts.TargetInstanceCount
	if target <= 0 {
		target = len(pool)
	}

	var plan *Plan
	var err error
	if e.opts.Proportional {
		plan, err = e.selectProportional(ctx, pool, target)
	} else {
		plan, err = e.selectGreedy(ctx, pool, target)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("replication plan generated",
		"mode", plan.Mode,
		"selected", len(plan.Selected),
		"target", plan.TargetCount,
		"pool", plan.PoolSize,
		"spectral_distance", plan.FinalSpectralDistance,
		"node_coverage", plan.FinalNodeCoverage)
	return plan, nil
}

// assemblePool flattens instances in deterministic order: detected-pattern
// order first, then orphan labels sorted. Pool index is the greedy
// tie-breaker.
func (e *Engine) assemblePool() []Instance {
	var pool []Instance
	for _, p := range e.detected {
		pool = append(pool, e.instances[p.Name]...)
	}
	var orphanLabels []string
	for label := range e.instances {
		if IsOrphanLabel(label) {
			orphanLabels = append(orphanLabels, label)
		}
	}
	sort.Strings(orphanLabels)
	for _, label := range orphanLabels {
		pool = append(pool, e.instances[label]...)
	}
	return pool
}

func (e *Engine) selectGreedy(ctx context.Context, pool []Instance, target int) (*Plan, error) {
	plan := &Plan{
		Mode:        ModeGreedySpectral,
		TargetCount: target,
		PoolSize:    len(pool),
	}

	iterations := target
	if len(pool) < iterations {
		iterations = len(pool)
	}

	remaining := make([]int, len(pool))
	for i := range pool {
		remaining[i] = i
	}
	selectedIDs := make(map[string]struct{})
	selectedTypes := make(map[string]struct{})

	finalDistance := typegraph.MaxSpectralDistance
	finalCoverage := 0.0

	for step := 0; step < iterations; step++ {
		bestPos := -1
		bestScore := math.Inf(1)
		bestDistance := typegraph.MaxSpectralDistance
		bestCoverage := 0.0

		for pos, idx := range remaining {
			candidate := pool[idx]
			ids := unionIDs(selectedIDs, candidate)
			types := unionTypes(selectedTypes, candidate)

			g, err := e.buildTargetGraph(ctx, ids, types)
			if err != nil {
				return nil, err
			}

			distance := e.spectralTo(g)
			coverage := e.nodeCoverage(g)
			score := (1-e.opts.NodeCoverageWeight)*distance +
				e.opts.NodeCoverageWeight*(1-coverage)

			// Strict improvement only: equal scores keep the earlier
			// candidate, i.e. the lowest original pool index wins ties.
			if score < bestScore {
				bestPos = pos
				bestScore = score
				bestDistance = distance
				bestCoverage = coverage
			}
		}

		chosen := pool[remaining[bestPos]]
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
		for _, id := range chosen.ResourceIDs() {
			selectedIDs[id] = struct{}{}
		}
		for _, r := range chosen.Resources {
			selectedTypes[graphstore.SimpleType(r.Type)] = struct{}{}
		}
		plan.Selected = append(plan.Selected, chosen)
		plan.History = append(plan.History, StepRecord{
			Step:             step + 1,
			InstanceID:       chosen.ID,
			Pattern:          chosen.Pattern,
			SpectralDistance: bestDistance,
			NodeCoverage:     bestCoverage,
		})
		finalDistance = bestDistance
		finalCoverage = bestCoverage

		e.logger.Debug("greedy step",
			"step", step+1,
			"pattern", chosen.Pattern,
			"score", bestScore,
			"spectral_distance", bestDistance,
			"node_coverage", bestCoverage)
	}

	plan.FinalSpectralDistance = finalDistance
	plan.FinalNodeCoverage = finalCoverage
	return plan, nil
}

func (e *Engine) selectProportional(ctx context.Context, pool []Instance, target int) (*Plan, error) {
	plan := &Plan{
		Mode:        ModeProportional,
		TargetCount: target,
		PoolSize:    len(pool),
	}

	stats := make(map[string]patterns.InstanceStats, len(e.detected))
	for _, p := range e.detected {
		group := e.instances[p.Name]
		resources := 0
		for _, in := range group {
			resources += len(in.Resources)
		}
		stats[p.Name] = patterns.InstanceStats{Instances: len(group), Resources: resources}
	}

	distribution := patterns.ComputeArchitectureDistribution(stats, e.source)
	scores := make(map[string]float64, len(e.detected))
	for _, p := range e.detected {
		scores[p.Name] = 0
	}
	drawOrder := make([]string, 0, len(e.detected))
	if len(distribution) > 0 {
		for _, d := range distribution {
			scores[d.Pattern] = d.Score
			drawOrder = append(drawOrder, d.Pattern)
		}
	} else {
		// Nothing to rank (no instances located); draw in detection order
		// with an even split.
		for _, p := range e.detected {
			drawOrder = append(drawOrder, p.Name)
		}
	}

	targets := patterns.ComputePatternTargets(scores, target)

	selectedCount := 0
	for _, name := range drawOrder {
		want := targets[name]
		if want == 0 {
			continue
		}
		avail := e.instances[name]
		if e.opts.ConfigCoherence {
			avail = orderByCoherence(avail)
		}
		if len(avail) < want {
			plan.Warnings = append(plan.Warnings, Warning{
				Kind:    WarnPatternShortfall,
				Pattern: name,
				Message: fmt.Sprintf("pattern %q has %d instances, wanted %d", name, len(avail), want),
				Wanted:  want,
				Got:     len(avail),
			})
			e.logger.Warn("pattern instance shortfall",
				"pattern", name, "wanted", want, "available", len(avail))
			want = len(avail)
		}
		plan.Selected = append(plan.Selected, avail[:want]...)
		selectedCount += want
	}

	// Orphan candidates are outside the distribution; fill any remaining
	// budget from them in pool order so orphaned types are not dropped.
	if selectedCount < target {
		chosen := make(map[string]struct{}, len(plan.Selected))
		for _, in := range plan.Selected {
			chosen[in.ID] = struct{}{}
		}
		for _, in := range pool {
			if selectedCount == target {
				break
			}
			if !IsOrphanLabel(in.Pattern) {
				continue
			}
			if _, ok := chosen[in.ID]; ok {
				continue
			}
			plan.Selected = append(plan.Selected, in)
			selectedCount++
		}
	}

	ids := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, in := range plan.Selected {
		for _, r := range in.Resources {
			ids[r.ID] = struct{}{}
			types[graphstore.SimpleType(r.Type)] = struct{}{}
		}
	}
	g, err := e.buildTargetGraph(ctx, setToSlice(ids), types)
	if err != nil {
		return nil, err
	}
	plan.FinalSpectralDistance = e.spectralTo(g)
	plan.FinalNodeCoverage = e.nodeCoverage(g)
	return plan, nil
}

// buildTargetGraph rebuilds the type graph induced by the given resource IDs
// from scratch, then forces every selected type to be present as a node so
// isolated types still register as covered.
func (e *Engine) buildTargetGraph(ctx context.Context, ids []string, types map[string]struct{}) (*typegraph.Graph, error) {
	rows, err := e.gw.RelationshipsAmong(ctx, ids)
	if err != nil {
		// A half-built target graph would silently corrupt the score;
		// query failure here is fatal.
		return nil, fmt.Errorf("target graph rebuild: %w", err)
	}
	g := patterns.BuildTypeGraph(patterns.AggregateRelationships(rows))
	for t := range types {
		g.AddNode(t)
	}
	return g, nil
}

// spectralTo returns the spectral distance from the source graph to g,
// memoized by g's canonical fingerprint.
func (e *Engine) spectralTo(g *typegraph.Graph) float64 {
	key := g.Fingerprint()
	if d, ok := e.distCache.Get(key); ok {
		return d
	}
	d := typegraph.SpectralDistance(e.source, g)
	e.distCache.Add(key, d)
	return d
}

// nodeCoverage returns the fraction of source types present in g, in [0, 1].
// An empty source counts as fully covered.
func (e *Engine) nodeCoverage(g *typegraph.Graph) float64 {
	sourceTypes := e.source.Types()
	if len(sourceTypes) == 0 {
		return 1
	}
	covered := 0
	for _, t := range sourceTypes {
		if g.HasNode(t) {
			covered++
		}
	}
	return float64(covered) / float64(len(sourceTypes))
}

func unionIDs(selected map[string]struct{}, candidate Instance) []string {
	out := make([]string, 0, len(selected)+len(candidate.Resources))
	for id := range selected {
		out = append(out, id)
	}
	for _, r := range candidate.Resources {
		if _, ok := selected[r.ID]; !ok {
			out = append(out, r.ID)
		}
	}
	sort.Strings(out)
	return out
}

func unionTypes(selected map[string]struct{}, candidate Instance) map[string]struct{} {
	out := make(map[string]struct{}, len(selected)+len(candidate.Resources))
	for t := range selected {
		out[t] = struct{}{}
	}
	for _, r := range candidate.Resources {
		out[graphstore.SimpleType(r.Type)] = struct{}{}
	}
	return out
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
