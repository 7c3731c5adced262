// Package patterns turns raw relationship rows into a weighted type graph,
// detects which predefined architecture patterns are present in it, and
// computes distribution metrics used for proportional replication.
package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/typegraph"
)

// maxSampleEdges caps the number of example edges recorded per detected
// pattern.
const maxSampleEdges = 5

// AggregatedRelationship is a grouped relationship row: the number of times
// a (source type, relationship kind, target type) triple was observed.
type AggregatedRelationship struct {
	SourceType string `json:"source_type"`
	RelType    string `json:"rel_type"`
	TargetType string `json:"target_type"`
	Frequency  int    `json:"frequency"`
}

// SampleEdge is one example edge recorded for a detected pattern.
type SampleEdge struct {
	Source       string `json:"source"`
	Relationship string `json:"relationship"`
	Target       string `json:"target"`
}

// DetectedPattern records one pattern found in the type graph.
type DetectedPattern struct {
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	MatchedResources []string     `json:"matched_resources"`
	MissingResources []string     `json:"missing_resources"`
	ConnectionCount  int          `json:"connection_count"`
	PatternEdges     []SampleEdge `json:"pattern_edges"`
	Completeness     float64      `json:"completeness"`
}

// NodeEdge is one incident edge of an orphaned node, with its kind and
// observed frequency.
type NodeEdge struct {
	Other     string `json:"other"`
	Kind      string `json:"kind"`
	Frequency int    `json:"frequency"`
}

// OrphanedNode describes a graph node not claimed by any detected pattern.
type OrphanedNode struct {
	Name      string     `json:"name"`
	Count     int        `json:"count"`
	InDegree  int        `json:"in_degree"`
	OutDegree int        `json:"out_degree"`
	Degree    int        `json:"degree"`
	Outgoing  []NodeEdge `json:"outgoing"`
	Incoming  []NodeEdge `json:"incoming"`
	Connected []string   `json:"connected"`
}

// AggregateRelationships derives canonical type names for each row, groups by
// (source type, relationship kind, target type) and counts occurrences.
// Output is sorted by frequency descending, triple ascending on ties. Empty
// input yields empty output.
func AggregateRelationships(rows []graphstore.RelationshipRow) []AggregatedRelationship {
	type triple struct {
		source, rel, target string
	}
	counts := make(map[triple]int)
	for _, row := range rows {
		t := triple{
			source: DeriveTypeName(row.SourceLabels, row.SourceType),
			rel:    row.RelType,
			target: DeriveTypeName(row.TargetLabels, row.TargetType),
		}
		counts[t]++
	}

	out := make([]AggregatedRelationship, 0, len(counts))
	for t, n := range counts {
		out = append(out, AggregatedRelationship{
			SourceType: t.source,
			RelType:    t.rel,
			TargetType: t.target,
			Frequency:  n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		if out[i].SourceType != out[j].SourceType {
			return out[i].SourceType < out[j].SourceType
		}
		if out[i].RelType != out[j].RelType {
			return out[i].RelType < out[j].RelType
		}
		return out[i].TargetType < out[j].TargetType
	})
	return out
}

// BuildTypeGraph constructs the type multigraph from aggregated rows. Parallel
// edges between the same ordered pair with different kinds are retained.
func BuildTypeGraph(agg []AggregatedRelationship) *typegraph.Graph {
	g := typegraph.New()
	for _, row := range agg {
		g.AddEdge(row.SourceType, row.TargetType, row.RelType, row.Frequency)
	}
	return g
}

// DetectPatterns matches the catalog against the graph's node set. A pattern
// is recorded only when at least two of its defined types are present.
// Completeness is measured against the full defined type set. Connection
// count sums edge frequencies over every ordered pair of matched types, both
// directions contributing independently.
func DetectPatterns(g *typegraph.Graph) []DetectedPattern {
	var detected []DetectedPattern
	for _, def := range catalog {
		var matched, missing []string
		for _, t := range def.Types {
			if g.HasNode(t) {
				matched = append(matched, t)
			} else {
				missing = append(missing, t)
			}
		}
		if len(matched) < 2 {
			continue
		}
		sort.Strings(matched)
		sort.Strings(missing)

		connections := 0
		var samples []SampleEdge
		for _, src := range matched {
			for _, dst := range matched {
				if src == dst {
					continue
				}
				for _, rec := range g.Edges(src, dst) {
					connections += rec.Frequency
					if len(samples) < maxSampleEdges {
						samples = append(samples, SampleEdge{
							Source:       src,
							Relationship: rec.Kind,
							Target:       dst,
						})
					}
				}
			}
		}

		detected = append(detected, DetectedPattern{
			Name:             def.Name,
			Description:      def.Description,
			MatchedResources: matched,
			MissingResources: missing,
			ConnectionCount:  connections,
			PatternEdges:     samples,
			Completeness:     float64(len(matched)) / float64(len(def.Types)) * 100,
		})
	}
	return detected
}

// MatchedTypeUnion returns the union of matched types over detected patterns.
func MatchedTypeUnion(detected []DetectedPattern) map[string]struct{} {
	union := make(map[string]struct{})
	for _, p := range detected {
		for _, t := range p.MatchedResources {
			union[t] = struct{}{}
		}
	}
	return union
}

// IdentifyOrphanedNodes returns graph nodes not matched by any detected
// pattern, with their degree and edge context, sorted by node count
// descending (name ascending on ties).
func IdentifyOrphanedNodes(g *typegraph.Graph, detected []DetectedPattern) []OrphanedNode {
	matched := MatchedTypeUnion(detected)

	var out []OrphanedNode
	for _, name := range g.Types() {
		if _, ok := matched[name]; ok {
			continue
		}
		in, outDeg := g.Degrees(name)
		node := OrphanedNode{
			Name:      name,
			Count:     g.NodeCount(name),
			InDegree:  in,
			OutDegree: outDeg,
			Degree:    in + outDeg,
			Connected: g.Neighbors(name),
		}
		for _, key := range g.EdgeKeys() {
			if key.Source == name {
				for _, rec := range g.Edges(key.Source, key.Target) {
					node.Outgoing = append(node.Outgoing, NodeEdge{Other: key.Target, Kind: rec.Kind, Frequency: rec.Frequency})
				}
			}
			if key.Target == name {
				for _, rec := range g.Edges(key.Source, key.Target) {
					node.Incoming = append(node.Incoming, NodeEdge{Other: key.Source, Kind: rec.Kind, Frequency: rec.Frequency})
				}
			}
		}
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Analysis bundles the outputs of one analysis pass over the source store.
type Analysis struct {
	Aggregated []AggregatedRelationship
	Graph      *typegraph.Graph
	Detected   []DetectedPattern
	Orphaned   []OrphanedNode
}

// Analyzer runs the full analysis pipeline against a graph store. The type
// graph is rebuilt fresh on every call; nothing is persisted between runs.
type Analyzer struct {
	gw     graphstore.Gateway
	logger *slog.Logger
}

func NewAnalyzer(gw graphstore.Gateway, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{gw: gw, logger: logger}
}

// Analyze fetches all relationships, builds the type graph, detects patterns
// and identifies orphaned nodes. Query failures propagate; sparse or empty
// data yields an empty but well-formed result.
func (a *Analyzer) Analyze(ctx context.Context) (*Analysis, error) {
	rows, err := a.gw.AllRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch relationships: %w", err)
	}

	agg := AggregateRelationships(rows)
	g := BuildTypeGraph(agg)
	detected := DetectPatterns(g)
	orphaned := IdentifyOrphanedNodes(g, detected)

	a.logger.Info("analysis complete",
		"relationships", len(rows),
		"aggregated", len(agg),
		"types", g.Order(),
		"patterns", len(detected),
		"orphaned_types", len(orphaned))

	return &Analysis{
		Aggregated: agg,
		Graph:      g,
		Detected:   detected,
		Orphaned:   orphaned,
	}, nil
}
