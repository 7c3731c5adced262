// Package typegraph implements the weighted type-level multigraph the pattern
// analyzer and replicator operate on, together with the spectral and
// centrality computations over it.
//
// The container is an explicit adjacency structure rather than a library
// graph type because parallel edges with distinct relationship kinds must be
// retained; gonum handles the numerics (Laplacian eigenvalues, betweenness)
// over projections of it.
package typegraph

import (
	"sort"
	"strconv"
	"strings"
)

// EdgeKey identifies an ordered pair of type nodes.
type EdgeKey struct {
	Source string
	Target string
}

// EdgeRecord is one relationship kind observed between an ordered pair of
// types. Frequency is always >= 1.
type EdgeRecord struct {
	Kind      string
	Frequency int
}

// Graph is a directed multigraph over resource type names. A node's count is
// the sum of frequencies of all edges incident to it, double-counted across
// direction, which matches how it is accumulated during aggregation.
type Graph struct {
	nodes map[string]int
	edges map[EdgeKey][]EdgeRecord
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]int),
		edges: make(map[EdgeKey][]EdgeRecord),
	}
}

// AddNode ensures name is present. Existing counts are preserved.
func (g *Graph) AddNode(name string) {
	if _, ok := g.nodes[name]; !ok {
		g.nodes[name] = 0
	}
}

// AddEdge records frequency observations of kind between source and target,
// incrementing both endpoint counts. A repeated (source, target, kind) triple
// merges into the existing record; a new kind becomes a parallel edge.
func (g *Graph) AddEdge(source, target, kind string, frequency int) {
	if frequency < 1 {
		return
	}
	g.nodes[source] += frequency
	g.nodes[target] += frequency

	key := EdgeKey{Source: source, Target: target}
	for i, rec := range g.edges[key] {
		if rec.Kind == kind {
			g.edges[key][i].Frequency += frequency
			return
		}
	}
	g.edges[key] = append(g.edges[key], EdgeRecord{Kind: kind, Frequency: frequency})
}

func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// NodeCount returns the accumulated endpoint count for name (0 if absent).
func (g *Graph) NodeCount(name string) int {
	return g.nodes[name]
}

// Order returns the number of nodes.
func (g *Graph) Order() int {
	return len(g.nodes)
}

// Types returns all node names in sorted order.
func (g *Graph) Types() []string {
	out := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EdgeKeys returns all ordered pairs with at least one edge, sorted.
func (g *Graph) EdgeKeys() []EdgeKey {
	out := make([]EdgeKey, 0, len(g.edges))
	for key := range g.edges {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// Edges returns the parallel edge records from source to target, sorted by
// kind. Nil when no such edge exists.
func (g *Graph) Edges(source, target string) []EdgeRecord {
	recs := g.edges[EdgeKey{Source: source, Target: target}]
	if len(recs) == 0 {
		return nil
	}
	out := make([]EdgeRecord, len(recs))
	copy(out, recs)
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// EdgeFrequency sums the frequencies of all parallel edges from source to
// target (directed; the reverse direction is a separate lookup).
func (g *Graph) EdgeFrequency(source, target string) int {
	total := 0
	for _, rec := range g.edges[EdgeKey{Source: source, Target: target}] {
		total += rec.Frequency
	}
	return total
}

// EdgeRecordCount returns the number of edge records (parallel edges counted
// individually).
func (g *Graph) EdgeRecordCount() int {
	n := 0
	for _, recs := range g.edges {
		n += len(recs)
	}
	return n
}

// TotalFrequency sums frequency over every edge record.
func (g *Graph) TotalFrequency() int {
	total := 0
	for _, recs := range g.edges {
		for _, rec := range recs {
			total += rec.Frequency
		}
	}
	return total
}

// Degrees returns the in-degree and out-degree of name, counting parallel
// edge records individually.
func (g *Graph) Degrees(name string) (in, out int) {
	for key, recs := range g.edges {
		if key.Target == name {
			in += len(recs)
		}
		if key.Source == name {
			out += len(recs)
		}
	}
	return in, out
}

// Neighbors returns the sorted set of nodes directly connected to name in
// either direction.
func (g *Graph) Neighbors(name string) []string {
	seen := make(map[string]struct{})
	for key := range g.edges {
		if key.Source == name && key.Target != name {
			seen[key.Target] = struct{}{}
		}
		if key.Target == name && key.Source != name {
			seen[key.Source] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Fingerprint returns a canonical string representation: two graphs have
// equal fingerprints iff they have identical nodes, counts and edge records.
// Used as a memoization key by the selection engine.
func (g *Graph) Fingerprint() string {
	var b strings.Builder
	for _, name := range g.Types() {
		b.WriteString("n|")
		b.WriteString(name)
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(g.nodes[name]))
		b.WriteByte(';')
	}
	for _, key := range g.EdgeKeys() {
		for _, rec := range g.Edges(key.Source, key.Target) {
			b.WriteString("e|")
			b.WriteString(key.Source)
			b.WriteByte('|')
			b.WriteString(key.Target)
			b.WriteByte('|')
			b.WriteString(rec.Kind)
			b.WriteByte('|')
			b.WriteString(strconv.Itoa(rec.Frequency))
			b.WriteByte(';')
		}
	}
	return b.String()
}
