package typegraph

import (
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// Betweenness computes undirected betweenness centrality for every node.
// Degenerate graphs (fewer than three nodes, no edges) and any failure inside
// the computation yield an all-zero map rather than an error; distribution
// scoring treats missing centrality as zero.
func Betweenness(g *Graph) map[string]float64 {
	out := make(map[string]float64, g.Order())
	for _, t := range g.Types() {
		out[t] = 0
	}
	if g.Order() < 3 || len(g.edges) == 0 {
		return out
	}

	scores := betweennessScores(g)
	for name, v := range scores {
		out[name] = v
	}
	return out
}

func betweennessScores(g *Graph) (scores map[string]float64) {
	defer func() {
		if r := recover(); r != nil {
			scores = nil
		}
	}()

	types := g.Types()
	index := make(map[string]int64, len(types))
	ug := simple.NewUndirectedGraph()
	for i, t := range types {
		id := int64(i)
		index[t] = id
		ug.AddNode(simple.Node(id))
	}
	for _, key := range g.EdgeKeys() {
		if key.Source == key.Target {
			continue
		}
		ug.SetEdge(simple.Edge{
			F: simple.Node(index[key.Source]),
			T: simple.Node(index[key.Target]),
		})
	}

	raw := network.Betweenness(ug)
	scores = make(map[string]float64, len(raw))
	for i, t := range types {
		if v, ok := raw[int64(i)]; ok {
			scores[t] = v
		}
	}
	return scores
}
