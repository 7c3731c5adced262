package typegraph

// ExportNode is a JSON-serializable graph node.
type ExportNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ExportEdge is a JSON-serializable edge record.
type ExportEdge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship"`
	Frequency    int    `json:"frequency"`
}

// ExportSummary carries aggregate statistics for the exported graph.
type ExportSummary struct {
	NodeCount      int `json:"node_count"`
	EdgeCount      int `json:"edge_count"`
	TotalFrequency int `json:"total_frequency"`
}

// ExportDoc is the round-trippable JSON form of a Graph.
type ExportDoc struct {
	Nodes   []ExportNode  `json:"nodes"`
	Edges   []ExportEdge  `json:"edges"`
	Summary ExportSummary `json:"summary"`
}

// Export renders g as a deterministic JSON-serializable document.
func Export(g *Graph) *ExportDoc {
	doc := &ExportDoc{
		Nodes: make([]ExportNode, 0, g.Order()),
		Edges: make([]ExportEdge, 0, g.EdgeRecordCount()),
	}
	for _, name := range g.Types() {
		doc.Nodes = append(doc.Nodes, ExportNode{ID: name, Label: name, Count: g.NodeCount(name)})
	}
	for _, key := range g.EdgeKeys() {
		for _, rec := range g.Edges(key.Source, key.Target) {
			doc.Edges = append(doc.Edges, ExportEdge{
				Source:       key.Source,
				Target:       key.Target,
				Relationship: rec.Kind,
				Frequency:    rec.Frequency,
			})
		}
	}
	doc.Summary = ExportSummary{
		NodeCount:      g.Order(),
		EdgeCount:      g.EdgeRecordCount(),
		TotalFrequency: g.TotalFrequency(),
	}
	return doc
}

// FromExport rebuilds a Graph from its exported form. Node counts are
// restored from the document rather than re-accumulated, so isolated nodes
// round-trip intact.
func FromExport(doc *ExportDoc) *Graph {
	g := New()
	for _, e := range doc.Edges {
		g.AddEdge(e.Source, e.Target, e.Relationship, e.Frequency)
	}
	for _, n := range doc.Nodes {
		g.AddNode(n.ID)
		g.nodes[n.ID] = n.Count
	}
	return g
}
