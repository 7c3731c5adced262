package typegraph

import "testing"

func TestAddEdgeAccumulatesNodeCounts(t *testing.T) {
	g := New()
	g.AddEdge("virtualMachines", "disks", "ATTACHED_TO", 10)
	g.AddEdge("virtualMachines", "networkInterfaces", "USES", 5)

	if got := g.NodeCount("virtualMachines"); got != 15 {
		t.Errorf("virtualMachines count = %d, want 15", got)
	}
	if got := g.NodeCount("disks"); got != 10 {
		t.Errorf("disks count = %d, want 10", got)
	}
	if got := g.NodeCount("networkInterfaces"); got != 5 {
		t.Errorf("networkInterfaces count = %d, want 5", got)
	}
}

func TestParallelEdgesRetained(t *testing.T) {
	g := New()
	g.AddEdge("sites", "storageAccounts", "READS", 3)
	g.AddEdge("sites", "storageAccounts", "WRITES", 2)

	recs := g.Edges("sites", "storageAccounts")
	if len(recs) != 2 {
		t.Fatalf("parallel edges = %d, want 2", len(recs))
	}
	if g.EdgeFrequency("sites", "storageAccounts") != 5 {
		t.Errorf("summed frequency = %d, want 5", g.EdgeFrequency("sites", "storageAccounts"))
	}
	// Reverse direction is a separate edge set.
	if g.EdgeFrequency("storageAccounts", "sites") != 0 {
		t.Errorf("reverse frequency should be 0")
	}
}

func TestSameKindMerges(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", "CONNECTS", 2)
	g.AddEdge("a", "b", "CONNECTS", 3)

	recs := g.Edges("a", "b")
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].Frequency != 5 {
		t.Errorf("merged frequency = %d, want 5", recs[0].Frequency)
	}
}

func TestAddNodePreservesCount(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", "X", 4)
	g.AddNode("a")
	if g.NodeCount("a") != 4 {
		t.Errorf("AddNode reset count: got %d, want 4", g.NodeCount("a"))
	}
	g.AddNode("isolated")
	if !g.HasNode("isolated") || g.NodeCount("isolated") != 0 {
		t.Error("isolated node should exist with count 0")
	}
}

func TestDegreesCountParallelEdges(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", "X", 1)
	g.AddEdge("a", "b", "Y", 1)
	g.AddEdge("c", "a", "Z", 1)

	in, out := g.Degrees("a")
	if in != 1 || out != 2 {
		t.Errorf("degrees(a) = (%d, %d), want (1, 2)", in, out)
	}
}

func TestNeighborsBothDirections(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", "X", 1)
	g.AddEdge("c", "a", "Y", 1)

	got := g.Neighbors("a")
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("Neighbors(a) = %v, want [b c]", got)
	}
}

func TestFingerprintDistinguishesGraphs(t *testing.T) {
	a := New()
	a.AddEdge("x", "y", "R", 2)
	b := New()
	b.AddEdge("x", "y", "R", 2)
	c := New()
	c.AddEdge("x", "y", "R", 3)

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical graphs should share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different frequencies should change the fingerprint")
	}
}

func TestExportRoundTrip(t *testing.T) {
	g := New()
	g.AddEdge("virtualMachines", "disks", "ATTACHED_TO", 7)
	g.AddNode("orphanType")

	doc := Export(g)
	if doc.Summary.NodeCount != 3 || doc.Summary.EdgeCount != 1 || doc.Summary.TotalFrequency != 7 {
		t.Errorf("summary = %+v", doc.Summary)
	}

	back := FromExport(doc)
	if back.Fingerprint() != g.Fingerprint() {
		t.Error("export round trip changed the graph")
	}
}
