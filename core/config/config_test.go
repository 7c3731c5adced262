package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.Store.Path != def.Store.Path {
		t.Errorf("store path = %q, want default %q", cfg.Store.Path, def.Store.Path)
	}
	if !cfg.Replication.IncludeOrphans {
		t.Error("include_orphans should default to true")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
store:
  path: /tmp/tenant.db
replication:
  target_instance_count: 12
  node_coverage_weight: 0.25
  proportional: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Path != "/tmp/tenant.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if cfg.Replication.TargetInstanceCount != 12 {
		t.Errorf("target = %d, want 12", cfg.Replication.TargetInstanceCount)
	}
	if cfg.Replication.NodeCoverageWeight == nil || *cfg.Replication.NodeCoverageWeight != 0.25 {
		t.Errorf("coverage weight = %v, want 0.25", cfg.Replication.NodeCoverageWeight)
	}
	if !cfg.Replication.Proportional {
		t.Error("proportional should be true")
	}
	// Untouched sections keep defaults.
	if cfg.Analysis.GraphExport != Default().Analysis.GraphExport {
		t.Errorf("graph export = %q, want default", cfg.Analysis.GraphExport)
	}
}

func TestLoadUnsetWeightStaysNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("replication:\n  target_instance_count: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Replication.NodeCoverageWeight != nil {
		t.Errorf("weight should stay nil when unset, got %v", *cfg.Replication.NodeCoverageWeight)
	}
}
