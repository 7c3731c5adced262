// Package config loads tool configuration from yaml with sane defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Store       StoreConfig       `yaml:"store"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Replication ReplicationConfig `yaml:"replication"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type AnalysisConfig struct {
	// TypeFilters are glob patterns restricting which simplified types are
	// reported; empty means everything.
	TypeFilters  []string `yaml:"type_filters"`
	GraphExport  string   `yaml:"graph_export"`
	OrphanReport string   `yaml:"orphan_report"`
}

type ReplicationConfig struct {
	TargetInstanceCount int `yaml:"target_instance_count"`
	// NodeCoverageWeight is a pointer so "unset" is distinguishable from
	// zero; when unset the CLI draws 0 or 1 at random and logs the choice.
	NodeCoverageWeight *float64 `yaml:"node_coverage_weight"`
	Proportional       bool     `yaml:"proportional"`
	ConfigCoherence    bool     `yaml:"config_coherence"`
	IncludeOrphans     bool     `yaml:"include_orphans"`
	PlanOutput         string   `yaml:"plan_output"`
}

func Default() *Config {
	return &Config{
		Store: StoreConfig{Path: "tenant-graph.db"},
		Analysis: AnalysisConfig{
			GraphExport:  "graph-export.json",
			OrphanReport: "orphan-report.json",
		},
		Replication: ReplicationConfig{
			IncludeOrphans: true,
			PlanOutput:     "replication-plan.json",
		},
	}
}

// Load reads the yaml file at path over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
