package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/config"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/patterns"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/replicator"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/typegraph"
)

var (
	analyzeStorePath    string
	analyzeTypeFilters  []string
	analyzeGraphExport  string
	analyzeOrphanReport string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the source graph and export pattern and orphan reports",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeStorePath, "store", "", "path to the graph store database")
	analyzeCmd.Flags().StringSliceVar(&analyzeTypeFilters, "types", nil, "glob patterns limiting reported types")
	analyzeCmd.Flags().StringVar(&analyzeGraphExport, "graph-export", "", "graph export output path")
	analyzeCmd.Flags().StringVar(&analyzeOrphanReport, "orphan-report", "", "orphan report output path")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if analyzeStorePath != "" {
		cfg.Store.Path = analyzeStorePath
	}
	if len(analyzeTypeFilters) > 0 {
		cfg.Analysis.TypeFilters = analyzeTypeFilters
	}
	if analyzeGraphExport != "" {
		cfg.Analysis.GraphExport = analyzeGraphExport
	}
	if analyzeOrphanReport != "" {
		cfg.Analysis.OrphanReport = analyzeOrphanReport
	}

	logger := slog.Default()
	store, err := graphstore.OpenSQLite(cfg.Store.Path, graphstore.DefaultSQLiteConfig(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	analysis, err := patterns.NewAnalyzer(store, logger).Analyze(cmd.Context())
	if err != nil {
		return err
	}

	doc := typegraph.Export(analysis.Graph)
	if len(cfg.Analysis.TypeFilters) > 0 {
		doc, err = filterExport(doc, cfg.Analysis.TypeFilters)
		if err != nil {
			return err
		}
	}
	if err := writeJSON(cfg.Analysis.GraphExport, doc); err != nil {
		return err
	}

	orphanInstances, _, err := replicator.NewOrphanHandler(store, logger).
		FindOrphanedNodeInstances(cmd.Context(), analysis.Detected)
	if err != nil {
		return err
	}
	report := patterns.NewOrphanReport(analysis.Orphaned, replicator.SuggestedGroups(orphanInstances))
	if err := writeJSON(cfg.Analysis.OrphanReport, report); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "analyzed %d types, %d patterns detected, %d orphaned types\n",
		analysis.Graph.Order(), len(analysis.Detected), len(analysis.Orphaned))

	distribution, err := architectureDistribution(cmd.Context(), store, logger, analysis)
	if err != nil {
		return err
	}
	for _, d := range distribution {
		fmt.Fprintf(cmd.OutOrStdout(), "  %2d. %-32s score %5.1f (%d instances, %d resources)\n",
			d.Rank, d.Pattern, d.Score, d.Instances, d.Resources)
	}
	return nil
}

// architectureDistribution locates instances for every detected pattern and
// scores each pattern's share of the source architecture.
func architectureDistribution(ctx context.Context, store graphstore.Gateway, logger *slog.Logger, analysis *patterns.Analysis) ([]patterns.DistributionScore, error) {
	matchedTypes := make(map[string][]string, len(analysis.Detected))
	for _, p := range analysis.Detected {
		matchedTypes[p.Name] = p.MatchedResources
	}
	instances, err := replicator.NewLocator(store, logger).LocateAll(ctx, matchedTypes)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]patterns.InstanceStats, len(instances))
	for name, group := range instances {
		resources := 0
		for _, in := range group {
			resources += len(in.Resources)
		}
		stats[name] = patterns.InstanceStats{Instances: len(group), Resources: resources}
	}
	return patterns.ComputeArchitectureDistribution(stats, analysis.Graph), nil
}

// filterExport keeps only nodes whose label matches one of the glob
// patterns, and edges between kept nodes.
func filterExport(doc *typegraph.ExportDoc, filters []string) (*typegraph.ExportDoc, error) {
	globs := make([]glob.Glob, 0, len(filters))
	for _, f := range filters {
		g, err := glob.Compile(f)
		if err != nil {
			return nil, fmt.Errorf("invalid type filter %q: %w", f, err)
		}
		globs = append(globs, g)
	}
	match := func(label string) bool {
		for _, g := range globs {
			if g.Match(label) {
				return true
			}
		}
		return false
	}

	kept := make(map[string]struct{})
	out := &typegraph.ExportDoc{}
	for _, n := range doc.Nodes {
		if match(n.Label) {
			out.Nodes = append(out.Nodes, n)
			kept[n.ID] = struct{}{}
		}
	}
	for _, e := range doc.Edges {
		_, srcOK := kept[e.Source]
		_, dstOK := kept[e.Target]
		if srcOK && dstOK {
			out.Edges = append(out.Edges, e)
			out.Summary.TotalFrequency += e.Frequency
		}
	}
	out.Summary.NodeCount = len(out.Nodes)
	out.Summary.EdgeCount = len(out.Edges)
	return out, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
