package cmd

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/config"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/patterns"
	"github.com/rysweet/azure-tenant-grapher-sub006/core/replicator"
)

var (
	replicateStorePath      string
	replicateTargetCount    int
	replicateCoverageWeight float64
	replicateProportional   bool
	replicateCoherence      bool
	replicateNoOrphans      bool
	replicatePlanOutput     string
)

var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Generate a replication plan approximating the source architecture",
	RunE:  runReplicate,
}

func init() {
	replicateCmd.Flags().StringVar(&replicateStorePath, "store", "", "path to the graph store database")
	replicateCmd.Flags().IntVar(&replicateTargetCount, "target-count", 0, "target instance count (0 selects everything)")
	replicateCmd.Flags().Float64Var(&replicateCoverageWeight, "coverage-weight", -1, "node coverage weight in [0,1]; unset draws 0 or 1 at random")
	replicateCmd.Flags().BoolVar(&replicateProportional, "proportional", false, "use distribution-proportional selection")
	replicateCmd.Flags().BoolVar(&replicateCoherence, "config-coherence", false, "prefer configuration-coherent instances (proportional mode)")
	replicateCmd.Flags().BoolVar(&replicateNoOrphans, "no-orphans", false, "exclude orphan-derived candidates from the pool")
	replicateCmd.Flags().StringVar(&replicatePlanOutput, "output", "", "plan output path")
	rootCmd.AddCommand(replicateCmd)
}

func runReplicate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if replicateStorePath != "" {
		cfg.Store.Path = replicateStorePath
	}
	if replicateTargetCount > 0 {
		cfg.Replication.TargetInstanceCount = replicateTargetCount
	}
	if cmd.Flags().Changed("coverage-weight") {
		cfg.Replication.NodeCoverageWeight = &replicateCoverageWeight
	}
	if replicateProportional {
		cfg.Replication.Proportional = true
	}
	if replicateCoherence {
		cfg.Replication.ConfigCoherence = true
	}
	if replicateNoOrphans {
		cfg.Replication.IncludeOrphans = false
	}
	if replicatePlanOutput != "" {
		cfg.Replication.PlanOutput = replicatePlanOutput
	}

	logger := slog.Default()

	// The engine requires an explicit weight. An unset weight alternates
	// between pure-structural and pure-coverage exploration across runs;
	// the random draw lives here, outside the core, and is logged.
	weight := 0.0
	if cfg.Replication.NodeCoverageWeight != nil {
		weight = *cfg.Replication.NodeCoverageWeight
	} else {
		weight = float64(rand.Intn(2))
		logger.Info("node coverage weight unset, drew at random", "weight", weight)
	}

	store, err := graphstore.OpenSQLite(cfg.Store.Path, graphstore.DefaultSQLiteConfig(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	analysis, err := patterns.NewAnalyzer(store, logger).Analyze(ctx)
	if err != nil {
		return err
	}

	matchedTypes := make(map[string][]string, len(analysis.Detected))
	for _, p := range analysis.Detected {
		matchedTypes[p.Name] = p.MatchedResources
	}
	locator := replicator.NewLocator(store, logger)
	instances, err := locator.LocateAll(ctx, matchedTypes)
	if err != nil {
		return err
	}

	var orphanWarnings []replicator.Warning
	if cfg.Replication.IncludeOrphans {
		orphanInstances, warnings, err := replicator.NewOrphanHandler(store, logger).
			FindOrphanedNodeInstances(ctx, analysis.Detected)
		if err != nil {
			return err
		}
		orphanWarnings = warnings
		for _, in := range orphanInstances {
			instances[in.Pattern] = append(instances[in.Pattern], in)
		}
	}

	engine, err := replicator.NewEngine(store, analysis.Graph, analysis.Detected, instances,
		replicator.Options{
			TargetInstanceCount: cfg.Replication.TargetInstanceCount,
			NodeCoverageWeight:  weight,
			Proportional:        cfg.Replication.Proportional,
			ConfigCoherence:     cfg.Replication.ConfigCoherence,
		}, logger)
	if err != nil {
		return err
	}

	plan, err := engine.GenerateReplicationPlan(ctx)
	if err != nil {
		return err
	}
	plan.Warnings = append(plan.Warnings, orphanWarnings...)

	if err := writeJSON(cfg.Replication.PlanOutput, plan); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "selected %d/%d instances (%d resources), spectral distance %.4f, coverage %.1f%%\n",
		len(plan.Selected), plan.PoolSize, plan.SelectedResourceCount(),
		plan.FinalSpectralDistance, plan.FinalNodeCoverage*100)
	return nil
}
