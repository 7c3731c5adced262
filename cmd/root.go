package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tenantgraph",
	Short: "Tenant graph pattern analyzer and architecture-based replicator",
	Long: `tenantgraph analyzes a graph of cloud-resource relationships to detect
recurring architectural patterns, then selects a representative subset of
resource instances that approximates the source environment.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to yaml config file")
}

func Execute() error {
	return rootCmd.Execute()
}
