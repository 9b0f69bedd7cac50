// Package cmd provides the CLI commands for the search service simulator.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/localsearch/simulator/pkg/version"
)

// NewRootCmd creates the root command for the simulator CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "simulator",
		Short:   "Local simulator of a managed cloud search service",
		Long:    `simulator runs a local, API-compatible stand-in for a managed cloud search service: inverted-index text search, HNSW vector search, hybrid fusion, scoring profiles, and a pull-based indexer pipeline, all served over HTTP and persisted to a local data directory.`,
		Version: version.Version,
	}

	cmd.PersistentFlags().String("data-dir", "./data", "root directory for persisted indexes, catalog, and logs")
	cmd.PersistentFlags().String("config-dir", ".", "directory to look for simulator.yaml in")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(version.Full())
			return nil
		},
	}
}
