package cmd

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/localsearch/simulator/internal/catalog"
	"github.com/localsearch/simulator/internal/docstore"
	"github.com/localsearch/simulator/internal/engine"
	"github.com/localsearch/simulator/internal/filedatasource"
	"github.com/localsearch/simulator/internal/httpapi"
	"github.com/localsearch/simulator/internal/indexerrun"
	"github.com/localsearch/simulator/internal/localembed"
	"github.com/localsearch/simulator/internal/simconfig"
	"github.com/localsearch/simulator/internal/simlog"
	"github.com/localsearch/simulator/internal/skillpipeline"
	"github.com/localsearch/simulator/internal/vectorindex"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the simulator's HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runServe(dataDir, configDir, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}

func runServe(dataDir, configDir, addr string) error {
	cfg, err := simconfig.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, cleanup, err := simlog.Setup(simlog.DefaultConfig(filepath.Join(dataDir, "simulator.log")))
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer cleanup()

	cat := catalog.New(dataDir)
	if err := cat.Load(); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	docs := docstore.NewStore(dataDir)
	defer docs.Close()

	vectors := vectorindex.NewEngine()

	embedder := localembed.NewCached(localembed.New(cfg.LocalEmbedding), localembed.DefaultCacheSize)

	eng := engine.New(dataDir, cat, docs, vectors, embedder)
	defer eng.Close()

	for _, idx := range cat.ListIndexes() {
		if err := eng.ProvisionIndex(idx); err != nil {
			return fmt.Errorf("provisioning index %q: %w", idx.Name, err)
		}
	}

	pipeline := skillpipeline.NewRunner(skillpipeline.Dependencies{
		Embedding: skillpipeline.NewEmbeddingExecutor(embedder),
	})

	runner := indexerrun.NewRunner(dataDir, indexerrun.Dependencies{
		DataSource: &filedatasource.Dispatcher{Catalog: cat},
		DocStore:   eng,
		Pipeline:   pipeline,
		IndexExists: func(name string) bool {
			_, ok := cat.GetIndex(name)
			return ok
		},
	})

	server := httpapi.NewServer(cat, eng, runner, cfg, logger)

	logger.Info("simulator listening", "addr", addr, "dataDir", dataDir)
	return http.ListenAndServe(addr, server.Routes())
}
