// Package main implements the contextmem daemon CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextmem/internal/config"
	"github.com/fyrsmithlabs/contextmem/internal/embeddings"
	httpserver "github.com/fyrsmithlabs/contextmem/internal/http"
	"github.com/fyrsmithlabs/contextmem/internal/logging"
	"github.com/fyrsmithlabs/contextmem/internal/manager"
	"github.com/fyrsmithlabs/contextmem/internal/memory"
	"github.com/fyrsmithlabs/contextmem/internal/tokens"
	"github.com/fyrsmithlabs/contextmem/internal/vectorindex"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "contextmem",
	Short:   "Tiered context memory service",
	Long:    `contextmem stores text context in three retention tiers, embeds it for semantic retrieval, and serves token-budgeted similarity search over HTTP.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the contextmem version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "contextmem", version)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the contextmem HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stdout sync failure is unactionable

	embedder, err := embeddings.NewProvider(cfg.Embedding, logger)
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}
	defer embedder.Close() //nolint:errcheck

	factory, err := vectorindex.NewFactory(cfg.Index, cfg.Embedding.Dimension, logger)
	if err != nil {
		return fmt.Errorf("creating index factory: %w", err)
	}

	tiers, err := memory.NewTierManager([]memory.LevelConfig{
		{Level: memory.LevelImmediate, Capacity: cfg.Memory.Immediate.Capacity, TTL: cfg.Memory.Immediate.TTL.Duration()},
		{Level: memory.LevelShortTerm, Capacity: cfg.Memory.ShortTerm.Capacity, TTL: cfg.Memory.ShortTerm.TTL.Duration()},
		{Level: memory.LevelLongTerm, Capacity: cfg.Memory.LongTerm.Capacity, TTL: cfg.Memory.LongTerm.TTL.Duration()},
	}, factory, logger)
	if err != nil {
		return fmt.Errorf("creating tier manager: %w", err)
	}

	counter := tokens.NewCounter(cfg.Tokens.Encoding, cfg.Tokens.CharsPerToken)

	mgr, err := manager.New(tiers, embedder, counter, cfg.Memory.SearchK, logger)
	if err != nil {
		return fmt.Errorf("creating context manager: %w", err)
	}

	server, err := httpserver.NewServer(mgr, logger, cfg.Server)
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := memory.NewSweeper(tiers, cfg.Memory.SweepInterval.Duration(), logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
