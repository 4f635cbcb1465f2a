package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/docgraph/docgraph/internal/app"
	"github.com/docgraph/docgraph/internal/config"
	"github.com/docgraph/docgraph/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "indexer",
		Short: "Extract the PDFs, build the knowledge graph and the semantic index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			app.InitLogger(cfg)

			_, err = app.RunIndex(cmd.Context(), cfg)
			return err
		},
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Indexing failed", "err", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
}
