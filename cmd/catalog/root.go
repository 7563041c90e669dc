package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/narwhalmedia/fantasycards/internal/container"
	"github.com/narwhalmedia/fantasycards/pkg/config"
	"github.com/narwhalmedia/fantasycards/pkg/logger"
)

const serviceName = "fantasycards"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Fantasy movie, TV and book catalog service",
		Long: `Catalog aggregates fantasy movies and TV series from TMDB and fantasy books
from Open Library into browsable, filterable catalogs.

It serves the catalog over HTTP and can warm caches, search and generate
the site's sitemap from the command line.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (yaml or json)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	cmd.AddCommand(
		newServeCmd(opts),
		newWarmCmd(opts),
		newSearchCmd(opts),
		newSitemapCmd(opts),
	)

	return cmd
}

// load reads configuration and builds the logger.
func (o *rootOptions) load() (*config.CatalogConfig, *logger.ZapLogger, error) {
	var paths []string
	if o.configPath != "" {
		if _, err := os.Stat(o.configPath); err != nil {
			return nil, nil, fmt.Errorf("config file: %w", err)
		}
		paths = append(paths, o.configPath)
	}

	cfg, err := config.LoadCatalogConfig(serviceName, paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logger.Level = o.logLevel
	}

	log, err := logger.NewFromConfig(cfg.Logger.ToLoggerConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

// bootstrap loads configuration and wires the catalog.
func (o *rootOptions) bootstrap() (*container.CatalogContainer, func(), error) {
	cfg, log, err := o.load()
	if err != nil {
		return nil, nil, err
	}

	c, cleanup, err := container.InitializeCatalog(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	return c, func() {
		cleanup()
		_ = log.Sync()
	}, nil
}
