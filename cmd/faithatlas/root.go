package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faithatlas/internal/app"
	"faithatlas/internal/content"
	"faithatlas/internal/render"
	"faithatlas/internal/store"
)

// env holds what every subcommand needs once flags and environment are
// resolved.
type env struct {
	cfg    app.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	var (
		contentDir string
		logLevel   string
		siteTitle  string
	)

	root := &cobra.Command{
		Use:           "faithatlas",
		Short:         "Faith Atlas: a reference site of religious traditions, texts and art",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			flags := cmd.Flags()
			if flags.Changed("content") {
				cfg.ContentDir = contentDir
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("site-title") {
				cfg.SiteTitle = siteTitle
			}

			logger, err := app.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&contentDir, "content", "", "directory of page files (default: embedded corpus)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&siteTitle, "site-title", "", "site title shown in every page header")

	root.AddCommand(
		newServeCmd(e),
		newBuildCmd(e),
		newCheckCmd(e),
		newSeedCmd(e),
		newConstellationCmd(e),
	)
	return root
}

func (e *env) renderer() (*render.Renderer, error) {
	return render.New(render.Options{SiteTitle: e.cfg.SiteTitle, BasePath: e.cfg.BasePath})
}

// openStore returns the SQL store when a database is configured and the
// in-memory catalog otherwise. The memory store is nil in the SQL case.
func (e *env) openStore(ctx context.Context) (store.Store, *store.Memory, func(), error) {
	if e.cfg.DSN != "" {
		st, db, err := app.OpenSQLStore(ctx, e.cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		e.logger.Info("serving pages from database", zap.String("dialect", string(e.cfg.Dialect)))
		return st, nil, func() { db.Close() }, nil
	}

	catalog, err := e.loadCatalog()
	if err != nil {
		return nil, nil, nil, err
	}
	mem := store.NewMemory(catalog)
	return mem, mem, func() {}, nil
}

func (e *env) loadCatalog() (*content.Catalog, error) {
	catalog, err := app.LoadCatalog(e.cfg.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	source := e.cfg.ContentDir
	if source == "" {
		source = "embedded"
	}
	e.logger.Info("content loaded", zap.String("source", source), zap.Int("pages", catalog.Len()))
	return catalog, nil
}
