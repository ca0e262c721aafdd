package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faithatlas/internal/app"
)

func newServeCmd(e *env) *cobra.Command {
	var (
		port  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reference site over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				e.cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, mem, closeStore, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			renderer, err := e.renderer()
			if err != nil {
				return err
			}
			handler := app.NewServer(st, renderer, e.logger)

			if watch {
				switch {
				case mem == nil:
					e.logger.Warn("--watch ignored: pages are served from the database")
				case e.cfg.ContentDir == "":
					e.logger.Warn("--watch ignored: no --content directory to watch")
				default:
					go func() {
						reload := func() error {
							catalog, err := e.loadCatalog()
							if err != nil {
								return err
							}
							mem.Replace(catalog)
							handler.Invalidate()
							return nil
						}
						if err := app.Watch(ctx, e.cfg.ContentDir, reload, e.logger); err != nil {
							e.logger.Error("watch content", zap.Error(err))
						}
					}()
				}
			}

			srv := &http.Server{
				Addr:         ":" + e.cfg.Port,
				Handler:      handler,
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				e.logger.Info("faithatlas listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				e.logger.Warn("graceful shutdown failed", zap.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8080", "port to listen on")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload pages when files in --content change")
	return cmd
}
