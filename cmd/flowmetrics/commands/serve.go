package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	v1 "flowmetrics/internal/infrastructure/http/v1"
	"flowmetrics/internal/infrastructure/http/v1/handlers"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			var db handlers.Pinger
			if a.pool != nil {
				db = a.pool
			}

			router := v1.NewRouter(v1.RouterConfig{
				Service:       a.service,
				FieldRegistry: a.fields,
				DB:            db,
				Logger:        a.log,
				AuthSecret:    a.cfg.Server.AuthSecret,
			})

			server := &http.Server{
				Addr:         a.cfg.Server.Addr,
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Infow("server starting", "addr", a.cfg.Server.Addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-quit:
			case <-ctx.Done():
			}

			a.log.Info("shutting down server...")

			// Give outstanding requests 30 seconds to complete
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}

			a.log.Info("server stopped")
			return nil
		},
	}
}
