package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/balancelab/balance-core/internal/balanced"
	"github.com/balancelab/balance-core/pkg/logger"
)

// newServeCmd builds the daemon command exposing the HTTP API.
func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the optimization daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := v.GetString("http-addr")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store := balanced.NewRunStore()
			executor := balanced.NewRunExecutor(store)

			srv := &http.Server{
				Addr:              addr,
				Handler:           balanced.NewHTTPServer(store, executor).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				IdleTimeout:       120 * time.Second,
				MaxHeaderBytes:    1 << 20,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutdown requested")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP shutdown error", "error", err)
			}
			return nil
		},
	}

	cmd.Flags().String("http-addr", ":8080", "HTTP listen address")
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		panic(err)
	}
	return cmd
}
