package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/zweadfx/assist"
	httpadapter "github.com/zweadfx/assist/pkg/adapters/http"
	"github.com/zweadfx/assist/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Starts the assist engine in server mode, exposing the ask API and conversation management over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.ListenAddr, _ = cmd.Flags().GetString("addr")
		}

		logger := newLogger(cfg)

		observer := observability.NewObserver(prometheus.DefaultRegisterer)
		engine, err := buildEngine(cfg, logger, assist.WithLifecycleHooks(observer.Hooks()))
		if err != nil {
			fmt.Printf("Error initializing assist: %v\n", err)
			os.Exit(1)
		}

		server, err := httpadapter.NewServer(engine, httpadapter.WithLogger(logger))
		if err != nil {
			fmt.Printf("Error initializing HTTP server: %v\n", err)
			os.Exit(1)
		}

		srv := &http.Server{
			Addr:    cfg.Server.ListenAddr,
			Handler: server.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting assist server", "addr", srv.Addr, "corpus", cfg.CorpusDir)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			logger.Error("server error", "err", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("assist server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides config)")
}
