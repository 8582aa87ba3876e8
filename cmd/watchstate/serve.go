package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/ingestion"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/invalidation"
	"github.com/narwhalmedia/watchstate/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Recompute shows on catalog updates and expose metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	c := a.container
	log := c.Logger

	log.Info("starting service",
		logger.String("version", cfg.Service.Version),
		logger.String("environment", cfg.Service.Environment),
	)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, c.Metrics.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("starting metrics server", logger.Int("port", cfg.Metrics.Port))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", logger.Error(err))
			}
		}()
	}

	var runErr error
	if cfg.Ingestion.NATSURL == "" {
		log.Warn("ingestion.nats_url not set, catalog updates will not be consumed")
		<-ctx.Done()
	} else {
		conn, drain, err := invalidation.Connect(cfg.Ingestion.NATSURL, cfg.Service.Name+"-ingestion", log)
		if err != nil {
			runErr = err
		} else {
			listener := ingestion.NewListener(
				ingestion.NewNATSSubscriber(conn),
				cfg.Ingestion.Subject,
				cfg.Ingestion.Queue,
				c.Service,
				c.ForgetShow,
				log,
				cfg.Engine.TransactionTimeout,
			)
			runErr = listener.Start(ctx)
			drain()
		}
	}

	log.Info("shutting down service")
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown metrics server", logger.Error(err))
		}
	}
	return runErr
}
