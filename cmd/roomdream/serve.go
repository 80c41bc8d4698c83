package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/basel-ax/roomdream/internal/handler"
	"github.com/basel-ax/roomdream/internal/infrastructure/objectstore"
	"github.com/basel-ax/roomdream/internal/infrastructure/replicate"
	"github.com/basel-ax/roomdream/internal/metrics"
	"github.com/basel-ax/roomdream/internal/repository"
	"github.com/basel-ax/roomdream/internal/server"
	"github.com/basel-ax/roomdream/internal/service"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Initializing database connection...")
	db, err := repository.OpenDB(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if !skipMigrations {
		if err := repository.RunMigrations(ctx, db, log); err != nil {
			return err
		}
	}

	store, err := objectstore.New(ctx, cfg.S3, log)
	if err != nil {
		return err
	}
	if cfg.S3.CreateBucket {
		if err := store.EnsureBucket(ctx, cfg.S3.Region); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client, err := replicate.NewClient(replicate.Options{
		BaseURL:        cfg.Replicate.BaseURL,
		APIToken:       cfg.Replicate.APIToken,
		ModelVersion:   cfg.Replicate.ModelVersion,
		RequestTimeout: cfg.Replicate.RequestTimeout,
		MaxOutputBytes: cfg.Replicate.MaxOutputBytes,
	})
	if err != nil {
		return err
	}
	generator := service.NewImageGenerationService(client, cfg.Replicate, m, log)
	redesign := service.NewRedesignService(repository.NewPostgresPredictionRepository(db), store, generator, m, log)

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(handler.NewHandler(redesign, log), cfg.Auth, reg, log)
	srv := server.New(cfg, router, log)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	log.Info("Server exited")
	return nil
}
