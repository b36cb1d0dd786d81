package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/student-performance/internal/api"
	"github.com/baharkarakas/student-performance/internal/api/views"
	"github.com/baharkarakas/student-performance/internal/artifact"
	"github.com/baharkarakas/student-performance/internal/auth"
	"github.com/baharkarakas/student-performance/internal/config"
	"github.com/baharkarakas/student-performance/internal/db"
	"github.com/baharkarakas/student-performance/internal/features"
	"github.com/baharkarakas/student-performance/internal/logger"
	"github.com/baharkarakas/student-performance/internal/metrics"
	"github.com/baharkarakas/student-performance/internal/middleware"
	"github.com/baharkarakas/student-performance/internal/repository/postgres"
	"github.com/baharkarakas/student-performance/internal/services"
	"github.com/baharkarakas/student-performance/internal/session"
	"github.com/baharkarakas/student-performance/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		return err
	}
	set, err := features.Lookup(cfg.FeatureSet)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Migrate {
		if err := db.RunMigrations(ctx, pool, log); err != nil {
			return err
		}
	}

	store, err := newArtifactStore(ctx, cfg)
	if err != nil {
		return err
	}
	revoker, closeRevoker, err := newRevoker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRevoker()

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(cfg.TrainWorkers, 4*cfg.TrainWorkers)
	defer wp.Stop()
	metrics.Init(wp.Queued)

	rv, err := views.New()
	if err != nil {
		return err
	}

	datasets := services.NewDatasetService(repos.DataFiles, log)
	sm := auth.NewSessionManager(cfg.SessionSecret, "student-performance", cfg.SessionTTL)
	r := api.NewRouter(api.RouterDeps{
		Cfg:         cfg,
		Log:         log,
		Views:       rv,
		Sessions:    middleware.NewSessionAuth(sm, revoker, cfg.IsProd(), log),
		Users:       services.NewUserService(repos.Users, log),
		Datasets:    datasets,
		Training:    services.NewTrainingService(datasets, repos.TrainingRuns, store, wp, set, log),
		Predictions: services.NewPredictionService(store, log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("config",
		"env", cfg.Env,
		"feature_set", set.Name,
		"artifact_backend", cfg.ArtifactBackend,
		"train_workers", cfg.TrainWorkers,
		"redis", cfg.RedisURL != "",
	)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newArtifactStore(ctx context.Context, cfg config.Config) (artifact.Store, error) {
	if cfg.ArtifactBackend == "s3" {
		client, err := artifact.NewS3Client(ctx, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			return nil, err
		}
		return artifact.NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix), nil
	}
	return artifact.NewLocalStore(cfg.ArtifactDir)
}

func newRevoker(ctx context.Context, cfg config.Config, log *slog.Logger) (session.Revoker, func(), error) {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, session revocation is per process")
		return session.NewMemoryRevoker(), func() {}, nil
	}
	rdb, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisRevoker(rdb), func() { _ = rdb.Close() }, nil
}
