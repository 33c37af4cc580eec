// Package main wires together the catalog service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kelarsco/sneaklink-sub001/internal/api"
	"github.com/kelarsco/sneaklink-sub001/internal/cache"
	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
	"github.com/kelarsco/sneaklink-sub001/internal/clock/system"
	"github.com/kelarsco/sneaklink-sub001/internal/config"
	"github.com/kelarsco/sneaklink-sub001/internal/dedup"
	"github.com/kelarsco/sneaklink-sub001/internal/fetch"
	"github.com/kelarsco/sneaklink-sub001/internal/logging"
	"github.com/kelarsco/sneaklink-sub001/internal/metrics"
	"github.com/kelarsco/sneaklink-sub001/internal/notify"
	"github.com/kelarsco/sneaklink-sub001/internal/pipeline"
	"github.com/kelarsco/sneaklink-sub001/internal/probe"
	queuememory "github.com/kelarsco/sneaklink-sub001/internal/queue/memory"
	"github.com/kelarsco/sneaklink-sub001/internal/snapshot"
	storememory "github.com/kelarsco/sneaklink-sub001/internal/storage/memory"
	"github.com/kelarsco/sneaklink-sub001/internal/storage/postgres"
	"github.com/kelarsco/sneaklink-sub001/internal/verifier"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()
	clock := system.New()

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		logger.Fatal("repository init failed", zap.Error(err))
	}
	defer closeRepo()

	verdictCache, closeCache, err := newCache(ctx, cfg, clock)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	defer closeCache()

	snapshots, closeSnapshots, err := newSnapshotStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("snapshot store init failed", zap.Error(err))
	}
	defer closeSnapshots()

	publisher, closePublisher, err := newPublisher(ctx, cfg)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}
	defer closePublisher()

	fetcher := fetch.New(fetch.Config{
		UserAgent: cfg.Pipeline.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})
	verify := verifier.New(fetcher, verifier.Config{StepTimeout: cfg.VerifyStepTimeout()}, logger.Named("verifier"))
	prober := probe.New(fetcher, probe.Config{Timeout: cfg.FetchTimeout()}, logger.Named("probe"))
	dd := dedup.New(repo, logger.Named("dedup"))
	queue := queuememory.NewQueue(cfg.Pipeline.QueueDepth)

	workerCfg := pipeline.Config{
		DeadAfterProbes:     cfg.Pipeline.DeadAfterProbes,
		InactiveAfterMisses: cfg.Pipeline.InactiveAfterMisses,
		FetchTimeout:        cfg.FetchTimeout(),
		CacheTTL:            cfg.CacheTTL(),
		SnapshotPrefix:      cfg.Snapshot.Prefix,
		SnapshotContentType: cfg.Snapshot.ContentType,
		ConfirmedTopic:      cfg.PubSub.Topic,
	}

	var wg sync.WaitGroup
	for i := 0; i < cfg.Pipeline.Workers; i++ {
		w := pipeline.New(
			queue,
			repo,
			dd,
			verify,
			prober,
			fetcher,
			verdictCache,
			snapshots,
			publisher,
			clock,
			workerCfg,
			logger.Named("worker").With(zap.Int("index", i)),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	rechecker := pipeline.NewRechecker(repo, verify, prober, clock, pipeline.RecheckConfig{
		Interval:            cfg.RecheckInterval(),
		Batch:               cfg.Pipeline.RecheckBatch,
		OlderThan:           cfg.RecheckAfter(),
		DeadAfterProbes:     cfg.Pipeline.DeadAfterProbes,
		InactiveAfterMisses: cfg.Pipeline.InactiveAfterMisses,
	}, logger.Named("recheck"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		rechecker.Run(ctx)
	}()

	apiServer := api.NewServer(repo, queue, clock, cfg, logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	queue.Close()
	wg.Wait()
	logger.Info("shutdown complete")
}

func newRepository(ctx context.Context, cfg config.Config) (catalog.StoreRepository, func(), error) {
	switch cfg.DB.Provider {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: int32(cfg.DB.MaxOpenConns),
			MinConns: int32(cfg.DB.MinOpenConns),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		return store, store.Close, nil
	default:
		return storememory.NewStore(), func() {}, nil
	}
}

func newCache(ctx context.Context, cfg config.Config, clock catalog.Clock) (catalog.Cache, func(), error) {
	switch cfg.Cache.Provider {
	case "redis":
		client, err := cache.DialRedis(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		redisCache := cache.NewRedis(client, cfg.Cache.Prefix)
		return redisCache, func() {
			if err := redisCache.Close(); err != nil {
				zap.L().Warn("redis close failed", zap.Error(err))
			}
		}, nil
	default:
		return cache.NewMemory(clock), func() {}, nil
	}
}

func newSnapshotStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (catalog.SnapshotStore, func(), error) {
	switch cfg.Snapshot.Provider {
	case "gcs":
		gcs, err := snapshot.NewGCS(ctx, cfg.Snapshot.GCSBucket, logger.Named("snapshot"))
		if err != nil {
			return nil, nil, fmt.Errorf("gcs snapshots: %w", err)
		}
		return gcs, func() {
			if err := gcs.Close(); err != nil {
				zap.L().Warn("gcs close failed", zap.Error(err))
			}
		}, nil
	case "local":
		local, err := snapshot.NewLocal(cfg.Snapshot.BaseDir)
		if err != nil {
			return nil, nil, fmt.Errorf("local snapshots: %w", err)
		}
		return local, func() {}, nil
	default:
		return snapshot.Noop{}, func() {}, nil
	}
}

func newPublisher(ctx context.Context, cfg config.Config) (catalog.Publisher, func(), error) {
	if !cfg.PubSub.Enabled {
		return notify.Noop{}, func() {}, nil
	}
	ps, err := notify.NewPubSub(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub publisher: %w", err)
	}
	return ps, func() {
		if err := ps.Close(); err != nil {
			zap.L().Warn("pubsub close failed", zap.Error(err))
		}
	}, nil
}
