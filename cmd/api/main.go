package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/fraudwatch/internal/application"
	"github.com/bryanwahyu/fraudwatch/internal/application/actions"
	"github.com/bryanwahyu/fraudwatch/internal/application/agents"
	appai "github.com/bryanwahyu/fraudwatch/internal/application/ai"
	"github.com/bryanwahyu/fraudwatch/internal/config"
	domai "github.com/bryanwahyu/fraudwatch/internal/domain/ai"
	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
	openaic "github.com/bryanwahyu/fraudwatch/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/fraudwatch/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/fraudwatch/internal/infra/db/postgres"
	"github.com/bryanwahyu/fraudwatch/internal/infra/events"
	"github.com/bryanwahyu/fraudwatch/internal/infra/geoip"
	"github.com/bryanwahyu/fraudwatch/internal/infra/httpserver"
	"github.com/bryanwahyu/fraudwatch/internal/infra/notify"
	minioStore "github.com/bryanwahyu/fraudwatch/internal/infra/storage"
	"github.com/bryanwahyu/fraudwatch/internal/infra/vector/memory"
	qdrantStore "github.com/bryanwahyu/fraudwatch/internal/infra/vector/qdrant"
	"github.com/bryanwahyu/fraudwatch/internal/logger"
	"github.com/bryanwahyu/fraudwatch/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog := logger.New(cfg.Log)
	defer zlog.Sync()

	if err := run(cfg, path, zlog); err != nil {
		zlog.Errorw("fatal", "err", err)
		_ = zlog.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, path string, zlog *zap.SugaredLogger) error {
	ctx := context.Background()
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()
	health := map[string]middleware.HealthChecker{}

	// init LLM client + embedder
	var (
		llm      domai.Client
		embedder domai.Embedder = memory.HashEmbedder{Dim: int(cfg.Vector.Dimension)}
	)
	if cfg.OpenAI.APIKey != "" {
		oc := openaic.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.EmbeddingModel)
		oc.EmbedTimeout = cfg.Agents.CallTimeout
		llm, embedder = oc, oc
	} else {
		zlog.Warnw("openai api key not set, analyzer runs on fallback rules and local embeddings")
	}

	// init similarity store
	var store fraud.SimilarityStore
	switch cfg.Vector.Driver {
	case "qdrant":
		qs, err := qdrantStore.New(ctx, cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.APIKey, cfg.Vector.UseTLS,
			cfg.Vector.Collection, cfg.Vector.Dimension, embedder)
		if err != nil {
			return fmt.Errorf("qdrant init: %w", err)
		}
		closers = append(closers, func() { _ = qs.Close() })
		health["vector"] = middleware.PingChecker(qs.Ping)
		store = qs
	default:
		store = memory.New(embedder, cfg.Vector.Capacity)
	}

	// init archive
	var archive fraud.Archive
	if db, repo, err := openArchive(ctx, cfg); err != nil {
		return fmt.Errorf("archive init: %w", err)
	} else if db != nil {
		closers = append(closers, func() { _ = db.Close() })
		health["archive"] = middleware.PingChecker(repo.Ping)
		archive = repo
	}

	// init minio
	var reports fraud.ReportStore
	if cfg.Minio.Endpoint != "" {
		s, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		reports = s
	}

	// init notifier
	var notifier fraud.Notifier = notify.NewLog(zlog)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := notify.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
		if err != nil {
			return err
		}
		k := notify.NewKafka(producer, cfg.Kafka.Topic)
		closers = append(closers, func() { _ = k.Close() })
		notifier = k
	}

	// init analyzer
	analyzer := appai.NewService(llm, cfg.Risk.Rules(), zlog)
	analyzer.Timeout = cfg.Agents.CallTimeout
	if cfg.GeoIP.CityPath != "" {
		loc, err := geoip.Open(cfg.GeoIP.CityPath)
		if err != nil {
			zlog.Warnw("geoip disabled", "err", err)
		} else {
			closers = append(closers, func() { _ = loc.Close() })
			analyzer.Locator = loc
		}
	}

	// init actions
	registry := actions.NewRegistry(zlog)
	actions.RegisterBuiltins(registry, notifier)

	// init manager
	clock := application.SystemClock{}
	mgr := agents.NewManager(agents.Deps{
		Source:   events.NewGenerator(clock, seed(cfg.Agents.Seed)),
		Store:    store,
		Analyzer: analyzer,
		Actions:  registry,
		Archive:  archive,
		Reports:  reports,
		Notifier: notifier,
		Clock:    clock,
	}, agents.Options{
		Interval:     cfg.Agents.Interval,
		SimilarLimit: cfg.Agents.SimilarLimit,
		HistoryLimit: cfg.Agents.HistoryLimit,
		AlertLimit:   cfg.Agents.AlertLimit,
		Thresholds:   agents.Thresholds{Alert: cfg.Risk.AlertThreshold, Action: cfg.Risk.ActionThreshold},
	}, zlog)
	defer mgr.Shutdown()

	if !cfg.Agents.Demo.Disabled {
		demo, err := mgr.Create(cfg.Agents.Demo.Name, cfg.Agents.Demo.AccountIDs)
		if err != nil {
			return err
		}
		if cfg.Agents.Demo.AutoStart {
			_ = mgr.Start(demo.ID)
		}
	}

	// hot reload risk section
	watcher := config.NewWatcher(path, cfg.Risk, zlog)
	watcher.OnChange(func(r config.Risk) {
		analyzer.SetRules(r.Rules())
		mgr.SetThresholds(agents.Thresholds{Alert: r.AlertThreshold, Action: r.ActionThreshold})
	})
	if stop, err := watcher.Watch(); err != nil {
		zlog.Warnw("config hot reload disabled", "err", err)
	} else {
		closers = append(closers, stop)
	}

	// init router
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate)
	defer limiter.Close()
	handler := httpserver.NewRouter(mgr, httpserver.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		APIKeys:     cfg.Server.APIKeys,
		RateLimiter: limiter,
		Health:      health,
		Log:         zlog,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		zlog.Infow("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	zlog.Infow("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		zlog.Warnw("shutdown error", "err", err)
	}
	return nil
}

func openArchive(ctx context.Context, cfg *config.Config) (*sql.DB, fraud.Archive, error) {
	switch cfg.Archive.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		return db, mysqlp.NewArchiveRepository(db), nil
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		return db, postgresp.NewArchiveRepository(db), nil
	default:
		return nil, nil, nil
	}
}

func seed(s uint64) uint64 {
	if s != 0 {
		return s
	}
	return uint64(time.Now().UnixNano())
}
