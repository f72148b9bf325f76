package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/logging"
	"github.com/Ramsey-B/fern/internal/middleware"
	characterrepo "github.com/Ramsey-B/fern/internal/repositories/character"
	elementrepo "github.com/Ramsey-B/fern/internal/repositories/element"
	graphcacherepo "github.com/Ramsey-B/fern/internal/repositories/graphcache"
	puzzlerepo "github.com/Ramsey-B/fern/internal/repositories/puzzle"
	relationshiprepo "github.com/Ramsey-B/fern/internal/repositories/relationship"
	synclogrepo "github.com/Ramsey-B/fern/internal/repositories/synclog"
	timelineeventrepo "github.com/Ramsey-B/fern/internal/repositories/timelineevent"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/derive"
	"github.com/Ramsey-B/fern/pkg/mapper"
	"github.com/Ramsey-B/fern/pkg/orchestrator"
	"github.com/Ramsey-B/fern/pkg/relationships"
	healthroute "github.com/Ramsey-B/fern/pkg/routes/health"
	syncroute "github.com/Ramsey-B/fern/pkg/routes/sync"
	"github.com/Ramsey-B/fern/pkg/source"
	"github.com/Ramsey-B/fern/pkg/syncer"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind config: %v\n", err)
		os.Exit(1)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	traceProvider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(traceProvider)
	tracing.SetTracer(traceProvider.Tracer(cfg.AppName))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = traceProvider.Shutdown(shutdownCtx)
	}()

	db, err := database.Open(database.OpenConfig{
		Path:            cfg.DatabasePath,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to open store")
		os.Exit(1)
	}
	defer db.Close()

	src, err := source.NewMongoSource(ctx, source.MongoConfig{
		URI:            cfg.SourceURI,
		Database:       cfg.SourceDatabase,
		ConnectTimeout: cfg.SourceConnectTimeout,
		FetchBatchSize: cfg.SyncBatchSize,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to source")
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = src.Close(closeCtx)
	}()

	characters := characterrepo.NewRepository(db, logger)
	events := timelineeventrepo.NewRepository(db, logger)
	elements := elementrepo.NewRepository(db, logger)
	puzzles := puzzlerepo.NewRepository(db, logger)
	rels := relationshiprepo.NewRepository(db, logger)
	logs := synclogrepo.NewRepository(db, logger)
	graphCache := graphcacherepo.NewRepository(db, logger)

	m := mapper.New(src)
	driver := syncer.NewDriver(db, logs, logger)
	relSyncer := relationships.NewSyncer(db, src, m, rels, characters, events, elements, puzzles, relationships.Weights{
		Event:   cfg.LinkEventWeight,
		Puzzle:  cfg.LinkPuzzleWeight,
		Element: cfg.LinkElementWeight,
	}, logger)
	computer := derive.NewComputer(db, characters, events, elements, puzzles, logger)
	invalidator := cache.NewInvalidator(graphCache, logger)

	orch := orchestrator.New(
		driver,
		syncer.NewCharacterSyncer(src, m, characters),
		syncer.NewTimelineEventSyncer(src, m, events),
		syncer.NewElementSyncer(src, m, elements),
		syncer.NewPuzzleSyncer(src, m, puzzles),
		relSyncer,
		computer,
		invalidator,
		logger,
	)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(middleware.Logger(logger))
	e.HTTPErrorHandler = middleware.Error(logger)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	checker := healthroute.NewChecker(db, src, version)
	checker.RegisterRoutes(e)

	syncHandler := syncroute.NewHandler(orch, logs, cfg.SyncContinueOnError, logger)
	syncHandler.Register(e.Group("/api/v1/sync"))

	// periodic janitor for stale cached graphs
	go func() {
		ticker := time.NewTicker(cfg.CacheMaxAge)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := invalidator.PurgeOlderThan(ctx, cfg.CacheMaxAge); err != nil {
					logger.WithContext(ctx).WithError(err).Warn("Cache purge failed")
				}
			}
		}
	}()

	go func() {
		checker.SetReady(true)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	checker.SetReady(false)
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down cleanly")
	}
}
