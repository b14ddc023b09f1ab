package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "docproc/docs"
	"docproc/internal/chunking"
	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/engine"
	"docproc/internal/handler"
	"docproc/internal/logging"
	"docproc/internal/repository/sqlstore"
	"docproc/internal/router"
	"docproc/internal/service"
	s3storage "docproc/internal/storage/s3"
	"docproc/internal/worker"
)

// @title Document Processing API
// @version 1.0.0
// @description Document conversion and chunking service.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := worker.New(cfg.Worker.Concurrency, logger)

	// Engine: build the default configuration up front so /health reflects it.
	factory := engine.NewFactory(&cfg.Engine, &cfg.OCR, nil, logger)
	converter := service.NewConverter(factory, pool, cfg.Engine.MaxPooled, logger)
	if startup := converter.Initialize(ctx, false, nil); startup.Mode == service.InitFailed {
		logger.Error("Document engine initialization failed; service starts unhealthy", "error", startup.Err)
	} else {
		logger.Info("Document engine initialized", "mode", startup.Mode)
	}

	tokenizer := chunking.NewTiktokenTokenizer(cfg.Chunking.TokenizerModel)
	if err := tokenizer.Load(); err != nil {
		logger.Warn("Tokenizer unavailable; chunking requests will fail until it loads", "error", err)
	}

	// Optional conversion history
	var repoDB handler.Pinger
	historySvc := service.NewHistoryService(nil)
	if cfg.History.Enabled() {
		if cfg.History.AutoMigrate {
			if err := sqlstore.Migrate(&cfg.History); err != nil {
				return fmt.Errorf("failed to migrate history database: %w", err)
			}
		}
		db, err := sqlstore.NewDB(&cfg.History)
		if err != nil {
			return fmt.Errorf("failed to connect to history database: %w", err)
		}
		defer db.Close()
		repoDB = db
		historySvc = service.NewHistoryService(sqlstore.NewConversionRepo(db))
		logger.Info("Conversion history enabled", "driver", cfg.History.Driver)
	}

	// Optional result archive
	var archiveSvc service.ArchiveService
	if cfg.Archive.Enabled {
		store, err := s3storage.NewResultStore(ctx, &cfg.Archive)
		if err != nil {
			return fmt.Errorf("failed to initialize result store: %w", err)
		}
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := store.CheckBucket(checkCtx); err != nil {
			logger.Warn("Result archive bucket is not reachable yet", "error", err)
		}
		cancel()
		archiveSvc = service.NewArchiveService(store, &cfg.Archive)
		logger.Info("Result archive enabled", "bucket", cfg.Archive.Bucket)
	}

	uploadSvc, err := service.NewUploadService(&cfg.Upload)
	if err != nil {
		return fmt.Errorf("failed to prepare upload directory: %w", err)
	}
	chunkSvc := service.NewChunkService(tokenizer, pool)
	authSvc := service.NewAuthService(&cfg.Auth)
	conversionSvc := service.NewConversionService(uploadSvc, converter, chunkSvc, historySvc, archiveSvc)

	defaultStrategy, err := domain.ParseChunkStrategy(cfg.Chunking.DefaultStrategy, domain.ChunkHybrid)
	if err != nil {
		return fmt.Errorf("invalid chunking.default_strategy: %w", err)
	}

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	conversionH := handler.NewConversionHandler(conversionSvc, handler.ConversionDefaults{
		OCRLanguages:  cfg.OCR.DefaultLanguages,
		MaxTokens:     cfg.Chunking.MaxTokens,
		ChunkStrategy: defaultStrategy,
	})
	historyH := handler.NewHistoryHandler(historySvc)
	healthH := handler.NewHealthHandler(converter, repoDB, cfg.App, cfg.Server)

	// Setup router
	r := router.Setup(logger, router.Options{
		Debug:              cfg.Server.Debug,
		AllowedOrigins:     cfg.CORS.AllowedOrigins,
		MaxMultipartMemory: 32 << 20,
	}, authSvc, authH, conversionH, historyH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			"addr", cfg.Server.Port,
			"environment", cfg.Server.Environment,
			"debug", cfg.Server.Debug,
			"auth_disabled", authSvc.Disabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown incomplete", "error", err)
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Error("Worker pool shutdown incomplete", "error", err)
	}
	logger.Info("Server stopped")
	return nil
}
