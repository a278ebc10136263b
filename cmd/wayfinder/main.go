package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/wayfinder/internal/config"
	"github.com/kailas-cloud/wayfinder/internal/frameindex"
	logpkg "github.com/kailas-cloud/wayfinder/internal/logger"
	"github.com/kailas-cloud/wayfinder/internal/metrics"
	framesrepo "github.com/kailas-cloud/wayfinder/internal/repository/frames"
	chiTransport "github.com/kailas-cloud/wayfinder/internal/transport/chi"
	openaiVision "github.com/kailas-cloud/wayfinder/internal/transport/openai"
	"github.com/kailas-cloud/wayfinder/internal/transport/slam"
	healthuc "github.com/kailas-cloud/wayfinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/wayfinder/internal/usecase/search"
	staginguc "github.com/kailas-cloud/wayfinder/internal/usecase/staging"
	workflowuc "github.com/kailas-cloud/wayfinder/internal/usecase/workflow"
	"github.com/kailas-cloud/wayfinder/internal/version"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting wayfinder API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("map_store_driver", cfg.MapStore.Driver),
		zap.String("slam_base_url", cfg.SLAM.BaseURL),
	)

	// Open the map store based on driver
	var loader framesrepo.Loader
	switch cfg.MapStore.Driver {
	case "sqlite":
		loader, err = framesrepo.NewSQLiteLoader(cfg.MapStore.Path)
	case "redis":
		loader, err = framesrepo.NewRedisLoader(framesrepo.RedisConfig{
			Addrs:     cfg.MapStore.Addrs,
			Password:  cfg.MapStore.Password,
			KeyPrefix: cfg.MapStore.KeyPrefix,
		})
	case "bolt":
		loader, err = framesrepo.NewBoltLoader(cfg.MapStore.Path)
	default:
		logger.Fatal("Unknown map store driver", zap.String("driver", cfg.MapStore.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to open map store", zap.Error(err))
	}

	// The catalogue is loaded once; the store is not needed afterwards.
	ctx := context.Background()
	records, err := loader.Load(ctx)
	if err != nil {
		logger.Fatal("Failed to load frame catalogue", zap.Error(err))
	}
	if err := loader.Close(); err != nil {
		logger.Warn("Failed to close map store", zap.Error(err))
	}

	index := frameindex.New(records)
	logger.Info("Frame catalogue loaded", zap.Int("frames", index.Len()))
	if index.Len() == 0 {
		logger.Warn("Frame catalogue is empty; every search will miss")
	}

	// Register workflow metrics explicitly (no init())
	metrics.RegisterWorkflowMetrics()

	if err := os.MkdirAll(cfg.Staging.Dir, 0o700); err != nil {
		logger.Fatal("Failed to create staging directory",
			zap.String("dir", cfg.Staging.Dir), zap.Error(err))
	}
	stager := staginguc.New(cfg.Staging.Dir, logger)

	localizer := slam.NewClient(&slam.Config{
		BaseURL:        cfg.SLAM.BaseURL,
		Timeout:        time.Duration(cfg.SLAM.TimeoutSec) * time.Second,
		MaxConcurrent:  cfg.SLAM.MaxConcurrent,
		ReadyCheckPath: cfg.SLAM.ReadyCheckPath,
		Logger:         logger,
	})

	// Pass nil interface (not typed nil pointer!) when vision is disabled.
	var describer workflowuc.SceneDescriber
	if cfg.Vision.Enabled {
		describer = openaiVision.NewDescriber(&openaiVision.Config{
			APIKey:  cfg.Vision.APIKey,
			BaseURL: cfg.Vision.BaseURL,
			Model:   cfg.Vision.Model,
			Logger:  logger,
		})
		logger.Info("Vision describer enabled", zap.String("model", cfg.Vision.Model))
	}

	// Create use case services
	workflowSvc := workflowuc.New(index, stager, localizer, describer)
	searchSvc := searchuc.New(index)
	healthSvc := healthuc.New(localizer, index)

	// Create chi server
	server := chiTransport.NewServer(workflowSvc, searchSvc, healthSvc, env, cfg.Staging.Dir, logger)

	r := newRouter(server, logger, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newRouter assembles the middleware chain and routes.
func newRouter(server *chiTransport.Server, logger *zap.Logger, apiKeys []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	// Metrics wrap auth so rejected requests still show up in the counters.
	r.Use(metrics.Middleware())
	r.Use(chiTransport.BearerAuthMiddleware(apiKeys))
	server.Routes(r)
	return r
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					// Same envelope as handler errors: success and
					// workflow_status are present on every response.
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"success":         false,
						"workflow_status": "error",
						"code":            "internal_error",
						"message":         "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
