package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zombar/writecoach/internal/api"
	"github.com/zombar/writecoach/internal/database"
	"github.com/zombar/writecoach/internal/detector"
	"github.com/zombar/writecoach/internal/languagetool"
	"github.com/zombar/writecoach/internal/queue"
	"github.com/zombar/writecoach/internal/rewrite"
	"github.com/zombar/writecoach/internal/session"
	"github.com/zombar/writecoach/pkg/logging"
	"github.com/zombar/writecoach/pkg/metrics"
	"github.com/zombar/writecoach/pkg/tracing"
)

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("writecoach service initializing", "version", "1.0.0")

	// Initialize tracing
	tp, err := tracing.InitTracer("writecoach")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized successfully")
	}

	// Get default values from environment variables, with fallbacks
	portDefault := getEnv("PORT", "8080")
	dbPathDefault := getEnv("DB_PATH", "writecoach.db")
	ltURLDefault := getEnv("LANGUAGETOOL_URL", languagetool.DefaultBaseURL)
	ltTimeoutDefault := getEnv("LANGUAGETOOL_TIMEOUT", "10s")
	useRemoteDefault := getEnvBool("USE_LANGUAGETOOL", true)
	ollamaURLDefault := getEnv("OLLAMA_URL", "http://localhost:11434")
	ollamaModelDefault := getEnv("OLLAMA_MODEL", "gpt-oss:20b")
	useOllamaDefault := getEnvBool("USE_OLLAMA", true)
	redisAddrDefault := getEnv("REDIS_ADDR", "localhost:6379")

	var (
		port        = flag.String("port", portDefault, "Server port (env: PORT)")
		dbPath      = flag.String("db", dbPathDefault, "Database file path (env: DB_PATH)")
		ltURL       = flag.String("languagetool-url", ltURLDefault, "LanguageTool check endpoint (env: LANGUAGETOOL_URL)")
		ltTimeout   = flag.String("languagetool-timeout", ltTimeoutDefault, "LanguageTool request timeout (env: LANGUAGETOOL_TIMEOUT)")
		useRemote   = flag.Bool("use-languagetool", useRemoteDefault, "Enable the remote grammar service (env: USE_LANGUAGETOOL)")
		ollamaURL   = flag.String("ollama-url", ollamaURLDefault, "Ollama API URL (env: OLLAMA_URL)")
		ollamaModel = flag.String("ollama-model", ollamaModelDefault, "Ollama model to use (env: OLLAMA_MODEL)")
		useOllama   = flag.Bool("use-ollama", useOllamaDefault, "Enable Ollama rewrite suggestions (env: USE_OLLAMA)")
		redisAddr   = flag.String("redis-addr", redisAddrDefault, "Redis address for the task queue (env: REDIS_ADDR)")
		concurrency = flag.Int("concurrency", 4, "Worker concurrency (env: WORKER_CONCURRENCY)")
	)
	flag.Parse()

	// Initialize database
	db, err := database.New(*dbPath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err, "database_path", *dbPath)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize metrics
	businessMetrics := metrics.NewBusinessMetrics("writecoach")
	dbMetrics := metrics.NewDatabaseMetrics("writecoach")
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			dbMetrics.UpdateDBStats(db.Conn())
		}
	}()
	logger.Info("metrics initialized")

	// Initialize detector: remote grammar service with local rule fallback
	var remote detector.RemoteChecker
	if *useRemote {
		timeout, err := time.ParseDuration(*ltTimeout)
		if err != nil {
			logger.Warn("invalid LanguageTool timeout, using default", "value", *ltTimeout)
			timeout = languagetool.DefaultTimeout
		}
		remote = languagetool.New(*ltURL, timeout)
		logger.Info("remote grammar service enabled", "url", *ltURL, "timeout", timeout)
	} else {
		logger.Info("remote grammar service disabled, using local rules only")
	}
	det := detector.New(remote, businessMetrics)

	// Initialize rewrite client for passive sentence suggestions
	var rewriter queue.Rewriter
	if *useOllama {
		rewriteClient, err := rewrite.New(*ollamaURL, *ollamaModel)
		if err != nil {
			logger.Warn("failed to initialize Ollama client, rewrite suggestions disabled",
				"error", err,
				"ollama_url", *ollamaURL,
				"ollama_model", *ollamaModel,
			)
		} else {
			logger.Info("Ollama client initialized", "model", *ollamaModel, "url", *ollamaURL)
			rewriter = rewriteClient
		}
	} else {
		logger.Info("Ollama disabled, rewrite suggestions off")
	}

	// Initialize queue client and worker
	queueClient := queue.NewClient(queue.ClientConfig{RedisAddr: *redisAddr})
	defer queueClient.Close()

	worker := queue.NewWorker(
		queue.WorkerConfig{RedisAddr: *redisAddr, Concurrency: *concurrency},
		db,
		det,
		rewriter,
		queueClient,
		businessMetrics,
	)
	go func() {
		if err := worker.Start(); err != nil {
			logger.Error("worker failed", "error", err)
			os.Exit(1)
		}
	}()

	// Session manager for live editing sessions
	sessions := session.NewManager(det, session.DefaultDebounce)

	// Initialize API handler
	apiHandler := api.NewHandler(db, det, queueClient, sessions, businessMetrics)

	// Wrap handler with middleware chain: HTTP logging -> tracing -> handlers
	handler := logging.HTTPLoggingMiddleware(logger)(
		tracing.HTTPMiddleware("writecoach")(apiHandler),
	)

	// Create server with extended timeouts for remote checks
	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("writecoach service starting",
			"port", *port,
			"database", *dbPath,
			"languagetool_enabled", *useRemote,
			"languagetool_url", *ltURL,
			"ollama_enabled", *useOllama,
			"redis_addr", *redisAddr,
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	worker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
