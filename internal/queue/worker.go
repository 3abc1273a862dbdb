package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/zombar/writecoach/internal/database"
	"github.com/zombar/writecoach/internal/models"
	"github.com/zombar/writecoach/pkg/metrics"
)

// Reporter runs the detection pipeline. *detector.Detector satisfies it.
type Reporter interface {
	Report(ctx context.Context, text, style string) models.Report
}

// Rewriter produces active-voice rewrites. *rewrite.Client satisfies it.
// A nil Rewriter disables the enrichment stage.
type Rewriter interface {
	SuggestActiveVoice(ctx context.Context, sentence string) (string, error)
}

// Worker wraps the Asynq server for processing tasks
type Worker struct {
	server          *asynq.Server
	mux             *asynq.ServeMux
	db              *database.DB
	detector        Reporter
	rewriter        Rewriter
	queueClient     *Client
	concurrency     int
	logger          *slog.Logger
	businessMetrics *metrics.BusinessMetrics
}

// WorkerConfig contains configuration for the queue worker
type WorkerConfig struct {
	RedisAddr   string
	Concurrency int
}

// NewWorker creates a new queue worker
func NewWorker(
	cfg WorkerConfig,
	db *database.DB,
	det Reporter,
	rewriter Rewriter,
	queueClient *Client,
	businessMetrics *metrics.BusinessMetrics,
) *Worker {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
	}

	serverCfg := asynq.Config{
		// Concurrency determines how many tasks can be processed simultaneously
		Concurrency: cfg.Concurrency,

		// Queue priority: higher value = higher priority
		// Analysis feeds user-visible reports; rewrite enrichment can wait
		Queues: map[string]int{
			"analysis":           6, // Detection pipeline (highest priority)
			"rewrite-enrichment": 2, // AI rewrite suggestions with Ollama (lowest priority)
		},

		// StrictPriority: false means queues are processed proportionally
		StrictPriority: false,

		// Retry configuration with aggressive backoff for Ollama tasks
		RetryDelayFunc: retryDelay,

		// Graceful shutdown timeout
		ShutdownTimeout: 30 * time.Second,

		// Error handler for logging
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)

			slog.Error("task processing error",
				"task_type", task.Type(),
				"error", err,
				"retry_count", retried,
				"max_retries", maxRetry,
			)
		}),
	}

	server := asynq.NewServer(redisOpt, serverCfg)
	mux := asynq.NewServeMux()

	w := &Worker{
		server:          server,
		mux:             mux,
		db:              db,
		detector:        det,
		rewriter:        rewriter,
		queueClient:     queueClient,
		concurrency:     cfg.Concurrency,
		logger:          slog.Default(),
		businessMetrics: businessMetrics,
	}

	// Register task handlers
	w.registerHandlers()

	return w
}

// retryDelay backs off aggressively for Ollama rewrite tasks, which fail for
// long stretches when the model host is down, and briskly for analysis tasks.
func retryDelay(n int, err error, task *asynq.Task) time.Duration {
	if task.Type() == TypeRewriteSentences {
		// 30s, 1m, 2m, 5m, 10m, 20m, 30m, 1h, 2h, 4h
		delays := []time.Duration{
			30 * time.Second,
			1 * time.Minute,
			2 * time.Minute,
			5 * time.Minute,
			10 * time.Minute,
			20 * time.Minute,
			30 * time.Minute,
			1 * time.Hour,
			2 * time.Hour,
			4 * time.Hour,
		}
		if n < len(delays) {
			return delays[n]
		}
		return delays[len(delays)-1]
	}

	// Standard retry for analysis tasks: 1m, 5m, 15m
	delays := []time.Duration{
		1 * time.Minute,
		5 * time.Minute,
		15 * time.Minute,
	}
	if n < len(delays) {
		return delays[n]
	}
	return delays[len(delays)-1]
}

// registerHandlers registers all task handlers with the worker
func (w *Worker) registerHandlers() {
	w.mux.HandleFunc(TypeAnalyzeDocument, w.handleAnalyzeDocument)
	w.mux.HandleFunc(TypeRewriteSentences, w.handleRewriteSentences)
}

// Start starts the worker to begin processing tasks
func (w *Worker) Start() error {
	w.logger.Info("starting asynq worker",
		"concurrency", w.concurrency,
		"queues", map[string]int{"analysis": 6, "rewrite-enrichment": 2},
	)

	// Run is blocking - starts processing tasks
	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("asynq server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the worker
func (w *Worker) Shutdown() {
	w.logger.Info("shutting down asynq worker")
	w.server.Shutdown()
}

// Server returns the underlying Asynq server (for testing)
func (w *Worker) Server() *asynq.Server {
	return w.server
}
