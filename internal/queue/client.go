package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Task type constants
const (
	TypeAnalyzeDocument  = "writecoach:analyze_document"
	TypeRewriteSentences = "writecoach:rewrite_sentences"
)

// AnalyzeDocumentPayload represents the payload for async document analysis
type AnalyzeDocumentPayload struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
	Style      string `json:"style"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// RewriteSentencesPayload represents the payload for AI rewrite enrichment
type RewriteSentencesPayload struct {
	DocumentID string `json:"document_id"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// Client wraps the Asynq client for enqueueing tasks
type Client struct {
	client *asynq.Client
}

// ClientConfig contains configuration for the queue client
type ClientConfig struct {
	RedisAddr string
}

// NewClient creates a new queue client
func NewClient(cfg ClientConfig) *Client {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
	}

	client := asynq.NewClient(redisOpt)

	return &Client{
		client: client,
	}
}

// EnqueueAnalyzeDocument enqueues a document analysis task
func (c *Client) EnqueueAnalyzeDocument(ctx context.Context, documentID, text, style string) (string, error) {
	payload := AnalyzeDocumentPayload{
		DocumentID: documentID,
		Text:       text,
		Style:      style,
		EnqueuedAt: time.Now().UnixNano(), // Record enqueue time for queue wait metrics
	}

	// Add tracing context if available
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()

		// Record enqueue event
		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", TypeAnalyzeDocument),
			attribute.String("task.id", documentID),
			attribute.String("document_id", documentID),
			attribute.Int64("enqueued_at", payload.EnqueuedAt),
		))
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeAnalyzeDocument, payloadBytes, asynq.TaskID(documentID))

	opts := []asynq.Option{
		asynq.MaxRetry(3),                   // Detection is cheap; fail fast
		asynq.Timeout(5 * time.Minute),      // 5 minute timeout
		asynq.Queue("analysis"),             // Analysis queue (highest priority)
		asynq.Retention(7 * 24 * time.Hour), // Keep completed tasks for 7 days
	}

	info, err := c.client.Enqueue(task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue analyze document task: %w", err)
	}

	return info.ID, nil
}

// EnqueueRewriteSentences enqueues a low-priority AI rewrite enrichment task
func (c *Client) EnqueueRewriteSentences(ctx context.Context, documentID string) (string, error) {
	payload := RewriteSentencesPayload{
		DocumentID: documentID,
		EnqueuedAt: time.Now().UnixNano(),
	}

	// Add tracing context if available
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()

		// Record enqueue event
		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", TypeRewriteSentences),
			attribute.String("task.id", documentID+"-rewrite"),
			attribute.String("document_id", documentID),
			attribute.Int64("enqueued_at", payload.EnqueuedAt),
		))
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	taskID := documentID + "-rewrite"
	task := asynq.NewTask(TypeRewriteSentences, payloadBytes, asynq.TaskID(taskID))

	opts := []asynq.Option{
		asynq.MaxRetry(10),                  // High retry tolerance for Ollama
		asynq.Timeout(10 * time.Minute),     // 10 minute timeout for AI processing
		asynq.Queue("rewrite-enrichment"),   // Rewrite queue (lowest priority)
		asynq.Retention(7 * 24 * time.Hour), // Keep completed tasks for 7 days
	}

	info, err := c.client.Enqueue(task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue rewrite sentences task: %w", err)
	}

	return info.ID, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}
