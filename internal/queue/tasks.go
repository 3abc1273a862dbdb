package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombar/writecoach/internal/models"
)

// handleAnalyzeDocument runs the full detection pipeline over a document and
// stores the resulting report (Stage 1)
func (w *Worker) handleAnalyzeDocument(ctx context.Context, t *asynq.Task) error {
	// Parse payload
	var payload AnalyzeDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("failed to unmarshal task payload", "error", err)
		return fmt.Errorf("invalid task payload: %w", err)
	}

	documentID := payload.DocumentID
	text := payload.Text
	style := payload.Style

	// Calculate queue wait time
	var queueWaitTime time.Duration
	if payload.EnqueuedAt > 0 {
		enqueuedTime := time.Unix(0, payload.EnqueuedAt)
		queueWaitTime = time.Since(enqueuedTime)
	}

	w.logger.Info("analyzing document",
		"document_id", documentID,
		"text_length", len(text),
		"style", style,
		"queue_wait_seconds", queueWaitTime.Seconds(),
	)

	ctx, span := w.taskSpan(ctx, TypeAnalyzeDocument, documentID, payload.TraceID, payload.SpanID, payload.EnqueuedAt, queueWaitTime)
	if span != nil {
		defer span.End()
	}

	// Start metrics timer for analysis duration with exemplar support
	timer := time.Now()
	var analysisStatus string
	defer func() {
		if analysisStatus != "" && w.businessMetrics != nil {
			duration := time.Since(timer).Seconds()
			// Record duration with exemplar linking to trace ID
			w.businessMetrics.ObserveDurationWithExemplar(ctx, w.businessMetrics.AnalysisDuration, duration, analysisStatus)
			w.businessMetrics.AnalysesTotal.WithLabelValues(analysisStatus).Inc()
		}
	}()

	report := w.detector.Report(ctx, text, style)

	now := time.Now()
	doc := &models.Document{
		ID:        documentID,
		Text:      text,
		Style:     style,
		Report:    report,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := w.db.SaveDocument(doc); err != nil {
		analysisStatus = "error"
		return fmt.Errorf("failed to save report: %w", err)
	}
	analysisStatus = "success"
	if w.businessMetrics != nil {
		w.businessMetrics.ReportsStoredTotal.Inc()
	}

	w.logger.Info("report saved",
		"document_id", documentID,
		"source", report.Source,
		"issues", len(report.Issues),
	)

	// Enqueue rewrite enrichment when passive sentences exist and a rewriter
	// is configured
	if w.rewriter != nil && report.Stats.PassiveVoice > 0 {
		if _, err := w.queueClient.EnqueueRewriteSentences(ctx, documentID); err != nil {
			w.logger.Error("failed to enqueue rewrite enrichment", "error", err)
			// Don't fail the task if enrichment enqueue fails
		}
	}

	return nil
}

// handleRewriteSentences adds active-voice rewrite suggestions to a stored
// report's passive sentences via Ollama (Stage 2 - Low Priority)
func (w *Worker) handleRewriteSentences(ctx context.Context, t *asynq.Task) error {
	// Parse payload
	var payload RewriteSentencesPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("failed to unmarshal task payload", "error", err)
		return fmt.Errorf("invalid task payload: %w", err)
	}

	documentID := payload.DocumentID

	retryCount, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	// Calculate queue wait time
	var queueWaitTime time.Duration
	if payload.EnqueuedAt > 0 {
		enqueuedTime := time.Unix(0, payload.EnqueuedAt)
		queueWaitTime = time.Since(enqueuedTime)
	}

	w.logger.Info("rewriting passive sentences",
		"document_id", documentID,
		"retry_count", retryCount,
		"max_retries", maxRetry,
		"queue_wait_seconds", queueWaitTime.Seconds(),
	)

	ctx, span := w.taskSpan(ctx, TypeRewriteSentences, documentID, payload.TraceID, payload.SpanID, payload.EnqueuedAt, queueWaitTime)
	if span != nil {
		defer span.End()
	}

	if w.rewriter == nil {
		w.logger.Warn("no rewriter configured, skipping enrichment", "document_id", documentID)
		return nil
	}

	// Retrieve stored document
	doc, err := w.db.GetDocument(documentID)
	if err != nil {
		return fmt.Errorf("failed to retrieve document: %w", err)
	}

	rewritten := 0
	for i := range doc.Report.Sentences {
		sentence := &doc.Report.Sentences[i]
		if !sentence.IsPassive || sentence.RewriteSuggestion != "" {
			continue
		}

		suggestion, err := w.rewriter.SuggestActiveVoice(ctx, sentence.Sentence)
		if err != nil {
			// Check if this is a retriable error (connection/timeout)
			if isRetriableRemoteError(err) {
				w.logger.Warn("retriable Ollama error, will retry",
					"document_id", documentID,
					"error", err,
					"retry_count", retryCount,
				)
				return err // Let Asynq retry
			}

			// Permanent error: skip this sentence, keep the rest
			w.logger.Error("permanent error rewriting sentence",
				"document_id", documentID,
				"error", err,
			)
			continue
		}

		if suggestion != "" && suggestion != sentence.Sentence {
			sentence.RewriteSuggestion = suggestion
			rewritten++
		}
	}

	if rewritten > 0 {
		doc.UpdatedAt = time.Now()
		if err := w.db.SaveDocument(doc); err != nil {
			return fmt.Errorf("failed to save enriched report: %w", err)
		}
		if w.businessMetrics != nil {
			w.businessMetrics.RewritesGeneratedTotal.Add(float64(rewritten))
		}
	}

	w.logger.Info("rewrite enrichment completed",
		"document_id", documentID,
		"rewritten", rewritten,
		"retry_count", retryCount,
	)

	return nil
}

// taskSpan recreates the trace context stored in a task payload and starts a
// consumer span. Returns a nil span when the payload carried no trace context.
func (w *Worker) taskSpan(ctx context.Context, taskType, documentID, traceHex, spanHex string, enqueuedAt int64, queueWait time.Duration) (context.Context, trace.Span) {
	if traceHex == "" || spanHex == "" {
		if existingSpan := trace.SpanFromContext(ctx); existingSpan.SpanContext().IsValid() {
			existingSpan.SetAttributes(
				attribute.String("document.id", documentID),
				attribute.Float64("queue.wait_time_seconds", queueWait.Seconds()),
			)
		}
		return ctx, nil
	}

	traceID, err := trace.TraceIDFromHex(traceHex)
	if err != nil {
		return ctx, nil
	}
	spanID, err := trace.SpanIDFromHex(spanHex)
	if err != nil {
		return ctx, nil
	}

	// Link the consumer span to the span that enqueued the task
	remoteSpanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx = trace.ContextWithRemoteSpanContext(ctx, remoteSpanCtx)

	ctx, span := otel.Tracer("writecoach").Start(ctx, "asynq.task.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("task.type", taskType),
			attribute.String("document.id", documentID),
			attribute.Float64("queue.wait_time_seconds", queueWait.Seconds()),
			attribute.Int64("enqueued_at", enqueuedAt),
		),
	)

	span.AddEvent("task_processing_started", trace.WithAttributes(
		attribute.Float64("wait_time_seconds", queueWait.Seconds()),
	))

	return ctx, span
}

// isRetriableRemoteError determines if an error is retriable
// (connection/timeout) vs permanent (invalid input)
func isRetriableRemoteError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Retriable errors: connection issues, timeouts, temporary failures
	retriablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
		"too many requests",
		"context deadline exceeded",
		"context canceled",
		"i/o timeout",
		"no such host",
		"network is unreachable",
	}

	for _, pattern := range retriablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
