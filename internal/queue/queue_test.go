package queue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
)

// TestAnalyzeDocumentPayload tests the AnalyzeDocumentPayload structure
func TestAnalyzeDocumentPayload(t *testing.T) {
	payload := AnalyzeDocumentPayload{
		DocumentID: "doc-123",
		Text:       "He are happy with the plan.",
		Style:      "formal",
		TraceID:    "4bf92f3577b34da6a3ce929d0e0e4736",
		SpanID:     "00f067aa0ba902b7",
		EnqueuedAt: time.Now().UnixNano(),
	}

	data, err := json.Marshal(payload)
	assert.NoError(t, err)
	assert.NotEmpty(t, data)

	var decoded AnalyzeDocumentPayload
	err = json.Unmarshal(data, &decoded)
	assert.NoError(t, err)
	assert.Equal(t, payload.DocumentID, decoded.DocumentID)
	assert.Equal(t, payload.Text, decoded.Text)
	assert.Equal(t, payload.Style, decoded.Style)
	assert.Equal(t, payload.TraceID, decoded.TraceID)
	assert.Equal(t, payload.SpanID, decoded.SpanID)
	assert.Equal(t, payload.EnqueuedAt, decoded.EnqueuedAt)
}

// TestRewriteSentencesPayload tests the RewriteSentencesPayload structure
func TestRewriteSentencesPayload(t *testing.T) {
	payload := RewriteSentencesPayload{
		DocumentID: "doc-456",
		EnqueuedAt: time.Now().UnixNano(),
	}

	data, err := json.Marshal(payload)
	assert.NoError(t, err)

	var decoded RewriteSentencesPayload
	err = json.Unmarshal(data, &decoded)
	assert.NoError(t, err)
	assert.Equal(t, payload.DocumentID, decoded.DocumentID)
	assert.Equal(t, payload.EnqueuedAt, decoded.EnqueuedAt)
}

// TestIsRetriableRemoteError tests error classification
func TestIsRetriableRemoteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Connection refused error",
			err:      errors.New("connection refused"),
			expected: true,
		},
		{
			name:     "Timeout error",
			err:      errors.New("request timeout"),
			expected: true,
		},
		{
			name:     "Context deadline exceeded",
			err:      errors.New("context deadline exceeded"),
			expected: true,
		},
		{
			name:     "Service unavailable",
			err:      errors.New("503 Service Unavailable"),
			expected: true,
		},
		{
			name:     "Bad gateway",
			err:      errors.New("502 Bad Gateway"),
			expected: true,
		},
		{
			name:     "Too many requests",
			err:      errors.New("429 Too Many Requests"),
			expected: true,
		},
		{
			name:     "Network unreachable",
			err:      errors.New("network is unreachable"),
			expected: true,
		},
		{
			name:     "Invalid request error",
			err:      errors.New("invalid request format"),
			expected: false,
		},
		{
			name:     "Generic error",
			err:      errors.New("some other error"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "Empty error",
			err:      errors.New(""),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isRetriableRemoteError(tt.err)
			assert.Equal(t, tt.expected, result, "Error: %v", tt.err)
		})
	}
}

// TestRetryDelay tests the custom retry delay function
func TestRetryDelay(t *testing.T) {
	testErr := errors.New("connection refused")

	// Rewrite tasks back off aggressively (Ollama can be down for hours)
	rewriteTask := asynq.NewTask(TypeRewriteSentences, []byte(`{}`))

	rewriteDelays := []time.Duration{
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

	for i := 0; i < 10; i++ {
		delay := retryDelay(i, testErr, rewriteTask)
		assert.Equal(t, rewriteDelays[i], delay, "Rewrite retry %d should have delay %v", i, rewriteDelays[i])
	}

	// Past the ladder, the delay stays at the ceiling
	assert.Equal(t, 4*time.Hour, retryDelay(15, testErr, rewriteTask))

	// Analysis tasks retry briskly
	analysisTask := asynq.NewTask(TypeAnalyzeDocument, []byte(`{}`))

	analysisDelays := []time.Duration{
		1 * time.Minute,
		5 * time.Minute,
		15 * time.Minute,
	}

	for i := 0; i < 3; i++ {
		delay := retryDelay(i, testErr, analysisTask)
		assert.Equal(t, analysisDelays[i], delay, "Analysis retry %d should have delay %v", i, analysisDelays[i])
	}
	assert.Equal(t, 15*time.Minute, retryDelay(7, testErr, analysisTask))
}

// TestTaskTypeConstants tests that task type constants are defined correctly
func TestTaskTypeConstants(t *testing.T) {
	assert.Equal(t, "writecoach:analyze_document", TypeAnalyzeDocument)
	assert.Equal(t, "writecoach:rewrite_sentences", TypeRewriteSentences)
}
