package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/writecoach/internal/database"
	"github.com/zombar/writecoach/internal/models"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "queue_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

// fakeReporter returns a canned report regardless of input.
type fakeReporter struct {
	report models.Report
	calls  int
}

func (f *fakeReporter) Report(ctx context.Context, text, style string) models.Report {
	f.calls++
	return f.report
}

// fakeRewriter maps sentences to suggestions, or fails with err.
type fakeRewriter struct {
	suggestions map[string]string
	err         error
	calls       int
}

func (f *fakeRewriter) SuggestActiveVoice(ctx context.Context, sentence string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.suggestions[sentence], nil
}

func testWorker(db *database.DB, det Reporter, rw Rewriter) *Worker {
	return &Worker{
		db:       db,
		detector: det,
		rewriter: rw,
		logger:   slog.Default(),
	}
}

func analyzeTask(t *testing.T, payload AnalyzeDocumentPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(TypeAnalyzeDocument, data)
}

func rewriteTask(t *testing.T, payload RewriteSentencesPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(TypeRewriteSentences, data)
}

func TestHandleAnalyzeDocument(t *testing.T) {
	db := setupTestDB(t)

	reporter := &fakeReporter{
		report: models.Report{
			Issues: []models.Issue{},
			Sentences: []models.SentenceRecord{
				{Sentence: "The report was written by the team", WordCount: 7, IsPassive: true},
			},
			Stats:  models.Stats{Words: 7, Sentences: 1, PassiveVoice: 1, OverallScore: 100},
			Source: models.SourceLocal,
		},
	}
	worker := testWorker(db, reporter, nil)

	task := analyzeTask(t, AnalyzeDocumentPayload{
		DocumentID: "doc-analyze-1",
		Text:       "The report was written by the team.",
		Style:      models.StyleFormal,
		EnqueuedAt: time.Now().UnixNano(),
	})

	err := worker.handleAnalyzeDocument(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, 1, reporter.calls)

	doc, err := db.GetDocument("doc-analyze-1")
	require.NoError(t, err)
	assert.Equal(t, "The report was written by the team.", doc.Text)
	assert.Equal(t, models.StyleFormal, doc.Style)
	assert.Equal(t, models.SourceLocal, doc.Report.Source)
	assert.Equal(t, 1, doc.Report.Stats.PassiveVoice)
}

func TestHandleAnalyzeDocumentInvalidPayload(t *testing.T) {
	db := setupTestDB(t)
	worker := testWorker(db, &fakeReporter{}, nil)

	task := asynq.NewTask(TypeAnalyzeDocument, []byte("not json"))
	err := worker.handleAnalyzeDocument(context.Background(), task)
	assert.Error(t, err)
}

func seedDocument(t *testing.T, db *database.DB, id string) *models.Document {
	t.Helper()

	now := time.Now()
	doc := &models.Document{
		ID:    id,
		Text:  "The report was written by the team. We reviewed it together. Mistakes were made by everyone.",
		Style: models.StyleFormal,
		Report: models.Report{
			Issues: []models.Issue{},
			Sentences: []models.SentenceRecord{
				{Sentence: "The report was written by the team", IsPassive: true},
				{Sentence: "We reviewed it together", IsPassive: false},
				{Sentence: "Mistakes were made by everyone", IsPassive: true, RewriteSuggestion: "Everyone made mistakes"},
			},
			Stats:  models.Stats{PassiveVoice: 2},
			Source: models.SourceLocal,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.SaveDocument(doc))
	return doc
}

func TestHandleRewriteSentences(t *testing.T) {
	db := setupTestDB(t)
	seedDocument(t, db, "doc-rewrite-1")

	rewriter := &fakeRewriter{
		suggestions: map[string]string{
			"The report was written by the team": "The team wrote the report",
		},
	}
	worker := testWorker(db, &fakeReporter{}, rewriter)

	task := rewriteTask(t, RewriteSentencesPayload{DocumentID: "doc-rewrite-1", EnqueuedAt: time.Now().UnixNano()})
	err := worker.handleRewriteSentences(context.Background(), task)
	require.NoError(t, err)

	// Only the passive sentence without an existing suggestion was sent out
	assert.Equal(t, 1, rewriter.calls)

	doc, err := db.GetDocument("doc-rewrite-1")
	require.NoError(t, err)
	assert.Equal(t, "The team wrote the report", doc.Report.Sentences[0].RewriteSuggestion)
	assert.Empty(t, doc.Report.Sentences[1].RewriteSuggestion)
	assert.Equal(t, "Everyone made mistakes", doc.Report.Sentences[2].RewriteSuggestion)
}

func TestHandleRewriteSentencesRetriableError(t *testing.T) {
	db := setupTestDB(t)
	seedDocument(t, db, "doc-rewrite-2")

	rewriter := &fakeRewriter{err: errors.New("connection refused")}
	worker := testWorker(db, &fakeReporter{}, rewriter)

	task := rewriteTask(t, RewriteSentencesPayload{DocumentID: "doc-rewrite-2"})
	err := worker.handleRewriteSentences(context.Background(), task)
	assert.Error(t, err, "retriable errors must be returned so asynq retries the task")

	// Nothing was persisted
	doc, err := db.GetDocument("doc-rewrite-2")
	require.NoError(t, err)
	assert.Empty(t, doc.Report.Sentences[0].RewriteSuggestion)
}

func TestHandleRewriteSentencesPermanentError(t *testing.T) {
	db := setupTestDB(t)
	seedDocument(t, db, "doc-rewrite-3")

	rewriter := &fakeRewriter{err: errors.New("invalid model name")}
	worker := testWorker(db, &fakeReporter{}, rewriter)

	task := rewriteTask(t, RewriteSentencesPayload{DocumentID: "doc-rewrite-3"})
	err := worker.handleRewriteSentences(context.Background(), task)
	assert.NoError(t, err, "permanent errors skip the sentence instead of retrying")
	assert.Equal(t, 1, rewriter.calls)
}

func TestHandleRewriteSentencesNoRewriter(t *testing.T) {
	db := setupTestDB(t)
	seedDocument(t, db, "doc-rewrite-4")

	worker := testWorker(db, &fakeReporter{}, nil)

	task := rewriteTask(t, RewriteSentencesPayload{DocumentID: "doc-rewrite-4"})
	err := worker.handleRewriteSentences(context.Background(), task)
	assert.NoError(t, err)
}

func TestHandleRewriteSentencesUnknownDocument(t *testing.T) {
	db := setupTestDB(t)

	worker := testWorker(db, &fakeReporter{}, &fakeRewriter{})

	task := rewriteTask(t, RewriteSentencesPayload{DocumentID: "no-such-doc"})
	err := worker.handleRewriteSentences(context.Background(), task)
	assert.Error(t, err)
}
