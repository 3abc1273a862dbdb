// Package detector runs the detection pipeline: a remote grammar service
// when one is configured and reachable, with full fallback to the local
// rule engine, plus sentence-level analysis and document scoring.
package detector

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/writecoach/internal/models"
	"github.com/zombar/writecoach/internal/rules"
	"github.com/zombar/writecoach/pkg/metrics"
)

// RemoteChecker is the remote grammar service surface the detector depends
// on. *languagetool.Client satisfies it.
type RemoteChecker interface {
	Check(ctx context.Context, text, language, style string) ([]models.Issue, error)
}

// Detector produces issue lists and full reports for a document.
type Detector struct {
	remote   RemoteChecker
	local    *rules.Engine
	language string
	metrics  *metrics.BusinessMetrics
	logger   *slog.Logger
}

// New creates a Detector. remote may be nil, in which case every pass uses
// the local rule engine. bm may be nil to disable instrumentation.
func New(remote RemoteChecker, bm *metrics.BusinessMetrics) *Detector {
	return &Detector{
		remote:   remote,
		local:    rules.NewEngine(),
		language: "en-US",
		metrics:  bm,
		logger:   slog.Default(),
	}
}

// Detect returns the issues for text along with their source, "remote" or
// "local". The two sources are never merged: any remote failure discards
// partial remote output and reruns the local engine over the whole text.
func (d *Detector) Detect(ctx context.Context, text, style string) ([]models.Issue, string) {
	ctx, span := otel.Tracer("writecoach/detector").Start(ctx, "detector.detect")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return []models.Issue{}, models.SourceLocal
	}

	if d.remote != nil {
		issues, err := d.remote.Check(ctx, text, d.language, style)
		if err == nil {
			span.SetAttributes(attribute.String("detector.source", models.SourceRemote))
			d.countCheck(models.SourceRemote, len(issues))
			return issues, models.SourceRemote
		}
		d.logger.Warn("remote grammar check failed, using local rules", "error", err)
		if d.metrics != nil {
			d.metrics.RemoteFallbacksTotal.Inc()
		}
	}

	issues := d.local.Detect(text)
	span.SetAttributes(attribute.String("detector.source", models.SourceLocal))
	d.countCheck(models.SourceLocal, len(issues))
	return issues, models.SourceLocal
}

// Report runs the full pipeline and assembles a report: issues, scored
// sentences, and aggregate stats.
func (d *Detector) Report(ctx context.Context, text, style string) models.Report {
	issues, source := d.Detect(ctx, text, style)
	sentences := AnalyzeSentences(text, style, issues)
	return models.Report{
		Issues:    issues,
		Sentences: sentences,
		Stats:     Summarize(text, issues, sentences),
		Source:    source,
	}
}

func (d *Detector) countCheck(source string, issues int) {
	if d.metrics == nil {
		return
	}
	d.metrics.ChecksTotal.WithLabelValues(source).Inc()
	d.metrics.IssuesFoundTotal.Add(float64(issues))
}
