package detector

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/zombar/writecoach/internal/models"
	"github.com/zombar/writecoach/internal/rules"
)

type fakeRemote struct {
	issues []models.Issue
	err    error
	calls  int
}

func (f *fakeRemote) Check(ctx context.Context, text, language, style string) ([]models.Issue, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.issues, nil
}

func TestDetectUsesRemoteWhenAvailable(t *testing.T) {
	remote := &fakeRemote{
		issues: []models.Issue{
			{
				ID:       "api-issue-0",
				Kind:     models.KindGrammar,
				Text:     "He are",
				Span:     models.Span{Start: 0, End: 6},
				Severity: models.SeverityHigh,
			},
		},
	}
	det := New(remote, nil)

	issues, source := det.Detect(context.Background(), "He are happy today.", models.StyleCasual)

	if source != models.SourceRemote {
		t.Errorf("Expected remote source, got %s", source)
	}
	if remote.calls != 1 {
		t.Errorf("Expected 1 remote call, got %d", remote.calls)
	}
	if len(issues) != 1 || issues[0].ID != "api-issue-0" {
		t.Errorf("Expected the remote issue to pass through, got %+v", issues)
	}
}

// A remote failure falls back to the full local result, never a merge.
func TestDetectFallbackEqualsLocal(t *testing.T) {
	text := "He are happy and I have alot of ideas."
	remote := &fakeRemote{err: errors.New("connection refused")}
	det := New(remote, nil)

	issues, source := det.Detect(context.Background(), text, models.StyleCasual)

	if source != models.SourceLocal {
		t.Errorf("Expected local source after fallback, got %s", source)
	}

	want := rules.NewEngine().Detect(text)
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("Fallback result differs from local engine output.\ngot:  %+v\nwant: %+v", issues, want)
	}
}

func TestDetectNoRemoteConfigured(t *testing.T) {
	det := New(nil, nil)

	issues, source := det.Detect(context.Background(), "I will definately come.", models.StyleCasual)

	if source != models.SourceLocal {
		t.Errorf("Expected local source, got %s", source)
	}
	if len(issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d", len(issues))
	}
	if issues[0].Corrections[0].Text != "definitely" {
		t.Errorf("Expected correction 'definitely', got %q", issues[0].Corrections[0].Text)
	}
}

func TestDetectEmptyText(t *testing.T) {
	remote := &fakeRemote{}
	det := New(remote, nil)

	issues, _ := det.Detect(context.Background(), "   ", models.StyleCasual)

	if len(issues) != 0 {
		t.Errorf("Expected no issues for whitespace text, got %d", len(issues))
	}
	if remote.calls != 0 {
		t.Errorf("Expected no remote call for whitespace text, got %d", remote.calls)
	}
}

func TestReportComposition(t *testing.T) {
	det := New(nil, nil)
	text := "He are happy with the plan. The cake was eaten by the children."

	report := det.Report(context.Background(), text, models.StyleFormal)

	if report.Source != models.SourceLocal {
		t.Errorf("Expected local source, got %s", report.Source)
	}
	if len(report.Issues) == 0 {
		t.Error("Expected issues for faulty text")
	}
	if report.Stats.TotalIssues != len(report.Issues) {
		t.Errorf("Stats.TotalIssues %d does not match issue count %d",
			report.Stats.TotalIssues, len(report.Issues))
	}
	if len(report.Sentences) != 2 {
		t.Fatalf("Expected 2 scored sentences, got %d", len(report.Sentences))
	}
	if !report.Sentences[1].IsPassive {
		t.Error("Expected second sentence to be flagged passive")
	}
	if report.Stats.PassiveVoice != 1 {
		t.Errorf("Expected 1 passive sentence in stats, got %d", report.Stats.PassiveVoice)
	}
}

func TestReportEmptyText(t *testing.T) {
	det := New(nil, nil)

	report := det.Report(context.Background(), "", models.StyleCasual)

	if len(report.Issues) != 0 {
		t.Errorf("Expected no issues, got %d", len(report.Issues))
	}
	if len(report.Sentences) != 0 {
		t.Errorf("Expected no sentences, got %d", len(report.Sentences))
	}
	if report.Stats.OverallScore != 100 {
		t.Errorf("Expected overall score 100 for empty text, got %f", report.Stats.OverallScore)
	}
}
