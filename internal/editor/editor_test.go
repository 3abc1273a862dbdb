package editor

import (
	"errors"
	"strings"
	"testing"

	"github.com/zombar/writecoach/internal/models"
	"github.com/zombar/writecoach/internal/rules"
)

func TestApplySplicesCorrection(t *testing.T) {
	text := "He are happy today."
	issue := models.Issue{
		ID:   "local-issue-0",
		Kind: models.KindGrammar,
		Text: "He are",
		Span: models.Span{Start: 0, End: 6},
		Corrections: []models.CorrectionOption{
			{Text: "He is", Confidence: 100},
			{Text: "He was", Confidence: 95},
		},
	}

	got, err := Apply(text, issue, 0)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got != "He is happy today." {
		t.Errorf("Expected %q, got %q", "He is happy today.", got)
	}

	got, err = Apply(text, issue, 1)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got != "He was happy today." {
		t.Errorf("Expected %q, got %q", "He was happy today.", got)
	}
}

func TestApplyInvalidCorrectionIndex(t *testing.T) {
	issue := models.Issue{
		Text:        "alot",
		Span:        models.Span{Start: 0, End: 4},
		Corrections: []models.CorrectionOption{{Text: "a lot"}},
	}

	for _, idx := range []int{-1, 1, 5} {
		_, err := Apply("alot of text", issue, idx)
		if !errors.Is(err, ErrInvalidCorrection) {
			t.Errorf("Apply with index %d: expected ErrInvalidCorrection, got %v", idx, err)
		}
	}
}

func TestApplyStaleIssue(t *testing.T) {
	issue := models.Issue{
		Text:        "alot",
		Span:        models.Span{Start: 7, End: 11},
		Corrections: []models.CorrectionOption{{Text: "a lot"}},
	}

	// Text changed since detection: the span now carries different content
	_, err := Apply("I said nothing about that", issue, 0)
	if !errors.Is(err, ErrStaleIssue) {
		t.Errorf("Expected ErrStaleIssue for mismatched span text, got %v", err)
	}

	// Span beyond the end of a shorter text
	_, err = Apply("tiny", issue, 0)
	if !errors.Is(err, ErrStaleIssue) {
		t.Errorf("Expected ErrStaleIssue for out-of-bounds span, got %v", err)
	}
}

// Applying each detected correction in sequence produces fully corrected text.
func TestApplyRoundTrip(t *testing.T) {
	engine := rules.NewEngine()
	text := "She don't likes to go outside when it's rain."

	for i := 0; i < 10; i++ {
		issues := engine.Detect(text)
		if len(issues) == 0 {
			break
		}
		updated, err := Apply(text, issues[0], 0)
		if err != nil {
			t.Fatalf("Apply failed on %q: %v", text, err)
		}
		if updated == text {
			t.Fatalf("Apply made no progress on %q", text)
		}
		text = updated
	}

	for _, want := range []string{"doesn't", "like", "it's raining"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected corrected text to contain %q, got %q", want, text)
		}
	}
	if issues := engine.Detect(text); len(issues) != 0 {
		t.Errorf("Expected no issues after corrections, got %+v", issues)
	}
}

func TestApplyIsPureFunction(t *testing.T) {
	text := "I have alot of ideas."
	issue := models.Issue{
		Text:        "alot",
		Span:        models.Span{Start: 7, End: 11},
		Corrections: []models.CorrectionOption{{Text: "a lot"}},
	}

	first, err := Apply(text, issue, 0)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	second, err := Apply(text, issue, 0)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if first != second {
		t.Errorf("Apply is not deterministic: %q vs %q", first, second)
	}
	if text != "I have alot of ideas." {
		t.Errorf("Apply mutated its input: %q", text)
	}
}
