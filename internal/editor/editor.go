// Package editor applies a chosen correction to a text snapshot.
package editor

import (
	"errors"
	"fmt"

	"github.com/zombar/writecoach/internal/models"
)

var (
	// ErrInvalidCorrection means the correction index does not exist on the issue.
	ErrInvalidCorrection = errors.New("correction index out of range")
	// ErrStaleIssue means the issue's span no longer matches the text, so
	// splicing would corrupt the document. The caller should rerun detection.
	ErrStaleIssue = errors.New("issue does not match current text")
)

// Apply splices the chosen correction over the issue's span and returns the
// corrected text. Spans are bound to the snapshot the issue was detected
// against; Apply verifies the span still carries the issue's matched text
// before editing.
func Apply(text string, issue models.Issue, correctionIndex int) (string, error) {
	if correctionIndex < 0 || correctionIndex >= len(issue.Corrections) {
		return "", fmt.Errorf("%w: index %d, issue has %d corrections",
			ErrInvalidCorrection, correctionIndex, len(issue.Corrections))
	}
	span := issue.Span
	if span.Start < 0 || span.End < span.Start || span.End > len(text) {
		return "", fmt.Errorf("%w: span [%d,%d) out of bounds for %d bytes",
			ErrStaleIssue, span.Start, span.End, len(text))
	}
	if text[span.Start:span.End] != issue.Text {
		return "", fmt.Errorf("%w: span text %q does not match issue text %q",
			ErrStaleIssue, text[span.Start:span.End], issue.Text)
	}
	return text[:span.Start] + issue.Corrections[correctionIndex].Text + text[span.End:], nil
}
