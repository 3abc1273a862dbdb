// Package session tracks a live editing session: the current text and style,
// debounced re-detection, and correction application against the latest
// report. A generation counter discards results from superseded passes so a
// slow check can never overwrite the report for newer text.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zombar/writecoach/internal/editor"
	"github.com/zombar/writecoach/internal/models"
)

// DefaultDebounce is how long a session waits after the last text change
// before running detection.
const DefaultDebounce = 500 * time.Millisecond

// Checker produces a report for a text snapshot. *detector.Detector
// satisfies it.
type Checker interface {
	Report(ctx context.Context, text, style string) models.Report
}

// Controller owns one editing session.
type Controller struct {
	mu         sync.Mutex
	checker    Checker
	text       string
	style      string
	generation uint64
	report     models.Report
	hasReport  bool
	debounce   time.Duration
	timer      *time.Timer
	closed     bool
}

// NewController creates a session controller. A zero debounce selects
// DefaultDebounce.
func NewController(checker Checker, style string, debounce time.Duration) *Controller {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if style == "" {
		style = models.StyleCasual
	}
	return &Controller{
		checker:  checker,
		style:    style,
		debounce: debounce,
	}
}

// SetText replaces the session text and schedules a debounced detection
// pass. Rapid successive calls collapse into one pass over the final text.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.text = text
	c.generation++
	c.schedule()
}

// SetStyle changes the writing style and schedules a detection pass, since
// style affects which issues are reported.
func (c *Controller) SetStyle(style string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || style == c.style {
		return
	}
	c.style = style
	c.generation++
	c.schedule()
}

// schedule resets the debounce timer. Caller holds c.mu.
func (c *Controller) schedule() {
	if c.timer != nil {
		c.timer.Stop()
	}
	gen := c.generation
	c.timer = time.AfterFunc(c.debounce, func() {
		c.runCheck(context.Background(), gen)
	})
}

// runCheck runs detection for a generation snapshot and stores the report
// unless a newer generation superseded it while the check was running.
func (c *Controller) runCheck(ctx context.Context, gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return
	}
	text, style := c.text, c.style
	c.mu.Unlock()

	report := c.checker.Report(ctx, text, style)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation {
		return
	}
	c.report = report
	c.hasReport = true
}

// ApplyCorrection splices the chosen correction of an issue from the latest
// report into the session text, then runs an immediate re-detection so the
// returned state carries fresh spans. Issues from older reports are rejected.
func (c *Controller) ApplyCorrection(ctx context.Context, issueID string, correctionIndex int) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", fmt.Errorf("session is closed")
	}
	if !c.hasReport {
		c.mu.Unlock()
		return "", fmt.Errorf("no report available yet")
	}
	var issue *models.Issue
	for i := range c.report.Issues {
		if c.report.Issues[i].ID == issueID {
			issue = &c.report.Issues[i]
			break
		}
	}
	if issue == nil {
		c.mu.Unlock()
		return "", fmt.Errorf("issue %q not found in current report", issueID)
	}

	updated, err := editor.Apply(c.text, *issue, correctionIndex)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}

	c.text = updated
	c.generation++
	gen := c.generation
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	c.runCheck(ctx, gen)
	return updated, nil
}

// Text returns the current session text.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Style returns the current writing style.
func (c *Controller) Style() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.style
}

// Report returns the latest report and whether one has been produced yet.
func (c *Controller) Report() (models.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report, c.hasReport
}

// Close cancels any pending detection and rejects further updates.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
