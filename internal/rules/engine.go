package rules

import (
	"fmt"

	"github.com/zombar/writecoach/internal/models"
)

// Engine applies an ordered rule catalog to raw text. It is a pure function
// of the input text: no I/O, deterministic output.
type Engine struct {
	catalog []Rule
}

// NewEngine creates an engine over the default catalog.
func NewEngine() *Engine {
	return &Engine{catalog: Catalog()}
}

// NewEngineWithCatalog creates an engine over a custom catalog.
func NewEngineWithCatalog(catalog []Rule) *Engine {
	return &Engine{catalog: catalog}
}

// Detect scans text with every rule in catalog order and returns one issue
// per match. Overlapping matches from different rules are not deduplicated;
// issue order follows (rule order, match order) and is not guaranteed to be
// left-to-right by span.
func (e *Engine) Detect(text string) []models.Issue {
	issues := []models.Issue{}
	issueID := 0

	for _, rule := range e.catalog {
		pos := 0
		for pos <= len(text) {
			loc := rule.Pattern.FindStringIndex(text[pos:])
			if loc == nil {
				break
			}
			start := pos + loc[0]
			end := pos + loc[1]
			matched := text[start:end]

			opts, ok := corrections(rule, matched)
			if !ok {
				// Rejected by the rule's Derive hook.
				if end == start {
					pos = end + 1
				} else {
					pos = end
				}
				continue
			}

			issues = append(issues, models.Issue{
				ID:          fmt.Sprintf("local-issue-%d", issueID),
				Kind:        rule.Kind,
				Text:        matched,
				Span:        models.Span{Start: start, End: end},
				Severity:    rule.Severity,
				Explanation: rule.Explanation,
				Corrections: opts,
			})
			issueID++

			// A zero-width match must not stall the scan.
			if end == start {
				pos = end + 1
			} else {
				pos = end
			}
		}
	}

	return issues
}

// corrections builds the ranked option list for one match. A Derive hook
// returning nil rejects the match; the engine emits no issue for it.
func corrections(rule Rule, matched string) ([]models.CorrectionOption, bool) {
	if rule.Derive != nil {
		opts := rule.Derive(matched)
		if opts == nil {
			return nil, false
		}
		return opts, true
	}
	out := make([]models.CorrectionOption, len(rule.Options))
	copy(out, rule.Options)
	return out, true
}
