// Package languagetool adapts a LanguageTool-compatible grammar service to
// the local issue model. The service is treated as a black box: text plus a
// language/style hint in, offset-based matches out. All transport and payload
// failures are surfaced as errors for the detector facade to absorb; nothing
// in this package panics or retries.
package languagetool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zombar/writecoach/internal/models"
)

const (
	DefaultBaseURL = "https://api.languagetool.org/v2/check"
	DefaultTimeout = 10 * time.Second

	// The remote source provides no calibrated confidence; every suggestion
	// gets this fixed ranking hint.
	remoteConfidence = 95

	// At most this many suggested replacements are kept per match.
	maxReplacements = 3
)

var (
	// ErrUnavailable signals a transport-level failure (connection, timeout,
	// non-2xx status).
	ErrUnavailable = errors.New("languagetool: service unavailable")

	// ErrMalformed signals an unparseable response payload.
	ErrMalformed = errors.New("languagetool: malformed response")
)

// Client talks to a LanguageTool /v2/check endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. An empty baseURL selects the public endpoint; a zero
// timeout selects the default. The remote call is the only suspension point
// in a detection pass, so it is always bounded.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// match mirrors the wire shape of one LanguageTool match.
type match struct {
	Message      string `json:"message"`
	Offset       int    `json:"offset"`
	Length       int    `json:"length"`
	Replacements []struct {
		Value string `json:"value"`
	} `json:"replacements"`
	Rule struct {
		Category struct {
			ID string `json:"id"`
		} `json:"category"`
	} `json:"rule"`
}

type checkResponse struct {
	Matches []match `json:"matches"`
}

// enabledRules returns the rule families to enable upstream for a style.
// Formal-leaning styles get the full set; everything else gets grammar and
// spelling only.
func enabledRules(style string) string {
	switch style {
	case models.StyleFormal, models.StyleAcademic, models.StyleBusiness:
		return "STYLE,GRAMMAR,TYPOS,PUNCTUATION"
	default:
		return "GRAMMAR,TYPOS"
	}
}

// Check submits text and maps the response into issues. Empty or whitespace
// input short-circuits to no issues before any network call.
func (c *Client) Check(ctx context.Context, text, language, style string) ([]models.Issue, error) {
	if strings.TrimSpace(text) == "" {
		return []models.Issue{}, nil
	}
	if language == "" {
		language = "en-US"
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("language", language)
	form.Set("enabledRules", enabledRules(style))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var parsed checkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return mapMatches(text, parsed.Matches), nil
}

// mapMatches converts wire matches into issues, dropping any match whose
// span does not fit the submitted text.
func mapMatches(text string, matches []match) []models.Issue {
	issues := []models.Issue{}
	for i, m := range matches {
		start := m.Offset
		end := m.Offset + m.Length
		if start < 0 || end < start || end > len(text) {
			continue
		}

		kind, severity := classify(m.Rule.Category.ID)

		replacements := m.Replacements
		if len(replacements) > maxReplacements {
			replacements = replacements[:maxReplacements]
		}
		corrections := make([]models.CorrectionOption, 0, len(replacements))
		for _, r := range replacements {
			corrections = append(corrections, models.CorrectionOption{
				Text:        r.Value,
				Explanation: "Suggested replacement",
				Confidence:  remoteConfidence,
			})
		}

		explanation := m.Message
		if explanation == "" {
			explanation = "Grammar or style issue detected"
		}

		issues = append(issues, models.Issue{
			ID:          fmt.Sprintf("api-issue-%d", i),
			Kind:        kind,
			Text:        text[start:end],
			Span:        models.Span{Start: start, End: end},
			Severity:    severity,
			Explanation: explanation,
			Corrections: corrections,
		})
	}
	return issues
}

// classify maps the remote category taxonomy onto the local issue kinds.
func classify(categoryID string) (models.IssueKind, models.Severity) {
	switch categoryID {
	case "TYPOS":
		return models.KindSpelling, models.SeverityHigh
	case "GRAMMAR":
		return models.KindGrammar, models.SeverityHigh
	case "STYLE":
		return models.KindStyle, models.SeverityMedium
	case "PUNCTUATION":
		return models.KindPunctuation, models.SeverityMedium
	default:
		return models.KindGrammar, models.SeverityMedium
	}
}
