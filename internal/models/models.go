package models

import "time"

// IssueKind classifies a detected writing problem.
type IssueKind string

const (
	KindGrammar     IssueKind = "grammar"
	KindSpelling    IssueKind = "spelling"
	KindStyle       IssueKind = "style"
	KindTone        IssueKind = "tone"
	KindPassive     IssueKind = "passive"
	KindClarity     IssueKind = "clarity"
	KindPunctuation IssueKind = "punctuation"
)

// Writing styles supported by the checker. Style influences which remote
// rule families are enabled and whether tone is penalized.
const (
	StyleFormal   = "formal"
	StyleCasual   = "casual"
	StyleAcademic = "academic"
	StyleBusiness = "business"
	StyleCreative = "creative"
)

// Issue sources recorded on a report.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// Severity ranks how strongly an issue should be surfaced.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Span is a half-open [Start, End) offset pair into the text snapshot the
// issue was detected against. Spans are snapshot-bound: they are meaningless
// against any other text value.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// CorrectionOption is one candidate replacement for an issue's matched text.
// Confidence is a ranking hint (0-100), not a calibrated probability; remote
// and local sources assign it on different scales.
type CorrectionOption struct {
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
	Confidence  int    `json:"confidence"`
}

// Issue is a detected problem in a span of text. IDs are unique within a
// detection pass only; a new pass produces fresh issues.
type Issue struct {
	ID          string             `json:"id"`
	Kind        IssueKind          `json:"kind"`
	Text        string             `json:"text"` // matched substring at detection time
	Span        Span               `json:"span"`
	Severity    Severity           `json:"severity"`
	Explanation string             `json:"explanation"`
	Corrections []CorrectionOption `json:"corrections"` // ranked best-first
}

// Complexity buckets a sentence by word count.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"   // < 10 words
	ComplexityModerate Complexity = "moderate" // < 20 words
	ComplexityComplex  Complexity = "complex"  // >= 20 words
)

// SentenceRecord holds per-sentence structural scores for one detection pass.
type SentenceRecord struct {
	Sentence     string     `json:"sentence"`
	WordCount    int        `json:"word_count"`
	Complexity   Complexity `json:"complexity"`
	IsPassive    bool       `json:"is_passive"`
	GrammarScore int        `json:"grammar_score"`
	ToneScore    int        `json:"tone_score"`
	ClarityScore int        `json:"clarity_score"`
	Issues       []Issue    `json:"issues"`
	// RewriteSuggestion is an optional active-voice rewrite for passive
	// sentences, produced by the AI enrichment stage when available.
	RewriteSuggestion string `json:"rewrite_suggestion,omitempty"`
}

// Stats summarizes a document-level detection pass.
type Stats struct {
	Words          int     `json:"words"`
	Characters     int     `json:"characters"`
	Sentences      int     `json:"sentences"`
	GrammarErrors  int     `json:"grammar_errors"`
	SpellingErrors int     `json:"spelling_errors"`
	StyleIssues    int     `json:"style_issues"`
	ToneIssues     int     `json:"tone_issues"`
	PassiveVoice   int     `json:"passive_voice"`
	ClarityIssues  int     `json:"clarity_issues"`
	Punctuation    int     `json:"punctuation_issues"`
	TotalErrors    int     `json:"total_errors"` // grammar + spelling
	TotalIssues    int     `json:"total_issues"`
	OverallScore   float64 `json:"overall_score"` // 0-100 quality score
}

// Report is the complete output of one detection pass over a text snapshot.
type Report struct {
	Issues    []Issue          `json:"issues"`
	Sentences []SentenceRecord `json:"sentences"`
	Stats     Stats            `json:"stats"`
	// Source records which detector produced the issues: "remote" when the
	// grammar service answered, "local" after fallback to the rule engine.
	Source string `json:"source"`
}

// Document is a stored analysis report with its text snapshot.
type Document struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Style     string    `json:"style"`
	Report    Report    `json:"report"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Feedback is a user-submitted comment about the checker.
type Feedback struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
