package rules

import (
	"regexp"
	"strings"

	"github.com/zombar/writecoach/internal/models"
)

// Rule is one pattern-based detection rule. A rule either carries a static
// ranked option list or a Derive function that builds the options from the
// literal matched text. Exactly one of Options/Derive is set. Derive may
// return nil to reject a match the pattern over-approximates. The engine
// treats every rule uniformly; the grammatical category behind a pattern is
// irrelevant to it.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Kind        models.IssueKind
	Severity    models.Severity
	Explanation string
	Options     []models.CorrectionOption
	Derive      func(match string) []models.CorrectionOption
}

// progressiveForms maps base verbs to their -ing form where plain suffixing
// is wrong. Unknown verbs fall back to base + "ing".
var progressiveForms = map[string]string{
	"run": "running", "come": "coming", "write": "writing", "take": "taking",
	"make": "making", "give": "giving", "drive": "driving", "live": "living",
	"dance": "dancing", "practice": "practicing", "exercise": "exercising",
	"smile": "smiling", "arrive": "arriving", "leave": "leaving",
	"move": "moving", "stop": "stopping", "sit": "sitting", "begin": "beginning",
	"forget": "forgetting", "swim": "swimming", "get": "getting",
	"lie": "lying", "die": "dying", "study": "studying", "try": "trying",
}

// baseForms maps third-person-singular verbs back to their base form where
// stripping the trailing "s" is wrong. Unknown verbs fall back to trimming.
var baseForms = map[string]string{
	"goes": "go", "does": "do", "has": "have", "says": "say",
	"watches": "watch", "washes": "wash", "catches": "catch",
	"teaches": "teach", "flies": "fly", "tries": "try", "studies": "study",
	"carries": "carry", "worries": "worry",
}

// progressive returns the -ing form of a base verb.
func progressive(verb string) string {
	verb = strings.ToLower(verb)
	if form, ok := progressiveForms[verb]; ok {
		return form
	}
	return verb + "ing"
}

// baseForm returns the base form of a third-person-singular verb.
func baseForm(verb string) string {
	lower := strings.ToLower(verb)
	if form, ok := baseForms[lower]; ok {
		return form
	}
	return strings.TrimSuffix(lower, "s")
}

// pluralSubject reports whether the first word of a match is a plural
// pronoun. The capitalized-word branch of the singular-subject patterns
// would otherwise flag "They are" and similar.
func pluralSubject(match string) bool {
	fields := strings.Fields(match)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToLower(fields[0]) {
	case "they", "we", "you", "people":
		return true
	}
	return false
}

// Verb alternations shared by the be+not and doesn't+verb patterns. Kept
// deliberately smaller than an exhaustive lexicon; unknown verbs are handled
// by the suffix heuristics above.
const commonVerbs = `work|go|come|run|play|study|learn|eat|sleep|think|write|read|speak|listen|watch|look|see|hear|feel|know|help|try|start|stop|finish|begin|end|continue|practice|exercise|dance|sing|cook|clean|wash|drive|walk|talk|laugh|cry|smile|jump|sit|stand|rest|relax|travel|visit|move|live|stay|leave|arrive|return|wait|swim|teach|rain|snow`

const thirdPersonVerbs = `likes|goes|does|has|says|thinks|wants|needs|makes|takes|gives|gets|comes|runs|walks|talks|works|plays|lives|loves|hates|knows|sees|hears|feels|looks|seems|appears|watches|teaches|studies|tries|carries`

var (
	beNotVerbRe     = regexp.MustCompile(`(?i)\b(is|are|am|was|were)\s+not\s+(` + commonVerbs + `)\b`)
	beVerbExtractRe = regexp.MustCompile(`(?i)\b(` + commonVerbs + `)\b$`)

	singularAgreementRe = regexp.MustCompile(`\b([Hh]e|[Ss]he|[Ii]t|[A-Z][a-z]+)\s+(are|were)\b`)
	pluralAgreementRe   = regexp.MustCompile(`(?i)\b(they|we|you)\s+(is|was)\b`)
	dontSingularRe      = regexp.MustCompile(`\b([Hh]e|[Ss]he|[Ii]t|[A-Z][a-z]+)\s+[Dd]on't\b`)
	doubleVerbRe        = regexp.MustCompile(`(?i)\b(doesn't|don't)\s+(` + thirdPersonVerbs + `)\b`)
	thirdPersonVerbRe   = regexp.MustCompile(`(?i)\b(` + thirdPersonVerbs + `)\b`)
	weatherRe           = regexp.MustCompile(`(?i)\bit's\s+(rain|snow|sun)\b`)
)

// Catalog returns the ordered local rule set. Order matters: the engine
// emits issues in catalog order, then match order.
func Catalog() []Rule {
	return []Rule{
		{
			Name:        "be_not_progressive",
			Pattern:     beNotVerbRe,
			Kind:        models.KindGrammar,
			Severity:    models.SeverityHigh,
			Explanation: "Verb form error: after 'be' verbs (is/are/am/was/were), use the progressive form (-ing) of the verb",
			Derive: func(match string) []models.CorrectionOption {
				verb := beVerbExtractRe.FindString(match)
				if verb == "" {
					return nil
				}
				replaced := strings.TrimSuffix(match, verb) + progressive(verb)
				return []models.CorrectionOption{
					{Text: replaced, Explanation: "Use progressive form (-ing) after 'be' verbs", Confidence: 100},
				}
			},
		},
		{
			Name:        "singular_subject_agreement",
			Pattern:     singularAgreementRe,
			Kind:        models.KindGrammar,
			Severity:    models.SeverityHigh,
			Explanation: "Subject-verb disagreement: singular subjects (he/she/it) require singular verbs",
			Derive: func(match string) []models.CorrectionOption {
				if pluralSubject(match) {
					return nil
				}
				present := strings.Replace(match, "are", "is", 1)
				past := strings.Replace(match, "were", "was", 1)
				opts := []models.CorrectionOption{}
				if present != match {
					opts = append(opts, models.CorrectionOption{Text: present, Explanation: "Singular subject requires 'is'", Confidence: 100})
				}
				if past != match {
					opts = append(opts, models.CorrectionOption{Text: past, Explanation: "Past tense singular form", Confidence: 95})
				}
				return opts
			},
		},
		{
			Name:        "plural_subject_agreement",
			Pattern:     pluralAgreementRe,
			Kind:        models.KindGrammar,
			Severity:    models.SeverityHigh,
			Explanation: "Subject-verb disagreement: plural subjects require plural verbs",
			Derive: func(match string) []models.CorrectionOption {
				present := strings.Replace(match, "is", "are", 1)
				past := strings.Replace(match, "was", "were", 1)
				opts := []models.CorrectionOption{}
				if present != match {
					opts = append(opts, models.CorrectionOption{Text: present, Explanation: "Plural subject requires 'are'", Confidence: 100})
				}
				if past != match {
					opts = append(opts, models.CorrectionOption{Text: past, Explanation: "Past tense plural form", Confidence: 95})
				}
				return opts
			},
		},
		{
			Name:        "third_person_dont",
			Pattern:     dontSingularRe,
			Kind:        models.KindGrammar,
			Severity:    models.SeverityHigh,
			Explanation: "Subject-verb disagreement: third person singular requires 'doesn't', not 'don't'",
			Derive: func(match string) []models.CorrectionOption {
				if pluralSubject(match) {
					return nil
				}
				contracted := strings.Replace(strings.Replace(match, "don't", "doesn't", 1), "Don't", "Doesn't", 1)
				expanded := strings.Replace(strings.Replace(match, "don't", "does not", 1), "Don't", "Does not", 1)
				return []models.CorrectionOption{
					{Text: contracted, Explanation: "Third person singular uses 'doesn't'", Confidence: 100},
					{Text: expanded, Explanation: "Formal alternative", Confidence: 95},
				}
			},
		},
		{
			Name:        "base_form_after_dont",
			Pattern:     doubleVerbRe,
			Kind:        models.KindGrammar,
			Severity:    models.SeverityHigh,
			Explanation: "Verb form error: after 'doesn't' or 'don't', use the base form of the verb (without -s)",
			Derive: func(match string) []models.CorrectionOption {
				replaced := thirdPersonVerbRe.ReplaceAllStringFunc(match, baseForm)
				return []models.CorrectionOption{
					{Text: replaced, Explanation: "Use base form after 'doesn't/don't'", Confidence: 100},
				}
			},
		},
		{
			Name:        "weather_expression",
			Pattern:     weatherRe,
			Kind:        models.KindGrammar,
			Severity:    models.SeverityHigh,
			Explanation: "Weather expression error: use progressive form (raining) or adjective (sunny) for weather",
			Derive: func(match string) []models.CorrectionOption {
				lower := strings.ToLower(match)
				switch {
				case strings.Contains(lower, "rain"):
					return []models.CorrectionOption{
						{Text: "it's raining", Explanation: "Use progressive form for weather", Confidence: 100},
						{Text: "it's rainy", Explanation: "Adjective form", Confidence: 90},
					}
				case strings.Contains(lower, "snow"):
					return []models.CorrectionOption{
						{Text: "it's snowing", Explanation: "Use progressive form for weather", Confidence: 100},
						{Text: "it's snowy", Explanation: "Adjective form", Confidence: 90},
					}
				default:
					return []models.CorrectionOption{
						{Text: "it's sunny", Explanation: "Use adjective form", Confidence: 100},
					}
				}
			},
		},
		{
			Name:        "spelling_alot",
			Pattern:     regexp.MustCompile(`(?i)\balot\b`),
			Kind:        models.KindSpelling,
			Severity:    models.SeverityHigh,
			Explanation: "Spelling error: 'a lot' should be written as two words",
			Options: []models.CorrectionOption{
				{Text: "a lot", Explanation: "Two separate words", Confidence: 100},
				{Text: "many", Explanation: "More concise alternative", Confidence: 80},
			},
		},
		{
			Name:        "spelling_recieve",
			Pattern:     regexp.MustCompile(`(?i)\brecieve\b`),
			Kind:        models.KindSpelling,
			Severity:    models.SeverityHigh,
			Explanation: "Spelling error: remember 'i before e except after c'",
			Options: []models.CorrectionOption{
				{Text: "receive", Explanation: "I before E except after C", Confidence: 100},
			},
		},
		{
			Name:        "spelling_definately",
			Pattern:     regexp.MustCompile(`(?i)\bdefinately\b`),
			Kind:        models.KindSpelling,
			Severity:    models.SeverityHigh,
			Explanation: "Spelling error: 'definitely' derives from 'finite'",
			Options: []models.CorrectionOption{
				{Text: "definitely", Explanation: "Standard spelling", Confidence: 100},
			},
		},
		{
			Name:        "spelling_seperate",
			Pattern:     regexp.MustCompile(`(?i)\bseperate\b`),
			Kind:        models.KindSpelling,
			Severity:    models.SeverityHigh,
			Explanation: "Spelling error: 'separate' has 'a rat' in the middle",
			Options: []models.CorrectionOption{
				{Text: "separate", Explanation: "Standard spelling", Confidence: 100},
			},
		},
		{
			Name:        "spelling_teh",
			Pattern:     regexp.MustCompile(`(?i)\bteh\b`),
			Kind:        models.KindSpelling,
			Severity:    models.SeverityHigh,
			Explanation: "Spelling error: transposed letters",
			Options: []models.CorrectionOption{
				{Text: "the", Explanation: "Standard spelling", Confidence: 100},
			},
		},
	}
}
