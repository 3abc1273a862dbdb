package detector

import (
	"regexp"
	"strings"

	"github.com/zombar/writecoach/internal/models"
)

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

	// Passive voice: a form of "be" followed by a regular -ed participle or
	// one of the common irregular participles.
	passiveRe = regexp.MustCompile(`(?i)\b(is|are|am|was|were|be|been|being)\s+` +
		`(\w+ed|born|broken|brought|built|bought|caught|chosen|done|drawn|driven|` +
		`eaten|fallen|felt|found|forgotten|given|gone|grown|heard|held|hidden|hit|` +
		`kept|known|laid|led|left|lost|made|meant|met|paid|put|read|ridden|` +
		`risen|said|seen|sent|set|shown|shut|sold|spent|spoken|stolen|sung|taken|taught|` +
		`thrown|told|thought|understood|worn|written|won)\b`)

	casualMarkerRe = regexp.MustCompile(`(?i)\b(gonna|wanna|yeah|ok|stuff|things|guys)\b`)

	ambiguousWordRe = regexp.MustCompile(`(?i)\b(this|that|it|they|things|stuff|something|someone)\b`)
)

// SplitSentences segments text on terminal punctuation runs and keeps
// fragments whose trimmed length exceeds 10 characters. Shorter fragments
// are too small to score meaningfully.
func SplitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if len(trimmed) > 10 {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// AnalyzeSentences scores each retained sentence of text. Issues are
// attributed to the sentence containing their span start, located by the
// sentence's first occurrence in the text; repeated identical sentences
// therefore all attribute to the first occurrence.
func AnalyzeSentences(text, style string, issues []models.Issue) []models.SentenceRecord {
	sentences := SplitSentences(text)
	records := make([]models.SentenceRecord, 0, len(sentences))
	for _, sentence := range sentences {
		start := strings.Index(text, sentence)
		end := start + len(sentence)

		sentenceIssues := make([]models.Issue, 0)
		for _, issue := range issues {
			if start >= 0 && issue.Span.Start >= start && issue.Span.Start < end {
				sentenceIssues = append(sentenceIssues, issue)
			}
		}

		words := len(strings.Fields(sentence))
		records = append(records, models.SentenceRecord{
			Sentence:     sentence,
			WordCount:    words,
			Complexity:   complexity(words),
			IsPassive:    passiveRe.MatchString(sentence),
			GrammarScore: grammarScore(sentenceIssues),
			ToneScore:    toneScore(sentence, style),
			ClarityScore: clarityScore(sentence),
			Issues:       sentenceIssues,
		})
	}
	return records
}

func complexity(words int) models.Complexity {
	switch {
	case words < 10:
		return models.ComplexitySimple
	case words < 20:
		return models.ComplexityModerate
	default:
		return models.ComplexityComplex
	}
}

func grammarScore(issues []models.Issue) int {
	errors := 0
	for _, issue := range issues {
		if issue.Kind == models.KindGrammar || issue.Kind == models.KindSpelling {
			errors++
		}
	}
	return floorScore(100 - 25*errors)
}

// toneScore penalizes casual markers when writing formally. Other styles
// are not penalized for tone.
func toneScore(sentence, style string) int {
	if style != models.StyleFormal {
		return 100
	}
	markers := len(casualMarkerRe.FindAllString(sentence, -1))
	return floorScore(100 - 30*markers)
}

func clarityScore(sentence string) int {
	ambiguous := len(ambiguousWordRe.FindAllString(sentence, -1))
	return floorScore(100 - 15*ambiguous)
}

func floorScore(score int) int {
	if score < 0 {
		return 0
	}
	return score
}
