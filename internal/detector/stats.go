package detector

import (
	"strings"
	"unicode/utf8"

	"github.com/zombar/writecoach/internal/models"
)

// Summarize aggregates document-level stats from one detection pass.
//
// The overall score penalizes issue density rather than raw counts: a long
// document with a few issues scores higher than a short one with the same
// few issues. Empty text scores 100.
func Summarize(text string, issues []models.Issue, sentences []models.SentenceRecord) models.Stats {
	stats := models.Stats{
		Words:      len(strings.Fields(text)),
		Characters: utf8.RuneCountInString(text),
		Sentences:  len(sentences),
	}

	for _, issue := range issues {
		switch issue.Kind {
		case models.KindGrammar:
			stats.GrammarErrors++
		case models.KindSpelling:
			stats.SpellingErrors++
		case models.KindStyle:
			stats.StyleIssues++
		case models.KindTone:
			stats.ToneIssues++
		case models.KindClarity:
			stats.ClarityIssues++
		case models.KindPunctuation:
			stats.Punctuation++
		}
	}
	for _, sentence := range sentences {
		if sentence.IsPassive {
			stats.PassiveVoice++
		}
	}

	stats.TotalErrors = stats.GrammarErrors + stats.SpellingErrors
	stats.TotalIssues = len(issues)
	stats.OverallScore = overallScore(text, stats.Words, stats.TotalIssues)
	return stats
}

func overallScore(text string, words, totalIssues int) float64 {
	if strings.TrimSpace(text) == "" {
		return 100
	}
	denominator := float64(words) / 10
	if denominator < 1 {
		denominator = 1
	}
	score := 100 - (float64(totalIssues)/denominator)*100
	if score < 0 {
		return 0
	}
	return score
}
