// Package aicontext implements the two-step AI-context text pipeline
// (spec §4.7): pure extractive text formatting, no LLM call involved.
package aicontext

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

const (
	// MaxStep2Length is the hard truncation bound for a step-2 block.
	MaxStep2Length = 1200

	minBodyContentLen = 50
	minSummaryLen     = 20
)

var defaultHighlightKeywords = []string{
	"revenue", "profit", "loss", "growth", "decline", "guidance", "forecast",
	"acquisition", "merger", "lawsuit", "investigation", "earnings", "dividend",
	"buyback", "layoff", "ceo", "resign", "launch", "recall", "partnership",
}

// BuildStep1 concatenates every qualifying article's full text (or summary
// when body text is unavailable) into one document (spec §4.7 step 1).
func BuildStep1(entity string, date string, articles []models.Article, now time.Time) string {
	filtered := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		bodyOK := a.Extraction.FullTextOK && len(a.Extraction.Content) > minBodyContentLen
		summaryOK := len(strings.TrimSpace(a.Extraction.Summary)) > minSummaryLen
		if bodyOK || summaryOK {
			filtered = append(filtered, a)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		ai, aj := filtered[i], filtered[j]
		if ai.Extraction.FullTextOK != aj.Extraction.FullTextOK {
			return ai.Extraction.FullTextOK
		}
		if len(ai.Extraction.Content) != len(aj.Extraction.Content) {
			return len(ai.Extraction.Content) > len(aj.Extraction.Content)
		}
		return ai.Published.After(aj.Published)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "--- News AI Context for %s on %s ---\n", entity, date)
	fmt.Fprintf(&b, "Generated: %s\n", now.UTC().Format(time.RFC3339))
	b.WriteString("Step: 1 (raw concatenation)\n\n")

	for _, a := range filtered {
		writeHeader(&b, a)
		if a.Extraction.FullTextOK {
			b.WriteString(a.Extraction.Content)
		} else {
			b.WriteString(a.Extraction.Summary)
		}
		b.WriteString("\n\n")
	}

	return b.String()
}

// BuildStep2 restricts to full-body articles, caps the count, and emits a
// condensed summary+highlights block per article, truncated to
// MaxStep2Length (spec §4.7 step 2).
func BuildStep2(entity string, date string, articles []models.Article, now time.Time, maxArticles int, highlightKeywords []string) string {
	if len(highlightKeywords) == 0 {
		highlightKeywords = defaultHighlightKeywords
	}

	filtered := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if a.Extraction.FullTextOK {
			filtered = append(filtered, a)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		ai, aj := filtered[i], filtered[j]
		if len(ai.Extraction.Content) != len(aj.Extraction.Content) {
			return len(ai.Extraction.Content) > len(aj.Extraction.Content)
		}
		return ai.Published.After(aj.Published)
	})
	if maxArticles > 0 && len(filtered) > maxArticles {
		filtered = filtered[:maxArticles]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- News AI Context for %s on %s ---\n", entity, date)
	fmt.Fprintf(&b, "Generated: %s\n", now.UTC().Format(time.RFC3339))
	b.WriteString("Step: 2 (filtered, summarized)\n\n")

	wrote := false
	for _, a := range filtered {
		block := condensedBlock(a, highlightKeywords)
		if block == "" {
			continue
		}
		writeHeader(&b, a)
		b.WriteString(block)
		b.WriteString("\n\n")
		wrote = true
	}

	if !wrote {
		return fmt.Sprintf("--- News AI Context for %s on %s ---\nGenerated: %s\nStep: 2 (filtered, summarized)\n\nNo qualifying articles found for this date.\n",
			entity, date, now.UTC().Format(time.RFC3339))
	}

	return b.String()
}

func writeHeader(b *strings.Builder, a models.Article) {
	fmt.Fprintf(b, "[%s | %s | %s | %s]\n", a.Title, a.Source, a.Published.UTC().Format(time.RFC3339), a.URL)
}

// condensedBlock builds the summary-plus-highlights block for one article,
// truncated to MaxStep2Length at a whitespace boundary.
func condensedBlock(a models.Article, keywords []string) string {
	lead := strings.TrimSpace(a.Extraction.Summary)
	if lead == "" {
		lead = strings.Join(firstSentences(a.Extraction.Content, 3), " ")
	}
	if lead == "" {
		return ""
	}

	highlights := highlightSentences(a.Extraction.Content, keywords, 3)
	var b strings.Builder
	b.WriteString(lead)
	if len(highlights) > 0 {
		b.WriteString("\nHighlights:\n")
		for _, h := range highlights {
			b.WriteString("- ")
			b.WriteString(h)
			b.WriteString("\n")
		}
	}

	return truncateAtWhitespace(b.String(), MaxStep2Length)
}

func truncateAtWhitespace(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexAny(cut, " \n\t"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \n\t") + "…"
}
