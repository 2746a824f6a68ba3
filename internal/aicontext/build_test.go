package aicontext

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

func article(title, source, content, summary string, fullText bool, published time.Time) models.Article {
	return models.Article{
		Title:     title,
		Source:    source,
		URL:       "https://example.com/" + title,
		Published: published,
		Extraction: models.Extraction{
			Content:    content,
			Summary:    summary,
			FullTextOK: fullText,
		},
	}
}

func TestBuildStep1_FiltersOutThinArticles(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	keep := article("Good story", "Wire", strings.Repeat("word ", 20), "", true, now)
	drop := article("Too thin", "Wire", "short", "", true, now)

	doc := BuildStep1("AAPL", "2026-07-30", []models.Article{keep, drop}, now)
	assert.Contains(t, doc, "Good story")
	assert.NotContains(t, doc, "Too thin")
}

func TestBuildStep1_SortsByBodyThenLengthThenRecency(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	longBody := article("Long", "Wire", strings.Repeat("word ", 100), "", true, now.Add(-2*time.Hour))
	shortBody := article("Short", "Wire", strings.Repeat("word ", 15), "", true, now.Add(-1*time.Hour))
	summaryOnly := article("SummaryOnly", "Wire", "", "a useful summary that is long enough", false, now)

	doc := BuildStep1("AAPL", "2026-07-30", []models.Article{summaryOnly, shortBody, longBody}, now)
	longIdx := strings.Index(doc, "Long")
	shortIdx := strings.Index(doc, "Short")
	summaryIdx := strings.Index(doc, "SummaryOnly")
	assert.True(t, longIdx < shortIdx, "longer body article should sort before shorter body article")
	assert.True(t, shortIdx < summaryIdx, "body articles should sort before summary-only articles")
}

func TestBuildStep1_HeaderIncludesEntityAndDate(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	doc := BuildStep1("AAPL", "2026-07-30", nil, now)
	assert.Contains(t, doc, "News AI Context for AAPL on 2026-07-30")
	assert.Contains(t, doc, "Step: 1")
}

func TestBuildStep2_RestrictsToFullBodyArticles(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	withBody := article("Has body", "Wire", strings.Repeat("Revenue grew sharply. ", 10), "short summary here", true, now)
	summaryOnly := article("No body", "Wire", "", "summary only, no body", false, now)

	doc := BuildStep2("AAPL", "2026-07-30", []models.Article{withBody, summaryOnly}, now, 0, nil)
	assert.Contains(t, doc, "Has body")
	assert.NotContains(t, doc, "No body")
}

func TestBuildStep2_CapsArticleCount(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	var articles []models.Article
	for i := 0; i < 5; i++ {
		articles = append(articles, article("Story", "Wire", strings.Repeat("text ", 20), "summary text here long enough", true, now))
	}
	doc := BuildStep2("AAPL", "2026-07-30", articles, now, 2, nil)
	assert.Equal(t, 2, strings.Count(doc, "[Story"))
}

func TestBuildStep2_IncludesHighlightsWhenKeywordsMatch(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	content := "Intro sentence one. Intro sentence two. Intro sentence three. Revenue growth beat guidance this quarter. Unrelated filler sentence here."
	a := article("Earnings beat", "Wire", content, "short lead summary text", true, now)

	doc := BuildStep2("AAPL", "2026-07-30", []models.Article{a}, now, 0, []string{"revenue", "guidance"})
	assert.Contains(t, doc, "Highlights:")
	assert.Contains(t, doc, "Revenue growth beat guidance")
}

func TestBuildStep2_TruncatesToMaxLengthAtWhitespace(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	longSummary := strings.Repeat("word ", 400)
	a := article("Huge", "Wire", strings.Repeat("filler text here. ", 50), longSummary, true, now)

	doc := BuildStep2("AAPL", "2026-07-30", []models.Article{a}, now, 0, nil)
	for _, line := range strings.Split(doc, "\n") {
		if strings.Contains(line, "word word") {
			assert.True(t, utf8.RuneCountInString(line) <= MaxStep2Length+1)
		}
	}
}

func TestBuildStep2_EmptyInputYieldsDiagnosticStub(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	doc := BuildStep2("AAPL", "2026-07-30", nil, now, 0, nil)
	assert.Contains(t, doc, "No qualifying articles")
	assert.NotEmpty(t, doc)
}
