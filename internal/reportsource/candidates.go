// Package reportsource implements the Report-Source Resolver (spec §4.9):
// candidate generation, bounded fetch, scoring, optional AI verification,
// per-mode selection, and persistence of a company's investor-relations
// surface.
package reportsource

import (
	"fmt"
	"strings"
)

// Mode names one of the three URL roles a ReportSource resolves.
type Mode string

const (
	ModeIR      Mode = "ir"
	ModeReports Mode = "reports"
	ModeSEC     Mode = "sec"
)

// MaxCandidates bounds candidate generation (spec §4.9 step 2, "≈ 24").
const MaxCandidates = 24

var irPathPatterns = []string{
	"/investor-relations", "/reports.html", "/annual-reports", "/financials",
	"/investors", "/ir",
}

var sisterSubdomainPrefixes = []string{"investor", "investors", "ir", "stock"}

// TickerHint is a static, operator-curated fallback URL set for one ticker
// (spec §4.9 step 2 "Per-ticker hinted URLs", and step 7's fallback path).
type TickerHint struct {
	Ticker  string
	IR      string
	Reports string
	SEC     string
}

// GenerateCandidates builds the deduplicated, priority-ordered candidate
// URL list for one ticker (spec §4.9 step 2). companyDomain is the bare
// registered domain (e.g. "example.com"); companyName is used to build
// search queries.
func GenerateCandidates(ticker, companyName, companyDomain string, hint *TickerHint, searcher func(query string, limit int) []string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(url string) {
		url = strings.TrimSpace(url)
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		out = append(out, url)
	}

	if hint != nil {
		add(hint.IR)
		add(hint.Reports)
		add(hint.SEC)
	}

	if companyDomain != "" {
		add("https://" + companyDomain)
		for _, prefix := range sisterSubdomainPrefixes {
			add(fmt.Sprintf("https://%s.%s", prefix, companyDomain))
		}
		for _, path := range irPathPatterns {
			add("https://" + companyDomain + path)
			for _, prefix := range sisterSubdomainPrefixes {
				add(fmt.Sprintf("https://%s.%s%s", prefix, companyDomain, path))
			}
		}
	}

	if searcher != nil {
		queries := []string{
			fmt.Sprintf("%s investor relations", ticker),
			fmt.Sprintf("%s financial results investor relations", ticker),
			fmt.Sprintf("%s annual report", ticker),
		}
		if companyName != "" {
			queries = append(queries, fmt.Sprintf("%s investor relations", companyName))
		}
		for _, q := range queries {
			for _, url := range searcher(q, 5) {
				add(url)
				if len(out) >= MaxCandidates {
					break
				}
			}
			if len(out) >= MaxCandidates {
				break
			}
		}
	}

	if len(out) > MaxCandidates {
		out = out[:MaxCandidates]
	}
	return out
}
