package reportsource

import (
	"strings"
)

// minScore is the mode-specific survival floor (spec §4.9 step 6).
func minScore(mode Mode, hasHardSignal bool) float64 {
	switch mode {
	case ModeIR:
		if hasHardSignal {
			return 18
		}
		return 24
	default: // reports, sec
		return 30
	}
}

var homeLikePaths = []string{"/", "/en-us", "/home", "/default", "/default.aspx"}

// ScoredCandidate pairs a candidate URL with its computed score, ready for
// mode selection.
type ScoredCandidate struct {
	URL           string
	Score         float64
	CompanyDomain string
}

// hasHardSignal reports whether a candidate carries the mode-specific
// subdomain/path/text hint required before it can even be considered
// (spec §4.9 step 6 "hard signal gate").
func hasHardSignal(mode Mode, rawURL string) bool {
	lower := strings.ToLower(rawURL)
	switch mode {
	case ModeIR:
		return looksLikeIR(rawURL) || strings.Contains(lower, "/investor")
	case ModeReports:
		return strings.Contains(lower, "annual-report") || strings.Contains(lower, "financial") || strings.Contains(lower, "reports")
	case ModeSEC:
		return strings.Contains(lower, "sec.gov") || strings.Contains(lower, "sec-filing") || strings.Contains(lower, "edgar")
	}
	return false
}

// passesCompanyDomainMatch reports whether a candidate satisfies the
// mode's domain-match requirement (spec §4.9 step 6). IR always requires
// the candidate to sit on the company's own domain (or a sister
// subdomain of it); SEC also allows sec.gov; reports falls back to any
// positive domain-match score.
func passesCompanyDomainMatch(mode Mode, rawURL, companyDomain string) bool {
	if mode == ModeSEC && strings.Contains(strings.ToLower(hostOf(rawURL)), "sec.gov") {
		return true
	}
	return domainMatchScore(rawURL, companyDomain) > 0
}

func isHomeLikePath(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	idx := strings.Index(lower, "://")
	if idx < 0 {
		return false
	}
	rest := lower[idx+3:]
	slash := strings.Index(rest, "/")
	path := "/"
	if slash >= 0 {
		path = rest[slash:]
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	for _, home := range homeLikePaths {
		if path == home {
			return true
		}
	}
	return false
}

// Select picks the highest-scoring survivor for mode from the scored
// candidate set (spec §4.9 step 6). Returns ("", false) if none survive.
func Select(mode Mode, candidates []ScoredCandidate, companyDomain string) (string, bool) {
	var best string
	var bestScore float64
	found := false

	for _, c := range candidates {
		if !hasHardSignal(mode, c.URL) {
			continue
		}
		if !passesCompanyDomainMatch(mode, c.URL, companyDomain) {
			continue
		}

		score := c.Score
		if isHomeLikePath(c.URL) && !(mode == ModeIR && looksLikeIR(c.URL)) {
			score -= 15
		}

		if score < minScore(mode, hasHardSignal(mode, c.URL)) {
			continue
		}

		if !found || score > bestScore {
			best = c.URL
			bestScore = score
			found = true
		}
	}

	return best, found
}
