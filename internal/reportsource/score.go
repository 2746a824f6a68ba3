package reportsource

import (
	"net/url"
	"strings"

	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
)

// badHostBlocklist lists aggregator/directory hosts that routinely rank for
// "{ticker} investor relations" searches without being the company's own
// surface (spec §4.9 step 4 "Bad-host blocklist").
var badHostBlocklist = []string{
	"wikipedia.org", "wsj.com", "bloomberg.com", "marketwatch.com",
	"finance.yahoo.com", "stockanalysis.com", "macrotrends.net", "reddit.com",
}

var irKeywords = []string{"investor relations", "investor", "shareholders"}
var financialKeywords = []string{"annual report", "quarterly results", "financial results", "earnings"}
var secKeywords = []string{"10-k", "10-q", "8-k", "sec filing", "edgar"}

var urlSegmentHints = map[string]float64{
	"investor":           10,
	"investor-relations": 10,
	"financial-results":  9,
	"earnings":           8,
	"/home/default.aspx": 8,
	"annual-report":      8,
	"sec-filings":        8,
}

// ScoreInput bundles everything the scorer needs for one candidate
// (spec §4.9 step 4).
type ScoreInput struct {
	URL           string
	CompanyDomain string
	CompanyName   string
	Result        interfaces.FetchResult
	PageText      string
	FetchErr      error
}

// Score computes the raw numeric score for one fetched candidate
// (spec §4.9 step 4). It does not apply AI-verification or per-mode
// gating — those happen afterward, in Select.
func Score(in ScoreInput) float64 {
	if in.FetchErr != nil {
		return -20
	}

	var score float64
	score += statusScore(in.Result.Status, looksLikeIR(in.URL))
	if strings.Contains(strings.ToLower(in.Result.ContentType), "html") {
		score += 2
	}
	score += domainMatchScore(in.URL, in.CompanyDomain)
	score += keywordScore(in.Result.Title+" "+in.PageText, irKeywords, 6, 8)
	score += keywordScore(in.Result.Title+" "+in.PageText, financialKeywords, 4, 16)
	score += keywordScore(in.Result.Title+" "+in.PageText, secKeywords, 4, 16)
	score += urlSegmentScore(in.URL)
	score += companyNameTokenScore(in.PageText, in.CompanyName)

	if isErrorPage(in.Result, in.PageText) {
		score -= 120
	} else if isBotChallenge(in.PageText) && !looksLikeIR(in.URL) {
		score -= 40
	}

	if isBadHost(in.URL) {
		score -= 45
	}

	return score
}

func statusScore(status int, irLooking bool) float64 {
	switch {
	case status >= 200 && status < 300:
		return 12
	case status >= 300 && status < 400:
		return 4
	case (status == 403 || status == 429) && irLooking:
		return 13
	default:
		return -20
	}
}

func domainMatchScore(rawURL, companyDomain string) float64 {
	if companyDomain == "" {
		return 0
	}
	host := hostOf(rawURL)
	companyDomain = strings.ToLower(companyDomain)
	if host == companyDomain || host == "www."+companyDomain {
		return 20
	}
	if strings.HasSuffix(host, "."+companyDomain) {
		return 11
	}
	return 0
}

func keywordScore(text string, keywords []string, perHit float64, cap float64) float64 {
	lower := strings.ToLower(text)
	var total float64
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			total += perHit
		}
	}
	if total > cap {
		total = cap
	}
	return total
}

func urlSegmentScore(rawURL string) float64 {
	lower := strings.ToLower(rawURL)
	var best float64
	for segment, bonus := range urlSegmentHints {
		if strings.Contains(lower, segment) && bonus > best {
			best = bonus
		}
	}
	return best
}

func companyNameTokenScore(pageText, companyName string) float64 {
	tokens := strings.Fields(companyName)
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	lower := strings.ToLower(pageText)
	var total float64
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		if strings.Contains(lower, strings.ToLower(tok)) {
			total += 3
		}
	}
	return total
}

func isErrorPage(result interfaces.FetchResult, pageText string) bool {
	if result.Status >= 400 && result.Status != 403 && result.Status != 429 {
		return true
	}
	lower := strings.ToLower(result.Title + " " + pageText)
	return strings.Contains(lower, "page not found") || strings.Contains(lower, "404 error") || strings.Contains(lower, "access denied")
}

func isBotChallenge(pageText string) bool {
	lower := strings.ToLower(pageText)
	return strings.Contains(lower, "checking your browser") || strings.Contains(lower, "captcha") || strings.Contains(lower, "cloudflare")
}

func isBadHost(rawURL string) bool {
	host := hostOf(rawURL)
	for _, bad := range badHostBlocklist {
		if host == bad || strings.HasSuffix(host, "."+bad) {
			return true
		}
	}
	return false
}

func looksLikeIR(rawURL string) bool {
	host := hostOf(rawURL)
	for _, prefix := range sisterSubdomainPrefixes {
		if strings.HasPrefix(host, prefix+".") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(rawURL), "investor")
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}
