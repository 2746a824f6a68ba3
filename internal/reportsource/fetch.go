package reportsource

import (
	"context"
	"strings"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// fetchAndScore fetches every candidate URL (bounded by the WebFetcher
// implementation) and scores it (spec §4.9 steps 3-4).
func (r *Resolver) fetchAndScore(ctx context.Context, candidateURLs []string, in ResolveInput) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(candidateURLs))
	for _, url := range candidateURLs {
		if r.fetcher == nil {
			out = append(out, ScoredCandidate{URL: url, CompanyDomain: in.CompanyDomain})
			continue
		}
		result, err := r.fetcher.Fetch(ctx, url)
		score := Score(ScoreInput{
			URL:           url,
			CompanyDomain: in.CompanyDomain,
			CompanyName:   in.CompanyName,
			Result:        result,
			PageText:      result.TextSnippet,
			FetchErr:      err,
		})
		out = append(out, ScoredCandidate{URL: url, Score: score, CompanyDomain: in.CompanyDomain})
	}
	return out
}

// applyAIVerification re-verifies the top 3 scored candidates when AI
// verification is enabled and configured (spec §4.9 step 5).
func (r *Resolver) applyAIVerification(ctx context.Context, in ResolveInput, scored []ScoredCandidate) []ScoredCandidate {
	if !r.aiEnabled || len(scored) == 0 {
		return scored
	}

	ranked := append([]ScoredCandidate(nil), scored...)
	sortByScoreDesc(ranked)
	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}
	topSet := make(map[string]bool, len(top))
	for _, c := range top {
		topSet[c.URL] = true
	}

	for i := range scored {
		if !topSet[scored[i].URL] {
			continue
		}
		pageText := ""
		if r.fetcher != nil {
			pageText, _ = r.fetcher.ExtractBody(ctx, scored[i].URL)
		}
		verdict, err := r.verifier.VerifyIRPage(ctx, in.Ticker, scored[i].URL, pageText)
		if err != nil {
			continue
		}
		if verdict.IsOfficialIRPage {
			scored[i].Score += 10 + 8*verdict.Confidence
		} else if verdict.Confidence >= 0.7 {
			scored[i].Score -= 20
		}
	}
	return scored
}

func sortByScoreDesc(c []ScoredCandidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].Score > c[j-1].Score; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}

// recheck performs the lightweight accept-without-full-resolve path for a
// stale but previously verified cache entry (spec §4.9 step 1).
func (r *Resolver) recheck(ctx context.Context, in ResolveInput, cached models.ReportSource) (models.ReportSource, bool) {
	if r.fetcher == nil || cached.IRHomeURL == "" {
		return models.ReportSource{}, false
	}
	result, err := r.fetcher.Fetch(ctx, cached.IRHomeURL)
	if err != nil || result.Status < 200 || result.Status >= 400 {
		return models.ReportSource{}, false
	}
	if !domainLooksRight(cached.IRHomeURL, in.CompanyDomain) {
		return models.ReportSource{}, false
	}
	if !containsIRHint(result.TextSnippet) {
		return models.ReportSource{}, false
	}

	enriched, ok := r.enrichSecondaries(ctx, cached.IRHomeURL, in)
	if ok {
		if enriched.reports != "" {
			cached.FinancialReportsURL = enriched.reports
		}
		if enriched.sec != "" {
			cached.SECFilingsURL = enriched.sec
		}
	}
	cached.DiscoveredAt = in.Now.UTC()
	if err := r.persist(ctx, cached); err != nil {
		return models.ReportSource{}, false
	}
	return cached, true
}

func domainLooksRight(rawURL, companyDomain string) bool {
	host := hostOf(rawURL)
	if companyDomain == "" {
		return true
	}
	if host == companyDomain || strings.HasSuffix(host, "."+companyDomain) {
		return true
	}
	for _, prefix := range sisterSubdomainPrefixes {
		if strings.HasPrefix(host, prefix+".") {
			return true
		}
	}
	return false
}

func containsIRHint(pageText string) bool {
	lower := strings.ToLower(pageText)
	for _, hint := range []string{"investor relations", "shareholder", "annual report", "sec filing"} {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

type secondaryLinks struct {
	reports string
	sec     string
}

// enrichSecondaries fetches the IR page and scores its outbound links for
// mode fit, accepting the best link per mode above secondaryThreshold
// (spec §4.9 step 8).
func (r *Resolver) enrichSecondaries(ctx context.Context, irURL string, in ResolveInput) (secondaryLinks, bool) {
	if r.fetcher == nil {
		return secondaryLinks{}, false
	}
	result, err := r.fetcher.Fetch(ctx, irURL)
	if err != nil || len(result.Links) == 0 {
		return secondaryLinks{}, false
	}

	scored := r.fetchAndScore(ctx, result.Links, in)

	var out secondaryLinks
	found := false
	if url, ok := selectAboveThreshold(ModeReports, scored, in.CompanyDomain, secondaryThreshold); ok {
		out.reports = url
		found = true
	}
	if url, ok := selectAboveThreshold(ModeSEC, scored, in.CompanyDomain, secondaryThreshold); ok {
		out.sec = url
		found = true
	}
	return out, found
}

func selectAboveThreshold(mode Mode, candidates []ScoredCandidate, companyDomain string, threshold float64) (string, bool) {
	url, ok := Select(mode, candidates, companyDomain)
	if !ok {
		return "", false
	}
	for _, c := range candidates {
		if c.URL == url && c.Score >= threshold {
			return url, true
		}
	}
	return "", false
}
