package reportsource

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// secondaryThreshold is the minimum per-mode score a secondary link needs
// to be accepted during enrichment (spec §4.9 step 8).
const secondaryThreshold = 10

// Resolver implements the Report-Source Resolver (spec §4.9).
type Resolver struct {
	store         interfaces.ObjectStore
	fetcher       interfaces.WebFetcher
	searcher      interfaces.SearchAdapter
	verifier      interfaces.AIVerifier
	logger        arbor.ILogger
	cacheTTL      time.Duration
	aiEnabled     bool
	maxCandidates int
	hints         map[string]TickerHint
}

// Deps bundles the Resolver's constructor dependencies.
type Deps struct {
	Store         interfaces.ObjectStore
	Fetcher       interfaces.WebFetcher
	Searcher      interfaces.SearchAdapter
	Verifier      interfaces.AIVerifier // nil disables AI verification regardless of AIEnabled
	Logger        arbor.ILogger
	CacheTTL      time.Duration
	AIEnabled     bool
	MaxCandidates int
	Hints         map[string]TickerHint
}

// New builds a Resolver.
func New(d Deps) *Resolver {
	maxCandidates := d.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = MaxCandidates
	}
	return &Resolver{
		store:         d.Store,
		fetcher:       d.Fetcher,
		searcher:      d.Searcher,
		verifier:      d.Verifier,
		logger:        d.Logger,
		cacheTTL:      d.CacheTTL,
		aiEnabled:     d.AIEnabled && d.Verifier != nil,
		maxCandidates: maxCandidates,
		hints:         d.Hints,
	}
}

func reportSourcePath(ticker string) string {
	return fmt.Sprintf("report_sources/%s.json", strings.ToUpper(ticker))
}

// ResolveInput carries the per-ticker identity needed for candidate
// generation (spec §4.9 "Inputs").
type ResolveInput struct {
	Ticker        string
	CompanyName   string
	CompanyDomain string
	Force         bool
	Now           time.Time
}

// Resolve runs the full 9-step protocol (spec §4.9).
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (models.ReportSource, error) {
	if !in.Force {
		if cached, ok, err := r.loadCached(ctx, in.Ticker); err == nil && ok {
			if in.Now.Sub(cached.DiscoveredAt) < r.cacheTTL {
				return cached, nil
			}
			if cached.VerificationStatus == models.VerificationVerified {
				if recheck, ok := r.recheck(ctx, in, cached); ok {
					return recheck, nil
				}
			}
		}
	}

	hint := r.hintFor(in.Ticker)
	candidateURLs := GenerateCandidates(in.Ticker, in.CompanyName, in.CompanyDomain, hint, r.searchFn(ctx))
	if len(candidateURLs) > r.maxCandidates {
		candidateURLs = candidateURLs[:r.maxCandidates]
	}
	if r.logger != nil {
		r.logger.Debug().Str("ticker", in.Ticker).Int("candidate_count", len(candidateURLs)).Msg("report source full resolve starting")
	}

	scored := r.fetchAndScore(ctx, candidateURLs, in)
	scored = r.applyAIVerification(ctx, in, scored)

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	irURL, irOK := Select(ModeIR, scored, in.CompanyDomain)
	reportsURL, _ := Select(ModeReports, scored, in.CompanyDomain)
	secURL, _ := Select(ModeSEC, scored, in.CompanyDomain)

	result := models.ReportSource{
		Ticker:         strings.ToUpper(in.Ticker),
		CompanyName:    in.CompanyName,
		CompanyWebsite: in.CompanyDomain,
		DiscoveredAt:   in.Now.UTC(),
		Evidence: models.ReportSourceEvidence{
			CandidateCount: len(scored),
			Candidates:     toEvidenceCandidates(scored, 12),
			AIEnabled:      r.aiEnabled,
		},
	}

	usedFallback := false
	if !irOK && hint != nil && hint.IR != "" {
		irURL = hint.IR
		usedFallback = true
	}

	if irURL != "" && reportsURL == "" && r.fetcher != nil {
		if enriched, ok := r.enrichSecondaries(ctx, irURL, in); ok {
			if enriched.reports != "" {
				reportsURL = enriched.reports
			}
			if enriched.sec != "" {
				secURL = enriched.sec
			}
		}
	}

	result.IRHomeURL = irURL
	result.FinancialReportsURL = reportsURL
	result.SECFilingsURL = secURL
	result.VerificationStatus, result.Confidence = classifyVerification(irURL, reportsURL, secURL, usedFallback)

	if usedFallback {
		result.Evidence.Fallback = &models.ReportSourceFallback{Mode: string(ModeIR), Used: true}
	}

	if err := r.persist(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}

// classifyVerification drives the verification_status state machine
// (spec §4.9 "State machine").
func classifyVerification(ir, reports, sec string, usedFallback bool) (models.VerificationStatus, float64) {
	if usedFallback {
		return models.VerificationPartial, 0.22
	}
	if ir == "" {
		return models.VerificationNotFound, 0
	}
	secondaries := 0
	if reports != "" {
		secondaries++
	}
	if sec != "" {
		secondaries++
	}
	if secondaries >= 1 {
		return models.VerificationVerified, 0.8
	}
	return models.VerificationPartial, 0.5
}

func (r *Resolver) hintFor(ticker string) *TickerHint {
	if r.hints == nil {
		return nil
	}
	if h, ok := r.hints[strings.ToUpper(ticker)]; ok {
		return &h
	}
	return nil
}

func (r *Resolver) searchFn(ctx context.Context) func(string, int) []string {
	if r.searcher == nil {
		return nil
	}
	return func(query string, limit int) []string {
		urls, err := r.searcher.Search(ctx, query, limit)
		if err != nil {
			return nil
		}
		return urls
	}
}

func toEvidenceCandidates(scored []ScoredCandidate, max int) []models.ReportSourceCandidate {
	if len(scored) > max {
		scored = scored[:max]
	}
	out := make([]models.ReportSourceCandidate, len(scored))
	for i, c := range scored {
		out[i] = models.ReportSourceCandidate{URL: c.URL, Score: c.Score}
	}
	return out
}

func (r *Resolver) loadCached(ctx context.Context, ticker string) (models.ReportSource, bool, error) {
	data, err := r.store.Get(ctx, reportSourcePath(ticker))
	if err != nil {
		return models.ReportSource{}, false, nil
	}
	var rs models.ReportSource
	if err := json.Unmarshal(data, &rs); err != nil {
		return models.ReportSource{}, false, nil
	}
	return rs, true, nil
}

func (r *Resolver) persist(ctx context.Context, rs models.ReportSource) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return err
	}
	return r.store.Put(ctx, reportSourcePath(rs.Ticker), data, "application/json")
}
