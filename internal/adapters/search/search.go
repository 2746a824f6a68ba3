// Package search implements interfaces.SearchAdapter: a keyed search engine
// when an API key is configured, falling back to scraping a free HTML
// search endpoint's result links with goquery.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
)

// Adapter dispatches queries to a keyed JSON search API when apiKey is set,
// otherwise scrapes a free HTML search endpoint.
type Adapter struct {
	httpClient   *http.Client
	apiKey       string
	apiEndpoint  string // e.g. a SERP-style JSON API
	htmlEndpoint string // free HTML search endpoint used as fallback
	userAgent    string
}

var _ interfaces.SearchAdapter = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithAPIKey configures the keyed JSON search path.
func WithAPIKey(key, endpoint string) Option {
	return func(a *Adapter) {
		a.apiKey = key
		a.apiEndpoint = endpoint
	}
}

// WithHTMLEndpoint overrides the free HTML fallback endpoint.
func WithHTMLEndpoint(endpoint string) Option {
	return func(a *Adapter) {
		a.htmlEndpoint = endpoint
	}
}

// New builds a search adapter. With no options it falls back to scraping
// html.duckduckgo.com's lite HTML results page.
func New(httpClient *http.Client, opts ...Option) *Adapter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	a := &Adapter{
		httpClient:   httpClient,
		htmlEndpoint: "https://html.duckduckgo.com/html/",
		userAgent:    "Mozilla/5.0 (compatible; EquityEngineBot/1.0)",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Search returns up to limit result URLs for query.
func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if a.apiKey != "" {
		urls, err := a.searchAPI(ctx, query, limit)
		if err == nil {
			return urls, nil
		}
		// fall through to the free HTML path rather than failing the caller
	}
	return a.searchHTML(ctx, query, limit)
}

type apiResult struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

func (a *Adapter) searchAPI(ctx context.Context, query string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("key", a.apiKey)
	reqURL := a.apiEndpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search API request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call search API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API status %d", resp.StatusCode)
	}

	var decoded apiResult
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search API response: %w", err)
	}

	urls := make([]string, 0, limit)
	for _, r := range decoded.Results {
		if len(urls) >= limit {
			break
		}
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	return urls, nil
}

func (a *Adapter) searchHTML(ctx context.Context, query string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("q", query)
	reqURL := a.htmlEndpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build HTML search request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call HTML search endpoint: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML search results: %w", err)
	}

	var urls []string
	doc.Find("a.result__a, a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		if resolved := unwrapRedirect(href); resolved != "" {
			urls = append(urls, resolved)
		}
		return len(urls) < limit
	})
	return urls, nil
}

// unwrapRedirect resolves the free search engine's own redirect wrapper
// (e.g. "/l/?uddg=<encoded-target>") down to the real target URL.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
	}
	return ""
}
