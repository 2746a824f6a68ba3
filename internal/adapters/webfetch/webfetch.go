// Package webfetch implements interfaces.WebFetcher with a bounded HTTP
// fetch, goquery-based page summary, and html-to-markdown body
// normalization for the News ingest pipeline (spec §4.6 step 6).
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
)

const (
	maxHTMLBytes = 300 * 1024
	maxTextBytes = 20 * 1024
	maxLinks     = 80
)

// Adapter fetches pages over HTTP and extracts readable text with goquery.
type Adapter struct {
	httpClient *http.Client
	userAgent  string
}

var _ interfaces.WebFetcher = (*Adapter)(nil)

// New builds a web fetcher. httpClient nil uses a 15s default timeout.
func New(httpClient *http.Client, userAgent string) *Adapter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	return &Adapter{httpClient: httpClient, userAgent: userAgent}
}

func (a *Adapter) Fetch(ctx context.Context, url string) (interfaces.FetchResult, error) {
	resp, doc, err := a.fetchDocument(ctx, url)
	if err != nil {
		return interfaces.FetchResult{}, err
	}

	result := interfaces.FetchResult{
		FinalURL:    resp.Request.URL.String(),
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if doc == nil {
		return result, nil // unparseable body; status/headers still useful
	}

	result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	result.TextSnippet = truncate(extractText(doc), maxTextBytes)
	result.Links = extractLinks(doc, maxLinks)
	return result, nil
}

// ExtractBody re-fetches url and normalizes its cleaned body into markdown
// via html-to-markdown, giving the News pipeline's content-length filters
// and persisted Article.Extraction.Content a readable, link-preserving form
// rather than goquery's flattened plain text (spec §4.6 step 6).
func (a *Adapter) ExtractBody(ctx context.Context, url string) (string, error) {
	resp, doc, err := a.fetchDocument(ctx, url)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", nil
	}
	doc.Find("script,style,nav,footer,noscript").Remove()
	cleaned, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("render cleaned body for %s: %w", url, err)
	}

	converter := md.NewConverter(resp.Request.URL.String(), true, nil)
	markdown, err := converter.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("convert body to markdown for %s: %w", url, err)
	}
	return truncate(strings.TrimSpace(markdown), maxTextBytes), nil
}

// fetchDocument performs the bounded HTTP GET shared by Fetch and
// ExtractBody, parsing the body with goquery whatever its Content-Type. doc
// is nil only when goquery cannot parse the body.
func (a *Adapter) fetchDocument(ctx context.Context, url string) (*http.Response, *goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read body for %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return resp, nil, nil
	}
	return resp, doc, nil
}

func extractText(doc *goquery.Document) string {
	doc.Find("script,style,nav,footer,noscript").Remove()
	text := doc.Find("body").Text()
	return strings.Join(strings.Fields(text), " ")
}

func extractLinks(doc *goquery.Document, limit int) []string {
	var links []string
	seen := map[string]bool{}
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || href == "" || seen[href] {
			return true
		}
		seen[href] = true
		links = append(links, href)
		return len(links) < limit
	})
	return links
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
