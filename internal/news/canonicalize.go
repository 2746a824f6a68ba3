package news

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// wrapperParams lists the query parameters aggregators commonly use to wrap
// the true article URL behind a redirect link.
var wrapperParams = []string{"url", "q", "u"}

var embeddedHTTP = regexp.MustCompile(`https?://\S+`)

// CanonicalizeURL resolves a feed entry down to the single URL the rest of
// the pipeline treats as this article's identity (spec §4.6 step 2):
// prefer an explicit original-link field, then unwrap known redirector
// query params, then recover an http(s) URL embedded in the path, and
// finally normalize scheme/host casing and drop the fragment.
func CanonicalizeURL(entry models.FeedEntry) string {
	candidate := entry.Link
	if entry.OriginalLink != "" {
		candidate = entry.OriginalLink
	}

	if unwrapped := unwrapQueryParam(candidate); unwrapped != "" {
		candidate = unwrapped
	} else if i := strings.Index(candidate, "://"); i >= 0 {
		if embedded := embeddedHTTP.FindString(candidate[i+3:]); embedded != "" {
			candidate = embedded
		}
	}

	return normalizeURL(candidate)
}

func unwrapQueryParam(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	q := parsed.Query()
	for _, key := range wrapperParams {
		if v := q.Get(key); v != "" {
			if decoded, err := url.QueryUnescape(v); err == nil && strings.HasPrefix(decoded, "http") {
				return decoded
			}
		}
	}
	return ""
}

func normalizeURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	return parsed.String()
}
