package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

func TestCanonicalizeURL_PrefersOriginalLink(t *testing.T) {
	entry := models.FeedEntry{
		Link:         "https://news.google.com/rss/articles/xyz",
		OriginalLink: "https://example.com/story",
	}
	assert.Equal(t, "https://example.com/story", CanonicalizeURL(entry))
}

func TestCanonicalizeURL_UnwrapsQueryParamRedirect(t *testing.T) {
	entry := models.FeedEntry{
		Link: "https://aggregator.test/out?url=https%3A%2F%2Fexample.com%2Fstory",
	}
	assert.Equal(t, "https://example.com/story", CanonicalizeURL(entry))
}

func TestCanonicalizeURL_RecoversEmbeddedHTTPInPath(t *testing.T) {
	entry := models.FeedEntry{
		Link: "https://aggregator.test/redirect/https://example.com/story",
	}
	assert.Equal(t, "https://example.com/story", CanonicalizeURL(entry))
}

func TestCanonicalizeURL_NormalizesSchemeAndHostCase(t *testing.T) {
	entry := models.FeedEntry{Link: "HTTPS://Example.COM/story#section"}
	assert.Equal(t, "https://example.com/story", CanonicalizeURL(entry))
}

func TestCanonicalizeURL_LeavesPlainURLUnchanged(t *testing.T) {
	entry := models.FeedEntry{Link: "https://example.com/story"}
	assert.Equal(t, "https://example.com/story", CanonicalizeURL(entry))
}
