package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Search_HTMLFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a class="result__a" href="/l/?uddg=https%3A%2F%2Finvestors.example.com">IR</a>
		</body></html>`))
	}))
	defer srv.Close()

	a := New(nil, WithHTMLEndpoint(srv.URL))
	urls, err := a.Search(context.Background(), "example investor relations", 5)
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://investors.example.com", urls[0])
}

func TestUnwrapRedirect_PassesThroughPlainURLs(t *testing.T) {
	assert.Equal(t, "https://example.com", unwrapRedirect("https://example.com"))
}

func TestUnwrapRedirect_ReturnsEmptyForUnrecognized(t *testing.T) {
	assert.Equal(t, "", unwrapRedirect("/some/relative/path"))
}
