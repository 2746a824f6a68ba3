package configregistry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLocalConfig(t *testing.T, raw map[string]map[string]interface{}) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "entries.json")
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRefresh_NormalizesEntryFields(t *testing.T) {
	path := writeLocalConfig(t, map[string]map[string]interface{}{
		"Acme Corp": {
			"topic_identifier":    "ACME",
			"topic_storage_path":  "equities.acme",
			"rss_sources":         "https://feeds.acme.com/rss, https://alt.acme.com/rss",
			"required_keywords":   []interface{}{"Earnings", "Guidance"},
			"min_content_length":  "250",
			"require_full_text":   "true",
			"max_age_hours":       48.0,
		},
	})

	reg := New(Options{LocalPath: path, DefaultGroup: "general"})
	require.NoError(t, reg.Refresh(context.Background()))

	entry, ok := reg.Get("Acme Corp")
	require.True(t, ok)
	assert.Equal(t, "ACME", entry.Identifier)
	assert.Equal(t, "equities/acme", entry.StoragePath)
	assert.Equal(t, []string{"https://feeds.acme.com/rss", "https://alt.acme.com/rss"}, entry.RSSSources)
	assert.Equal(t, []string{"earnings", "guidance"}, entry.RequiredKeywords)
	assert.Equal(t, 250, entry.MinContentLength)
	assert.True(t, entry.RequireFullText)
	assert.Equal(t, 48, entry.MaxAgeHours)
	assert.Equal(t, "equities", entry.Group)
}

func TestGet_ResolvesByAliasAndTrailingSegment(t *testing.T) {
	path := writeLocalConfig(t, map[string]map[string]interface{}{
		"acme": {
			"topic_identifier":   "ACME",
			"topic_storage_path": "equities/acme",
		},
	})
	reg := New(Options{LocalPath: path})
	require.NoError(t, reg.Refresh(context.Background()))

	_, ok := reg.Get("ACME")
	assert.True(t, ok)
	_, ok = reg.Get("equities/acme")
	assert.True(t, ok)
	_, ok = reg.Get("some/prefix/acme")
	assert.True(t, ok, "trailing segment of a slash-delimited key should resolve via alias")
}

func TestGet_UnknownKeyReturnsFalse(t *testing.T) {
	path := writeLocalConfig(t, map[string]map[string]interface{}{})
	reg := New(Options{LocalPath: path})
	require.NoError(t, reg.Refresh(context.Background()))

	_, ok := reg.Get("nonexistent")
	assert.False(t, ok)
}

func TestRefresh_RemoteOverlayOverridesLocalOnKeyCollision(t *testing.T) {
	localPath := writeLocalConfig(t, map[string]map[string]interface{}{
		"acme": {"topic_identifier": "ACME", "max_articles": 10},
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"acme": {"topic_identifier": "ACME", "max_articles": 99}}`))
	}))
	defer server.Close()

	reg := New(Options{LocalPath: localPath, RemoteURL: server.URL})
	require.NoError(t, reg.Refresh(context.Background()))

	entry, ok := reg.Get("acme")
	require.True(t, ok)
	assert.Equal(t, 99, entry.MaxArticles)
}

func TestRefresh_RequireRemoteFailsWhenUnreachable(t *testing.T) {
	localPath := writeLocalConfig(t, map[string]map[string]interface{}{})
	reg := New(Options{LocalPath: localPath, RemoteURL: "http://127.0.0.1:0/unreachable", RequireRemote: true})
	err := reg.Refresh(context.Background())
	assert.Error(t, err)
}

func TestRefresh_MissingLocalFileYieldsEmptyRegistryWithoutError(t *testing.T) {
	reg := New(Options{LocalPath: filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, reg.Refresh(context.Background()))
	assert.Empty(t, reg.All())
}

func TestAliasesFor_IncludesDottedAndSlashedIdentifierForms(t *testing.T) {
	path := writeLocalConfig(t, map[string]map[string]interface{}{
		"person.john-smith": {
			"person_identifier":   "john.smith",
			"person_storage_path": "people.john-smith",
		},
	})
	reg := New(Options{LocalPath: path})
	require.NoError(t, reg.Refresh(context.Background()))

	entry, ok := reg.Get("person.john-smith")
	require.True(t, ok)
	assert.Contains(t, entry.Aliases, "john.smith")
	assert.Contains(t, entry.Aliases, "john/smith")
}
