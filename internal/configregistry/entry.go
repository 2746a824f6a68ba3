package configregistry

import (
	"sort"
	"strings"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// normalizeEntry converts one raw JSON object into a normalized
// models.EntryConfig (spec §4.10 "normalize"). The bool result is always
// true: a value that is not a JSON object already fails the typed decode in
// loadLocal/loadRemote.
func normalizeEntry(rawKey string, rawConfig map[string]interface{}, defaultGroup string) (models.EntryConfig, bool) {
	keyNorm := normalizeKey(rawKey)

	identifier := firstNonEmpty(rawConfig["topic_identifier"], rawConfig["person_identifier"])
	if identifier == "" {
		identifier = keyNorm
	}

	storagePath := firstNonEmpty(rawConfig["topic_storage_path"], rawConfig["person_storage_path"])
	if storagePath == "" {
		storagePath = identifier
	}
	storagePath = strings.ReplaceAll(strings.TrimSpace(storagePath), ".", "/")

	rssSources := ensureList(rawConfig["rss_sources"])
	if len(rssSources) == 0 {
		rssSources = ensureList(rawConfig["feed_urls"])
	}

	group := firstNonEmpty(rawConfig["topic_group"])
	if group == "" {
		if idx := strings.Index(storagePath, "/"); idx >= 0 {
			group = storagePath[:idx]
		} else {
			group = defaultGroup
		}
	}

	entry := models.EntryConfig{
		Key:                   keyNorm,
		Identifier:            identifier,
		StoragePath:           storagePath,
		Group:                 group,
		RSSSources:            rssSources,
		RequiredKeywords:      normalizeKeywords(rawConfig["required_keywords"]),
		ExcludedKeywords:      normalizeKeywords(rawConfig["excluded_keywords"]),
		HighlightKeywords:     normalizeKeywords(rawConfig["highlight_keywords"]),
		SourceAllowlist:       ensureList(rawConfig["source_allowlist"]),
		SourceBlocklist:       ensureList(rawConfig["source_blocklist"]),
		MinContentLength:      coerceInt(rawConfig["min_content_length"], 0),
		MinSummaryLength:      coerceInt(rawConfig["min_summary_length"], 0),
		RequireFullText:       coerceBool(rawConfig["require_full_text"], false),
		EnforceContentFilters: coerceBool(rawConfig["enforce_content_filters"], false),
		MaxArticles:           coerceInt(rawConfig["max_articles"], 0),
		MaxAgeHours:           coerceInt(rawConfig["max_age_hours"], 0),
	}

	return entry, true
}

// aliasesFor computes the full alias set for one normalized entry (spec
// §4.10 "alias index with collision-reassignment"): the key itself, its
// identifier (dotted and slashed forms), and its storage path (plus the
// storage path's last segment).
func aliasesFor(entry models.EntryConfig) []string {
	seen := map[string]bool{entry.Key: true}
	add := func(alias string) {
		if alias != "" {
			seen[alias] = true
		}
	}

	if entry.Identifier != "" {
		idNorm := normalizeKey(entry.Identifier)
		add(idNorm)
		add(strings.ReplaceAll(idNorm, ".", "/"))
	}

	if entry.StoragePath != "" {
		storageNorm := normalizeKey(entry.StoragePath)
		add(storageNorm)
		if idx := strings.LastIndex(storageNorm, "/"); idx >= 0 {
			add(storageNorm[idx+1:])
		}
	}

	out := make([]string, 0, len(seen))
	for alias := range seen {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}
