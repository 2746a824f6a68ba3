package configregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// Options configures a Registry (spec §4.10).
type Options struct {
	LocalPath     string
	RemoteURL     string // optional JSON overlay fetched over HTTP; empty disables it
	DefaultGroup  string
	RequireRemote bool
	HTTPClient    *http.Client
	Logger        arbor.ILogger
}

// Registry is the generic JSON-backed configuration registry shared by
// topic and person feeds. It loads a local file plus an optional remote
// overlay, normalizes every entry, and maintains an alias index so callers
// can look entries up by key, identifier, or storage path (spec §4.10).
type Registry struct {
	opts Options

	mu      sync.RWMutex
	entries map[string]models.EntryConfig
	aliases map[string]string // alias -> canonical key
}

// New builds a Registry. Call Refresh to perform the first load.
func New(opts Options) *Registry {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.DefaultGroup == "" {
		opts.DefaultGroup = "general"
	}
	return &Registry{
		opts:    opts,
		entries: make(map[string]models.EntryConfig),
		aliases: make(map[string]string),
	}
}

// Refresh reloads the local file and (if configured) the remote overlay,
// re-normalizes every entry, and rebuilds the alias index from scratch
// (spec §4.10 "refreshable on demand and on a cron tick"). A remote entry
// replaces the local entry with the same raw key. When two different
// entries claim the same alias, the one visited later in map iteration
// wins, so which entry wins is not fixed from one refresh to the next.
func (r *Registry) Refresh(ctx context.Context) error {
	raw, err := r.loadLocal()
	if err != nil {
		raw = map[string]map[string]interface{}{}
	}

	if r.opts.RemoteURL != "" {
		remote, rerr := r.loadRemote(ctx)
		if rerr != nil {
			if r.opts.RequireRemote {
				return fmt.Errorf("config registry requires remote overlay but fetch failed: %w", rerr)
			}
			if r.opts.Logger != nil {
				r.opts.Logger.Warn().Err(rerr).Msg("config registry remote overlay fetch failed, continuing with local only")
			}
		} else {
			for k, v := range remote {
				raw[k] = v
			}
		}
	} else if r.opts.RequireRemote {
		return fmt.Errorf("config registry requires a remote overlay but none is configured")
	}

	entries := make(map[string]models.EntryConfig, len(raw))
	aliases := make(map[string]string)

	for rawKey, rawConfig := range raw {
		entry, ok := normalizeEntry(rawKey, rawConfig, r.opts.DefaultGroup)
		if !ok {
			continue
		}
		aliasList := aliasesFor(entry)
		entry.Aliases = aliasList
		entries[entry.Key] = entry
		for _, alias := range aliasList {
			aliases[alias] = entry.Key // later registration wins on collision
		}
	}

	if r.opts.RequireRemote && len(entries) == 0 {
		return fmt.Errorf("config registry loaded zero entries despite requiring a remote overlay")
	}

	r.mu.Lock()
	r.entries = entries
	r.aliases = aliases
	r.mu.Unlock()

	if r.opts.Logger != nil {
		r.opts.Logger.Info().Int("count", len(entries)).Msg("config registry refreshed")
	}
	return nil
}

// Get resolves key via the alias index: direct key match, then full-alias
// match, then (for slash- or dot-delimited keys) a match on the trailing
// segment (spec §4.10 "alias index").
func (r *Registry) Get(key string) (models.EntryConfig, bool) {
	if key == "" {
		return models.EntryConfig{}, false
	}
	keyNorm := normalizeKey(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.entries[keyNorm]; ok {
		return entry, true
	}
	if canonical, ok := r.aliases[keyNorm]; ok {
		entry, ok := r.entries[canonical]
		return entry, ok
	}
	if idx := strings.LastIndex(keyNorm, "/"); idx >= 0 {
		if canonical, ok := r.aliases[keyNorm[idx+1:]]; ok {
			entry, ok := r.entries[canonical]
			return entry, ok
		}
	}
	if idx := strings.LastIndex(keyNorm, "."); idx >= 0 {
		if canonical, ok := r.aliases[keyNorm[idx+1:]]; ok {
			entry, ok := r.entries[canonical]
			return entry, ok
		}
	}
	return models.EntryConfig{}, false
}

// All returns every normalized entry, keyed by its canonical key.
func (r *Registry) All() map[string]models.EntryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]models.EntryConfig, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

func (r *Registry) loadLocal() (map[string]map[string]interface{}, error) {
	data, err := os.ReadFile(r.opts.LocalPath)
	if err != nil {
		if r.opts.Logger != nil {
			r.opts.Logger.Info().Str("path", r.opts.LocalPath).Err(err).Msg("local config registry file not found")
		}
		return map[string]map[string]interface{}{}, nil
	}
	var out map[string]map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse local config registry file %s: %w", r.opts.LocalPath, err)
	}
	return out, nil
}

func (r *Registry) loadRemote(ctx context.Context) (map[string]map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.RemoteURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote config registry returned status %d", resp.StatusCode)
	}
	var out map[string]map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse remote config registry response: %w", err)
	}
	return out, nil
}
