// Package configregistry implements the generic JSON-backed configuration
// registry shared by topic and person feeds (spec §4.10), grounded on
// original_source/news-crawler-agent/news_crawler/config_registry.py.
package configregistry

import (
	"encoding/json"
	"strconv"
	"strings"
)

func normalizeKey(raw string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), `\`, "/"))
}

func normalizeKeywords(v interface{}) []string {
	raw := ensureList(v)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}

// ensureList coerces a raw JSON value (string, comma-separated string, or
// array) into a trimmed, non-empty string slice.
func ensureList(v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return nil
		}
		if strings.Contains(trimmed, ",") {
			parts := strings.Split(trimmed, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
		return []string{trimmed}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(toString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

// coerceInt parses a raw JSON numeric/string field, returning fallback on
// any failure (spec §4.10 "coerce numerics").
func coerceInt(v interface{}, fallback int) int {
	switch val := v.(type) {
	case nil:
		return fallback
	case float64:
		return int(val)
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return fallback
		}
		return int(i)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return fallback
		}
		i, err := strconv.Atoi(trimmed)
		if err != nil {
			return fallback
		}
		return i
	default:
		return fallback
	}
}

func coerceBool(v interface{}, fallback bool) bool {
	switch val := v.(type) {
	case nil:
		return fallback
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return fallback
		}
		return b
	default:
		return fallback
	}
}

func firstNonEmpty(values ...interface{}) string {
	for _, v := range values {
		if s, ok := v.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
