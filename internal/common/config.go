package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the engine's configuration surface.
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Logging     LoggingConfig `toml:"logging"`
	Storage     StorageConfig `toml:"storage"`
	Cache       CacheConfig   `toml:"cache"`
	Refresh     RefreshConfig `toml:"refresh"`
	Timezone    string        `toml:"timezone"` // IANA zone name (default America/Los_Angeles); no component reads it, timestamps are written in UTC
	News        NewsConfig    `toml:"news"`
	AIContext   AIContextConfig `toml:"ai_context"`
	ReportSource ReportSourceConfig `toml:"report_source"`
	Claude      ClaudeConfig  `toml:"claude"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Universe    UniverseConfig `toml:"universe"`
	MarketData  MarketDataConfig `toml:"market_data"`
	Search      SearchConfig  `toml:"search"`
}

// MarketDataConfig configures the EODHD-backed MarketDataAdapter.
type MarketDataConfig struct {
	APIKey   string `toml:"api_key"`
	Exchange string `toml:"exchange"` // default exchange suffix, e.g. "US"
}

// SearchConfig configures the SearchAdapter's optional keyed API path.
type SearchConfig struct {
	APIKey      string `toml:"api_key"`
	APIEndpoint string `toml:"api_endpoint"`
}

// UniverseConfig names the per-run inputs the orchestrator needs beyond the
// Config Registry: the equity list file and the enabled card types/routing
// (spec §4.8 "Per-run inputs").
type UniverseConfig struct {
	EquitiesPath           string   `toml:"equities_path"`            // JSON array of tickers
	EnabledEquityCardTypes []string `toml:"enabled_equity_card_types"`
	DefaultLLMBackend      string   `toml:"default_llm_backend"`
	DefaultLLMModel        string   `toml:"default_llm_model"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // default "15:04:05.000"
}

// StorageConfig selects the object store backend used by every engine.
type StorageConfig struct {
	Backend       string `toml:"backend"`          // "local" or "gcs"
	LocalRoot     string `toml:"local_root"`       // root directory for the local backend
	GCSBucketName string `toml:"gcs_bucket_name"`  // bucket name, only used when backend == "gcs"
}

// CacheConfig holds the layered-cache TTLs described for the financial and
// report-source lookup paths.
type CacheConfig struct {
	FinancialL1HitTTLSeconds            int `toml:"financial_l1_hit_ttl_seconds"`
	FinancialL1MissTTLSeconds           int `toml:"financial_l1_miss_ttl_seconds"`
	FinancialNoEarningsMaxStalenessDays int `toml:"financial_no_earnings_max_staleness_days"`
	ReportSourceCacheTTLSeconds         int `toml:"report_source_cache_ttl_seconds"`
}

// RefreshConfig bounds how often upstream refresh calls may occur.
type RefreshConfig struct {
	MinIntervalSeconds int `toml:"min_refresh_interval_seconds"`
	FailBackoffSeconds int `toml:"fail_backoff_seconds"`
	FollowerWaitSeconds int `toml:"follower_wait_seconds"` // bounded wait for a singleflight follower
}

type NewsConfig struct {
	MaxAgeHours        int      `toml:"max_age_hours"`
	MaxArticlesPerFeed int      `toml:"max_articles_per_feed"`
	FeedURLs           []string `toml:"feed_urls"`
	KeywordFilters     []string `toml:"keyword_filters"`
}

type AIContextConfig struct {
	OutputSteps int `toml:"output_steps"` // number of summarization passes (default 2)
}

type ReportSourceConfig struct {
	EnableAIVerification bool `toml:"enable_ai_verification"`
	MaxCandidates        int  `toml:"max_candidates"`
}

// ClaudeConfig configures the Anthropic-backed AI verifier adapter.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

type SchedulerConfig struct {
	FinancialSchedule string `toml:"financial_schedule"` // cron expression, financial engine trigger
	TradingSchedule   string `toml:"trading_schedule"`   // cron expression, trading engine trigger
	NewsSchedule      string `toml:"news_schedule"`      // cron expression, news ingest trigger
}

// NewDefaultConfig returns the configuration used when no file overrides are
// supplied. Values mirror the defaults the upstream services were run with.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Storage: StorageConfig{
			Backend:   "local",
			LocalRoot: "./data",
		},
		Cache: CacheConfig{
			FinancialL1HitTTLSeconds:            600,
			FinancialL1MissTTLSeconds:           120,
			FinancialNoEarningsMaxStalenessDays: 3,
			ReportSourceCacheTTLSeconds:         86400,
		},
		Refresh: RefreshConfig{
			MinIntervalSeconds:  600,
			FailBackoffSeconds:  60,
			FollowerWaitSeconds: 12,
		},
		Timezone: "America/Los_Angeles",
		News: NewsConfig{
			MaxAgeHours:        48,
			MaxArticlesPerFeed: 30,
		},
		AIContext: AIContextConfig{
			OutputSteps: 2,
		},
		ReportSource: ReportSourceConfig{
			EnableAIVerification: true,
			MaxCandidates:        5,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-4-5",
			MaxTokens:   4096,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Scheduler: SchedulerConfig{
			FinancialSchedule: "0 0 7 * * *",
			TradingSchedule:   "0 */15 13-21 * * 1-5",
			NewsSchedule:      "0 */10 * * * *",
		},
		Universe: UniverseConfig{
			EquitiesPath:           "./data/equities.json",
			EnabledEquityCardTypes: []string{"daily_briefing"},
			DefaultLLMBackend:      "claude",
			DefaultLLMModel:        "claude-haiku-4-5",
		},
		MarketData: MarketDataConfig{
			Exchange: "US",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ENGINE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("ENGINE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("ENGINE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("ENGINE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("ENGINE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("ENGINE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}
	if bucket := os.Getenv("GCS_BUCKET_NAME"); bucket != "" {
		config.Storage.GCSBucketName = bucket
	}
	if root := os.Getenv("LOCAL_STORAGE_ROOT"); root != "" {
		config.Storage.LocalRoot = root
	}

	if v := os.Getenv("FINANCIAL_L1_HIT_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Cache.FinancialL1HitTTLSeconds = n
		}
	}
	if v := os.Getenv("FINANCIAL_L1_MISS_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Cache.FinancialL1MissTTLSeconds = n
		}
	}
	if v := os.Getenv("FINANCIAL_NO_EARNINGS_MAX_STALENESS_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Cache.FinancialNoEarningsMaxStalenessDays = n
		}
	}
	if v := os.Getenv("REPORT_SOURCE_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Cache.ReportSourceCacheTTLSeconds = n
		}
	}

	if v := os.Getenv("MIN_REFRESH_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Refresh.MinIntervalSeconds = n
		}
	}
	if v := os.Getenv("FAIL_BACKOFF_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Refresh.FailBackoffSeconds = n
		}
	}

	if tz := os.Getenv("ENGINE_TZ"); tz != "" {
		config.Timezone = tz
	}

	if v := os.Getenv("NEWS_MAX_AGE_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.News.MaxAgeHours = n
		}
	}
	if v := os.Getenv("MAX_ARTICLES_PER_TICKER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.News.MaxArticlesPerFeed = n
		}
	}

	if v := os.Getenv("AI_CONTEXT_OUTPUT_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.AIContext.OutputSteps = n
		}
	}

	if v := os.Getenv("REPORT_SOURCE_ENABLE_AI"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.ReportSource.EnableAIVerification = b
		}
	}
	if v := os.Getenv("REPORT_SOURCE_MAX_CANDIDATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.ReportSource.MaxCandidates = n
		}
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("ENGINE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	if apiKey := os.Getenv("EODHD_API_KEY"); apiKey != "" {
		config.MarketData.APIKey = apiKey
	}
	if apiKey := os.Getenv("SEARCH_API_KEY"); apiKey != "" {
		config.Search.APIKey = apiKey
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ValidateSchedule validates a 6-field cron schedule (with seconds) used by
// the scheduler service.
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// FinancialL1HitTTL returns the configured L1 cache TTL for cache hits.
func (c *Config) FinancialL1HitTTL() time.Duration {
	return time.Duration(c.Cache.FinancialL1HitTTLSeconds) * time.Second
}

// FinancialL1MissTTL returns the configured L1 cache TTL for negative results.
func (c *Config) FinancialL1MissTTL() time.Duration {
	return time.Duration(c.Cache.FinancialL1MissTTLSeconds) * time.Second
}

// MinRefreshInterval returns the minimum time that must elapse between
// upstream refreshes of the same key.
func (c *Config) MinRefreshInterval() time.Duration {
	return time.Duration(c.Refresh.MinIntervalSeconds) * time.Second
}

// FailBackoff returns the cooldown enforced after a failed refresh attempt.
func (c *Config) FailBackoff() time.Duration {
	return time.Duration(c.Refresh.FailBackoffSeconds) * time.Second
}

// FollowerWait returns the bounded time a follower will wait on an in-flight
// leader refresh before falling back to stale data.
func (c *Config) FollowerWait() time.Duration {
	return time.Duration(c.Refresh.FollowerWaitSeconds) * time.Second
}

// DeepCloneConfig creates a deep copy of the Config struct.
func DeepCloneConfig(c *Config) *Config {
	if c == nil {
		return nil
	}

	clone := *c

	if len(c.Logging.Output) > 0 {
		clone.Logging.Output = make([]string, len(c.Logging.Output))
		copy(clone.Logging.Output, c.Logging.Output)
	}
	if len(c.News.FeedURLs) > 0 {
		clone.News.FeedURLs = make([]string, len(c.News.FeedURLs))
		copy(clone.News.FeedURLs, c.News.FeedURLs)
	}
	if len(c.News.KeywordFilters) > 0 {
		clone.News.KeywordFilters = make([]string, len(c.News.KeywordFilters))
		copy(clone.News.KeywordFilters, c.News.KeywordFilters)
	}

	return &clone
}
