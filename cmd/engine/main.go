package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/westinedu/ai-courses-gcp/internal/adapters/feed"
	"github.com/westinedu/ai-courses-gcp/internal/adapters/market"
	"github.com/westinedu/ai-courses-gcp/internal/adapters/search"
	"github.com/westinedu/ai-courses-gcp/internal/adapters/webfetch"
	"github.com/westinedu/ai-courses-gcp/internal/cache"
	"github.com/westinedu/ai-courses-gcp/internal/common"
	"github.com/westinedu/ai-courses-gcp/internal/configregistry"
	"github.com/westinedu/ai-courses-gcp/internal/eodhd"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/news"
	"github.com/westinedu/ai-courses-gcp/internal/orchestrator"
	"github.com/westinedu/ai-courses-gcp/internal/reportsource"
	"github.com/westinedu/ai-courses-gcp/internal/services/carddispatch"
	engsvc "github.com/westinedu/ai-courses-gcp/internal/services/engine"
	"github.com/westinedu/ai-courses-gcp/internal/services/llm"
	"github.com/westinedu/ai-courses-gcp/internal/services/scheduler"
	"github.com/westinedu/ai-courses-gcp/internal/storage"
	"github.com/westinedu/ai-courses-gcp/internal/universe"
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()
	common.InstallCrashHandler("./logs")
	defer common.RecoverWithCrashFile()

	if *showVersion || *showVersionV {
		fmt.Printf("ai-courses-gcp engine version %s\n", common.GetVersion())
		os.Exit(0)
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("engine.toml"); err == nil {
			configFiles = append(configFiles, "engine.toml")
		}
	}

	// Startup sequence (required order): load config -> init logger -> print
	// banner -> wire adapters/services -> start scheduler.
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	logger := common.SetupLogger(config)
	common.InitLogger(logger)
	common.PrintBanner(config, logger)

	if err := run(config, logger); err != nil {
		logger.Fatal().Err(err).Msg("engine failed to start")
	}
}

func run(config *common.Config, logger arbor.ILogger) error {
	store, err := storage.New(config.Storage, logger)
	if err != nil {
		return fmt.Errorf("storage gateway: %w", err)
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}

	eodhdClient := eodhd.NewClient(config.MarketData.APIKey)
	marketAdapter := market.New(eodhdClient, config.MarketData.Exchange)
	feedAdapter := feed.New(httpClient, "")
	fetcher := webfetch.New(httpClient, "")

	var searchOpts []search.Option
	if config.Search.APIKey != "" {
		searchOpts = append(searchOpts, search.WithAPIKey(config.Search.APIKey, config.Search.APIEndpoint))
	}
	searchAdapter := search.New(httpClient, searchOpts...)

	var verifier interfaces.AIVerifier
	if config.ReportSource.EnableAIVerification && config.Claude.APIKey != "" {
		v, verr := reportsource.NewClaudeVerifier(config.Claude, logger)
		if verr != nil {
			logger.Warn().Err(verr).Msg("report-source AI verification disabled: verifier init failed")
		} else {
			verifier = v
		}
	}

	registry := configregistry.New(configregistry.Options{
		LocalPath: "./data/config_registry.json",
		Logger:    logger,
	})
	if err := registry.Refresh(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("initial config registry refresh failed; continuing with an empty registry")
	}

	resolver := reportsource.New(reportsource.Deps{
		Store:         store,
		Fetcher:       fetcher,
		Searcher:      searchAdapter,
		Verifier:      verifier,
		Logger:        logger,
		CacheTTL:      time.Duration(config.Cache.ReportSourceCacheTTLSeconds) * time.Second,
		AIEnabled:     config.ReportSource.EnableAIVerification,
		MaxCandidates: config.ReportSource.MaxCandidates,
	})

	financialCache := cache.NewFinancialCache(store, marketAdapter, config, logger)
	ohlcvGate := cache.NewOHLCVGate(store, marketAdapter, config, logger)
	newsPipeline := news.New(feedAdapter, fetcher, store)

	runner := engsvc.New(engsvc.Deps{
		Financial:     financialCache,
		OHLCV:         ohlcvGate,
		News:          newsPipeline,
		ReportSource:  resolver,
		ConfigEntries: registry,
		Store:         store,
		Logger:        logger,
		NewsMaxAge:    config.News.MaxAgeHours,
		NewsMaxPerRun: config.News.MaxArticlesPerFeed,
	})

	var dispatcher *carddispatch.Dispatcher
	if config.Claude.APIKey != "" {
		renderer, rerr := llm.NewClaudeRenderer(config.Claude, logger)
		if rerr != nil {
			logger.Warn().Err(rerr).Msg("card dispatch disabled: renderer init failed")
		} else {
			dispatcher = carddispatch.New(store, renderer, logger)
		}
	}
	if dispatcher == nil {
		dispatcher = carddispatch.New(store, noopRenderer{}, logger)
	}

	orch := orchestrator.New(runner, dispatcher, logger, 0)

	sched := scheduler.New(logger)
	runOnce := func() error {
		u, uerr := universe.Load(config, registry)
		if uerr != nil {
			return uerr
		}
		_, rerr := orch.Run(context.Background(), u)
		return rerr
	}

	if err := sched.Register("financial-trading-news-run", config.Scheduler.FinancialSchedule, runOnce); err != nil {
		return fmt.Errorf("scheduler: register run job: %w", err)
	}
	if err := registry.ScheduleRefresh(sched, "config-registry-refresh", config.Scheduler.NewsSchedule); err != nil {
		return fmt.Errorf("scheduler: register config refresh job: %w", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("scheduler: start: %w", err)
	}

	logger.Info().Msg("engine ready - press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	common.PrintShutdownBanner(logger)
	sched.Stop()
	return nil
}

// noopRenderer disables card dispatch (returns an explicit error) when no
// Claude API key is configured, so the orchestrator's Phase 2 still runs
// end to end — every dispatch just fails loudly — in environments without
// LLM access.
type noopRenderer struct{}

func (noopRenderer) Render(ctx context.Context, backend, model, prompt string) (string, error) {
	return "", fmt.Errorf("card dispatch: no LLM backend configured")
}
