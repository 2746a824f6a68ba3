package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner.
func PrintBanner(config *Config, logger arbor.ILogger) {
	version := GetVersion()
	build := BuildTime
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("AI-CONTEXT DATA PRODUCTION CORE")
	b.PrintCenteredText("Financial, Trading, and News Engines")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Build", build, 15)
	b.PrintKeyValue("Environment", config.Environment, 15)
	b.PrintKeyValue("Service URL", serviceURL, 15)
	b.PrintKeyValue("Storage", config.Storage.Backend, 15)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("environment", config.Environment).
		Str("service_url", serviceURL).
		Str("storage_backend", config.Storage.Backend).
		Msg("application started")

	printCapabilities(config, logger)
	fmt.Printf("\n")
}

// printCapabilities displays the enabled engine schedules and AI-verification
// gate.
func printCapabilities(config *Config, logger arbor.ILogger) {
	fmt.Printf("Engines:\n")
	fmt.Printf("   - financial: %s\n", orDash(config.Scheduler.FinancialSchedule))
	fmt.Printf("   - trading:   %s\n", orDash(config.Scheduler.TradingSchedule))
	fmt.Printf("   - news:      %s\n", orDash(config.Scheduler.NewsSchedule))

	aiStatus := "disabled"
	if config.ReportSource.EnableAIVerification {
		aiStatus = fmt.Sprintf("enabled (%s)", config.Claude.Model)
	}
	fmt.Printf("   - report-source AI verification: %s\n", aiStatus)

	logger.Info().
		Str("financial_schedule", config.Scheduler.FinancialSchedule).
		Str("trading_schedule", config.Scheduler.TradingSchedule).
		Str("news_schedule", config.Scheduler.NewsSchedule).
		Bool("report_source_ai_verification", config.ReportSource.EnableAIVerification).
		Str("claude_model", config.Claude.Model).
		Msg("engine schedule and AI-verification capabilities")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// PrintShutdownBanner displays the application shutdown banner.
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Msg("application shutting down")
}

// PrintColorizedMessage prints a message with the given color.
func PrintColorizedMessage(color, message string, logger arbor.ILogger) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints a success message in green and logs it.
func PrintSuccess(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("[ok] %s", message), logger)
	logger.Info().Str("type", "success").Msg(message)
}

// PrintError prints an error message in red and logs it.
func PrintError(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("[error] %s", message), logger)
	logger.Error().Str("type", "error").Msg(message)
}

// PrintWarning prints a warning message in yellow and logs it.
func PrintWarning(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorYellow, fmt.Sprintf("[warn] %s", message), logger)
	logger.Warn().Str("type", "warning").Msg(message)
}

// PrintInfo prints an info message in cyan and logs it.
func PrintInfo(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorCyan, fmt.Sprintf("[info] %s", message), logger)
	logger.Info().Str("type", "info").Msg(message)
}
