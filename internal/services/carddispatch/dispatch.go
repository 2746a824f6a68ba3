// Package carddispatch implements orchestrator.CardDispatcher: it renders
// one card's text from the most recently published ai_context artifact for
// the ticker and persists it idempotently (spec §4.8 Phase 2).
package carddispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/westinedu/ai-courses-gcp/internal/common"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/models"
	"github.com/westinedu/ai-courses-gcp/internal/orchestrator"
)

// Renderer is the LLM boundary a Dispatcher renders card text through.
type Renderer interface {
	Render(ctx context.Context, backend, model, prompt string) (string, error)
}

// Dispatcher implements orchestrator.CardDispatcher.
type Dispatcher struct {
	store    interfaces.ObjectStore
	renderer Renderer
	logger   arbor.ILogger
}

var _ orchestrator.CardDispatcher = (*Dispatcher)(nil)

// New builds a Dispatcher.
func New(store interfaces.ObjectStore, renderer Renderer, logger arbor.ILogger) *Dispatcher {
	return &Dispatcher{store: store, renderer: renderer, logger: logger}
}

// GenerateCard renders cardType for ticker using llm's resolved
// backend/model, sourced from today's highest ai_context step for ticker,
// and persists the result idempotently at cards/{ticker}/{cardType}/{date}.json
// (spec §4.8 "idempotent generate card request").
func (d *Dispatcher) GenerateCard(ctx context.Context, ticker, cardType string, llm orchestrator.LLMTaskConfig) error {
	if d.renderer == nil {
		return fmt.Errorf("carddispatch: no renderer configured")
	}
	now := time.Now().UTC()
	date := now.Format("2006-01-02")

	contextText, err := d.latestContext(ctx, ticker, date)
	if err != nil {
		return fmt.Errorf("carddispatch: load context for %s: %w", ticker, err)
	}

	prompt := buildPrompt(ticker, cardType, contextText)
	text, err := d.renderer.Render(ctx, llm.Backend, llm.Model, prompt)
	if err != nil {
		return fmt.Errorf("carddispatch: render %s/%s: %w", ticker, cardType, err)
	}

	card := models.Card{
		ID:         common.NewDocumentID(),
		Ticker:     ticker,
		CardType:   cardType,
		Date:       date,
		Backend:    llm.Backend,
		Model:      llm.Model,
		Text:       text,
		RenderedAt: now,
	}
	data, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return fmt.Errorf("carddispatch: marshal card: %w", err)
	}

	path := cardPath(ticker, cardType, date)
	if _, err := d.store.PutIfAbsent(ctx, path, data, "application/json"); err != nil {
		return fmt.Errorf("carddispatch: persist card %s: %w", path, err)
	}
	return nil
}

func cardPath(ticker, cardType, date string) string {
	return fmt.Sprintf("cards/%s/%s/%s.json", ticker, cardType, date)
}

// latestContext reads today's ai_context daily index and returns the text of
// the highest-numbered step published for ticker, or "" if none exists yet
// (a card can still render from whatever is available).
func (d *Dispatcher) latestContext(ctx context.Context, ticker, date string) (string, error) {
	indexData, err := d.store.Get(ctx, fmt.Sprintf("ai_context/daily_index/%s.json", date))
	if err != nil {
		return "", nil
	}
	var index models.DailyIndex
	if err := json.Unmarshal(indexData, &index); err != nil {
		return "", nil
	}
	for _, entry := range index.Entries {
		if entry.Ticker != ticker {
			continue
		}
		text, err := d.store.Get(ctx, entry.Path)
		if err != nil {
			continue
		}
		return string(text), nil
	}
	return "", nil
}

func buildPrompt(ticker, cardType, contextText string) string {
	if contextText == "" {
		return fmt.Sprintf("Write a concise %s card for %s. No published news context is available yet; rely on general knowledge and say so explicitly.", cardType, ticker)
	}
	return fmt.Sprintf("Using only the context below, write a concise %s card for %s.\n\nContext:\n%s", cardType, ticker, contextText)
}
