package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type fakeEngines struct {
	financialErr error
	tradingErr   error
	newsErr      error

	mu             sync.Mutex
	financialCalls []string
	tradingCalls   []string
	newsCalls      []string
}

func (f *fakeEngines) RunFinancial(ctx context.Context, tickers []string) error {
	f.mu.Lock()
	f.financialCalls = tickers
	f.mu.Unlock()
	return f.financialErr
}

func (f *fakeEngines) RunTrading(ctx context.Context, tickers []string) error {
	f.mu.Lock()
	f.tradingCalls = tickers
	f.mu.Unlock()
	return f.tradingErr
}

func (f *fakeEngines) RunNews(ctx context.Context, tickers []string, targets []AdditionalTarget) error {
	f.mu.Lock()
	f.newsCalls = tickers
	f.mu.Unlock()
	return f.newsErr
}

type fakeDispatcher struct {
	calls   int32
	failFor map[string]bool
}

func (f *fakeDispatcher) GenerateCard(ctx context.Context, ticker, cardType string, llm LLMTaskConfig) error {
	atomic.AddInt32(&f.calls, 1)
	if f.failFor != nil && f.failFor[ticker+":"+cardType] {
		return errors.New("dispatch failed")
	}
	return nil
}

func noopLogger() arbor.ILogger { return arbor.NewLogger() }

func TestRun_Phase2RunsOnlyAfterPhase1Succeeds(t *testing.T) {
	engines := &fakeEngines{}
	dispatcher := &fakeDispatcher{}
	o := New(engines, dispatcher, noopLogger(), time.Second)

	universe := Universe{
		Equities:               []string{"AAPL"},
		GlobalEngineControl:    EngineFlags{Financials: true, Trading: true, News: true},
		EnabledEquityCardTypes: []string{"summary"},
	}

	result, err := o.Run(context.Background(), universe)
	require.NoError(t, err)
	assert.False(t, result.Phase1Failed)
	assert.Equal(t, 1, result.Dispatched)
	assert.Equal(t, 1, result.Succeeded)
	assert.EqualValues(t, 1, dispatcher.calls)
}

func TestRun_Phase1FailureAbortsPhase2(t *testing.T) {
	engines := &fakeEngines{tradingErr: errors.New("upstream down")}
	dispatcher := &fakeDispatcher{}
	o := New(engines, dispatcher, noopLogger(), time.Second)

	universe := Universe{
		Equities:               []string{"AAPL"},
		GlobalEngineControl:    EngineFlags{Financials: true, Trading: true, News: true},
		EnabledEquityCardTypes: []string{"summary"},
	}

	result, err := o.Run(context.Background(), universe)
	require.Error(t, err)
	assert.True(t, result.Phase1Failed)
	assert.EqualValues(t, 0, dispatcher.calls, "phase 2 must not dispatch when phase 1 fails")
}

func TestRun_Phase2DispatchFailureDoesNotStopOtherDispatches(t *testing.T) {
	engines := &fakeEngines{}
	dispatcher := &fakeDispatcher{failFor: map[string]bool{"AAPL:summary": true}}
	o := New(engines, dispatcher, noopLogger(), time.Second)

	universe := Universe{
		Equities:               []string{"AAPL", "MSFT"},
		GlobalEngineControl:    EngineFlags{Financials: true, Trading: true, News: true},
		EnabledEquityCardTypes: []string{"summary"},
	}

	result, err := o.Run(context.Background(), universe)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Dispatched)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Succeeded)
}

func TestRun_CooperativeCancellationSkipsUnstartedDispatches(t *testing.T) {
	engines := &fakeEngines{}
	dispatcher := &fakeDispatcher{}
	o := New(engines, dispatcher, noopLogger(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel before Run even starts phase 2 dispatch loop

	universe := Universe{
		Equities:               []string{"AAPL"},
		GlobalEngineControl:    EngineFlags{Financials: true, Trading: true, News: true},
		EnabledEquityCardTypes: []string{"summary"},
	}

	result, err := o.Run(ctx, universe)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Dispatched)
}

func TestResolvePhase1Sets_OnlyIncludesFlaggedTickers(t *testing.T) {
	o := New(&fakeEngines{}, &fakeDispatcher{}, noopLogger(), time.Second)
	universe := Universe{
		Equities:            []string{"AAPL", "MSFT"},
		GlobalEngineControl: EngineFlags{Financials: true, Trading: false, News: true},
		PerTargetOverrides: []TargetOverride{
			{Ticker: "MSFT", RunEngines: &EngineOverride{Trading: boolPtr(true)}},
		},
	}
	financial, trading, news := o.resolvePhase1Sets(universe)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, financial)
	assert.ElementsMatch(t, []string{"MSFT"}, trading)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, news)
}
