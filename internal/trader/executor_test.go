package trader

import (
	"testing"

	"folio/internal/decision"
	"folio/internal/market"
	"folio/internal/portfolio"
	"folio/internal/risk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor() *Executor {
	return NewExecutor(risk.NewFilter(0.7))
}

func TestExecuteBuySellFlow(t *testing.T) {
	e := newExecutor()
	p := portfolio.New(10000)
	prices := map[string]float64{"BTC/USDT": 50000, "ETH/USDT": 2000}

	e.Execute(p, []decision.Decision{
		{Symbol: "BTC", Action: "BUY", Quantity: 0.05},
	}, prices, nil)

	assert.InDelta(t, 7500.0, p.AvailableCash, 1e-9)
	require.Contains(t, p.Positions, "BTC")
	// mark-to-market at the fill price keeps total value unchanged
	p.UpdateLastKnownPrices(prices)
	assert.InDelta(t, 10000.0, p.TotalValue(), 1e-9)

	e.Execute(p, []decision.Decision{
		{Symbol: "BTC", Action: "SELL", Quantity: 0.05},
	}, prices, nil)
	assert.InDelta(t, 10000.0, p.AvailableCash, 1e-9)
	assert.NotContains(t, p.Positions, "BTC")
}

func TestExecuteSkipRules(t *testing.T) {
	prices := map[string]float64{"BTC/USDT": 50000}

	t.Run("empty symbol is ignored", func(t *testing.T) {
		p := portfolio.New(10000)
		newExecutor().Execute(p, []decision.Decision{{Action: "BUY", Quantity: 1}}, prices, nil)
		assert.Equal(t, 10000.0, p.AvailableCash)
	})

	t.Run("dust quantity on a non-hold is skipped", func(t *testing.T) {
		p := portfolio.New(10000)
		newExecutor().Execute(p, []decision.Decision{
			{Symbol: "BTC", Action: "BUY", Quantity: 1e-12},
		}, prices, nil)
		assert.Empty(t, p.Positions)
	})

	t.Run("hold never trades regardless of quantity", func(t *testing.T) {
		p := portfolio.New(10000)
		newExecutor().Execute(p, []decision.Decision{
			{Symbol: "BTC", Action: "HOLD", Quantity: 5},
		}, prices, nil)
		assert.Empty(t, p.Positions)
		assert.Equal(t, 10000.0, p.AvailableCash)
	})

	t.Run("unrecognized action is treated as hold", func(t *testing.T) {
		p := portfolio.New(10000)
		newExecutor().Execute(p, []decision.Decision{
			{Symbol: "BTC", Action: "SHORT", Quantity: 1},
		}, prices, nil)
		assert.Empty(t, p.Positions)
	})

	t.Run("missing price skips the trade", func(t *testing.T) {
		p := portfolio.New(10000)
		newExecutor().Execute(p, []decision.Decision{
			{Symbol: "DOGE", Action: "BUY", Quantity: 100},
		}, prices, nil)
		assert.Empty(t, p.Positions)
	})

	t.Run("insufficient funds leaves the batch running", func(t *testing.T) {
		p := portfolio.New(1000)
		newExecutor().Execute(p, []decision.Decision{
			{Symbol: "BTC", Action: "BUY", Quantity: 1},    // costs 50000, rejected
			{Symbol: "BTC", Action: "BUY", Quantity: 0.01}, // affordable
		}, prices, nil)
		require.Contains(t, p.Positions, "BTC")
		assert.InDelta(t, 0.01, p.Positions["BTC"].Quantity, 1e-12)
	})

	t.Run("overselling is a logged no-op", func(t *testing.T) {
		p := portfolio.New(10000)
		newExecutor().Execute(p, []decision.Decision{
			{Symbol: "BTC", Action: "SELL", Quantity: 1},
		}, prices, nil)
		assert.Equal(t, 10000.0, p.AvailableCash)
	})
}

func TestExecuteCorrelationGate(t *testing.T) {
	e := newExecutor()
	prices := map[string]float64{"BTC/USDT": 50000, "ETH/USDT": 2000}
	matrix := market.CorrelationMatrix{
		"BTC": {"ETH": 0.85},
		"ETH": {"BTC": 0.85},
	}

	p := portfolio.New(10000)
	require.NoError(t, p.Buy("ETH/USDT", 1, 2000))

	t.Run("correlated buy is rejected", func(t *testing.T) {
		e.Execute(p, []decision.Decision{
			{Symbol: "BTC", Action: "BUY", Quantity: 0.05},
		}, prices, matrix)
		assert.NotContains(t, p.Positions, "BTC")
	})

	t.Run("sell is never gated", func(t *testing.T) {
		e.Execute(p, []decision.Decision{
			{Symbol: "ETH", Action: "SELL", Quantity: 0.5},
		}, prices, matrix)
		assert.InDelta(t, 0.5, p.Positions["ETH"].Quantity, 1e-12)
	})

	t.Run("empty matrix admits the buy", func(t *testing.T) {
		e.Execute(p, []decision.Decision{
			{Symbol: "BTC", Action: "BUY", Quantity: 0.05},
		}, prices, nil)
		assert.Contains(t, p.Positions, "BTC")
	})
}
