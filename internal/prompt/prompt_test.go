package prompt

import (
	"testing"

	"folio/internal/market"
	"folio/internal/portfolio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInput(t *testing.T) Input {
	t.Helper()
	p := portfolio.New(10000)
	require.NoError(t, p.Buy("ETH/USDT", 1, 2000))
	p.UpdateLastKnownPrices(map[string]float64{"ETH/USDT": 2100})

	return Input{
		Portfolio: p,
		Snapshots: map[string]*market.SymbolSnapshot{
			"BTC/USDT": {
				Pair:            "BTC/USDT",
				CurrentPrice:    50000,
				BidAskSpreadPct: 0.0012,
				TimeframeStats: map[string]market.TimeframeStats{
					"4h": {
						BBHigh: 51000, BBMid: 50000, BBLow: 49000,
						ATR: 320.5, VWMA: 49987.2,
						Volume: 120, VolumeMA: 100,
						Regime: market.RegimeBullish,
					},
				},
			},
		},
		Correlation: market.CorrelationMatrix{
			"BTC": {"BTC": 1, "ETH": 0.82},
			"ETH": {"BTC": 0.82, "ETH": 1},
		},
		CorrelationThreshold: 0.7,
		Timeframes:           []string{"5m", "4h"},
	}
}

func TestBuildUserPrompt(t *testing.T) {
	out := BuildUserPrompt(testInput(t))

	t.Run("run header", func(t *testing.T) {
		assert.Contains(t, out, "Invocation: 0.")
	})

	t.Run("correlation matrix", func(t *testing.T) {
		assert.Contains(t, out, "--- ASSET CORRELATION MATRIX (4H Returns) ---")
		assert.Contains(t, out, "0.82")
		assert.Contains(t, out, "Avoid buying assets with >0.7 correlation")
	})

	t.Run("market analysis", func(t *testing.T) {
		assert.Contains(t, out, "--- BTC ---")
		assert.Contains(t, out, "Current Price: $50000.00")
		assert.Contains(t, out, "Bid-Ask Spread (Liquidity): 0.0012%")
		assert.Contains(t, out, "Timeframe: 4h")
		assert.Contains(t, out, "Market Regime: Bullish")
		assert.Contains(t, out, "Bollinger Bands: Low=$49000.00, Mid=$50000.00, High=$51000.00")
		assert.Contains(t, out, "Volume: 120 (Trend: Above Average)")
		// configured but absent timeframe is silently skipped
		assert.NotContains(t, out, "Timeframe: 5m")
	})

	t.Run("account section", func(t *testing.T) {
		assert.Contains(t, out, "--- ACCOUNT & PERFORMANCE ---")
		assert.Contains(t, out, "Available Cash: $8,000.00")
		assert.Contains(t, out, "Current Account Value: $10,100.00")
		assert.Contains(t, out, "Current Total Return (percent): 1.00%")
	})

	t.Run("positions section", func(t *testing.T) {
		assert.Contains(t, out, "--- CURRENT POSITIONS ---")
		assert.Contains(t, out, "- ETH: Notional: $2,100.00, Unrealized P&L: $100.00, Avg Entry: $2000.00")
	})
}

func TestBuildUserPromptOmitsEmptySections(t *testing.T) {
	out := BuildUserPrompt(Input{
		Portfolio:  portfolio.New(10000),
		Timeframes: []string{"4h"},
	})
	assert.NotContains(t, out, "CORRELATION MATRIX")
	assert.NotContains(t, out, "CURRENT POSITIONS")
	assert.Contains(t, out, "--- ACCOUNT & PERFORMANCE ---")
}

func TestHaltedStatusSurfacesInPrompt(t *testing.T) {
	p := portfolio.New(10000)
	p.CircuitBreakerTripped = true
	out := BuildUserPrompt(Input{Portfolio: p})
	assert.Contains(t, out, "STATUS: CIRCUIT BREAKER TRIPPED: TRADING HALTED")
}
