package report

import (
	"encoding/json"
	"testing"

	"folio/internal/decision"
	"folio/internal/portfolio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	p := portfolio.New(10000)
	require.NoError(t, p.Buy("BTC/USDT", 0.05, 50000))
	require.NoError(t, p.Buy("ETH/USDT", 1, 2000))
	p.UpdateLastKnownPrices(map[string]float64{"BTC/USDT": 52000, "ETH/USDT": 2000})
	p.RecordValueHistory(p.TotalValue())

	decs := []decision.Decision{
		{Symbol: "BTC", Action: "BUY", Quantity: 0.05, ExitPlan: "Sell above 60000"},
	}
	rep := Build("trace-1", p, "momentum play", decs, "")

	assert.Equal(t, "trace-1", rep.TraceID)
	assert.Empty(t, rep.Error)
	assert.Equal(t, "momentum play", rep.Reasoning)
	require.Len(t, rep.Positions, 2)

	// sorted by coin
	assert.Equal(t, "BTC", rep.Positions[0].Coin)
	assert.Equal(t, "ETH", rep.Positions[1].Coin)

	t.Run("exit plan backfilled from the matching decision", func(t *testing.T) {
		assert.Equal(t, "Sell above 60000", rep.Positions[0].ExitPlan)
		assert.Equal(t, "N/A", rep.Positions[1].ExitPlan)
	})

	t.Run("summary carries formatted dollar strings", func(t *testing.T) {
		assert.Equal(t, "$5,500.00", rep.Summary.AvailableCash)
		assert.Equal(t, "$10,100.00", rep.Summary.AccountValue)
		assert.Equal(t, "1.00%", rep.Summary.TotalReturn)
	})

	t.Run("position formatting", func(t *testing.T) {
		btc := rep.Positions[0]
		assert.Equal(t, "LONG", btc.Side)
		assert.Equal(t, "1x", btc.Leverage)
		assert.Equal(t, "$2,600.00", btc.Notional)
		assert.Equal(t, "$100.00", btc.UnrealPnL)
	})
}

func TestBuildHaltedCycle(t *testing.T) {
	p := portfolio.New(1000)
	p.AvailableCash = 700
	p.CircuitBreakerTripped = true
	p.RecordValueHistory(700)

	rep := Build("trace-2", p, "", nil, "Trading halted due to risk management checks.")
	assert.Equal(t, "Trading halted due to risk management checks.", rep.Error)
	assert.Equal(t, "CIRCUIT BREAKER TRIPPED: TRADING HALTED", rep.Summary.Status)
	assert.Empty(t, rep.Positions)
}

func TestReportJSONContract(t *testing.T) {
	p := portfolio.New(10000)
	p.RecordValueHistory(10000)
	rep := Build("trace-3", p, "r", nil, "")

	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "portfolio_summary")
	assert.Contains(t, decoded, "history")
	assert.Contains(t, decoded, "trade_history")

	summary, ok := decoded["portfolio_summary"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, summary, "Current Total Return (percent)")
	assert.Contains(t, summary, "Available Cash")
	assert.NotContains(t, summary, "STATUS")
}
