package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candlesFromCloses(closes []float64) []Candle {
	out := make([]Candle, len(closes))
	for i, c := range closes {
		out[i] = Candle{
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 100,
		}
	}
	return out
}

func TestReturns(t *testing.T) {
	candles := candlesFromCloses([]float64{100, 110, 99})
	got := Returns(candles)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.10, got[0], 1e-9)
	assert.InDelta(t, -0.10, got[1], 1e-9)

	t.Run("too few candles", func(t *testing.T) {
		assert.Nil(t, Returns(candlesFromCloses([]float64{100})))
	})

	t.Run("zero previous close yields zero return", func(t *testing.T) {
		got := Returns(candlesFromCloses([]float64{0, 50}))
		require.Len(t, got, 1)
		assert.Zero(t, got[0])
	})
}

func TestPearsonCorrelation(t *testing.T) {
	t.Run("perfectly correlated series", func(t *testing.T) {
		x := []float64{1, 2, 3, 4}
		y := []float64{2, 4, 6, 8}
		assert.InDelta(t, 1.0, pearson(x, y), 1e-9)
	})

	t.Run("perfectly anti-correlated series", func(t *testing.T) {
		x := []float64{1, 2, 3, 4}
		y := []float64{4, 3, 2, 1}
		assert.InDelta(t, -1.0, pearson(x, y), 1e-9)
	})

	t.Run("constant series has zero correlation", func(t *testing.T) {
		assert.Zero(t, pearson([]float64{1, 1, 1}, []float64{1, 2, 3}))
	})
}

func TestComputeCorrelationMatrix(t *testing.T) {
	matrix := ComputeCorrelationMatrix(map[string][]float64{
		"BTC": {0.01, 0.02, -0.01, 0.03},
		"ETH": {0.02, 0.04, -0.02, 0.06},
		// longer series: only the tail should be used for alignment
		"SOL": {0.5, -0.01, -0.02, 0.01, -0.03},
	})

	require.True(t, matrix.Has("BTC"))
	require.True(t, matrix.Has("SOL"))

	self, ok := matrix.Lookup("BTC", "BTC")
	require.True(t, ok)
	assert.InDelta(t, 1.0, self, 1e-9)

	cross, ok := matrix.Lookup("BTC", "ETH")
	require.True(t, ok)
	assert.InDelta(t, 1.0, cross, 1e-9)

	// symmetry
	a, _ := matrix.Lookup("BTC", "SOL")
	b, _ := matrix.Lookup("SOL", "BTC")
	assert.InDelta(t, a, b, 1e-9)

	t.Run("series shorter than two points are dropped", func(t *testing.T) {
		m := ComputeCorrelationMatrix(map[string][]float64{
			"BTC": {0.01},
			"ETH": {0.01, 0.02},
		})
		assert.False(t, m.Has("BTC"))
		assert.True(t, m.Has("ETH"))
	})

	t.Run("empty input yields empty matrix", func(t *testing.T) {
		assert.True(t, ComputeCorrelationMatrix(nil).IsEmpty())
	})
}

func TestComputeTimeframeStats(t *testing.T) {
	t.Run("rejects short history", func(t *testing.T) {
		_, err := ComputeTimeframeStats(candlesFromCloses(make([]float64, 10)))
		assert.Error(t, err)
	})

	t.Run("produces finite indicators from a trending series", func(t *testing.T) {
		closes := make([]float64, 250)
		for i := range closes {
			closes[i] = 100 + float64(i)*0.5 + 3*math.Sin(float64(i)/7)
		}
		stats, err := ComputeTimeframeStats(candlesFromCloses(closes))
		require.NoError(t, err)

		assert.Greater(t, stats.BBHigh, stats.BBMid)
		assert.Greater(t, stats.BBMid, stats.BBLow)
		assert.Greater(t, stats.ATR, 0.0)
		assert.Greater(t, stats.VWMA, 0.0)
		assert.Equal(t, 100.0, stats.Volume)
		assert.InDelta(t, 100.0, stats.VolumeMA, 1e-9)
		assert.Equal(t, RegimeBullish, stats.Regime)
	})

	t.Run("downtrend reads bearish", func(t *testing.T) {
		closes := make([]float64, 250)
		for i := range closes {
			closes[i] = 500 - float64(i)
		}
		stats, err := ComputeTimeframeStats(candlesFromCloses(closes))
		require.NoError(t, err)
		assert.Equal(t, RegimeBearish, stats.Regime)
	})

	t.Run("short history falls back to sideways regime", func(t *testing.T) {
		closes := make([]float64, 60)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		stats, err := ComputeTimeframeStats(candlesFromCloses(closes))
		require.NoError(t, err)
		assert.Equal(t, RegimeSideways, stats.Regime)
	})
}

func TestCurrentPrices(t *testing.T) {
	snaps := map[string]*SymbolSnapshot{
		"BTC/USDT": {Pair: "BTC/USDT", CurrentPrice: 50000},
		"ETH/USDT": {Pair: "ETH/USDT", CurrentPrice: 0}, // failed ticker
		"SOL/USDT": nil,
	}
	prices := CurrentPrices(snaps)
	assert.Equal(t, map[string]float64{"BTC/USDT": 50000}, prices)
}
