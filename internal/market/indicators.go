package market

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
)

// TimeframeStats 汇总单周期的技术指标，直接进入提示词。
type TimeframeStats struct {
	BBHigh   float64 `json:"bb_high"`
	BBMid    float64 `json:"bb_mid"`
	BBLow    float64 `json:"bb_low"`
	ATR      float64 `json:"atr"`
	VWMA     float64 `json:"vwma"`
	Volume   float64 `json:"volume"`
	VolumeMA float64 `json:"volume_ma"`
	Regime   string  `json:"market_regime"`
}

const (
	bbPeriod     = 20
	bbDeviation  = 2.0
	atrPeriod    = 14
	vwmaPeriod   = 14
	emaFast      = 50
	emaSlow      = 200
	volumeMAWind = 20

	RegimeBullish  = "Bullish"
	RegimeBearish  = "Bearish"
	RegimeSideways = "Sideways"
)

// minCandles 是产出一份可信指标所需的最少 K 线数。
const minCandles = 50

// ComputeTimeframeStats 计算单个周期的指标快照。
// 取倒数第二根（最后一根已收盘的）K 线，避免把未完成的数据喂给模型。
func ComputeTimeframeStats(candles []Candle) (TimeframeStats, error) {
	var stats TimeframeStats
	if len(candles) < minCandles {
		return stats, fmt.Errorf("not enough candles: %d < %d", len(candles), minCandles)
	}
	closes := Closes(candles)
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		volumes[i] = c.Volume
	}
	last := len(candles) - 2

	upper, middle, lower := talib.BBands(closes, bbPeriod, bbDeviation, bbDeviation, talib.SMA)
	stats.BBHigh = sanitize(upper[last])
	stats.BBMid = sanitize(middle[last])
	stats.BBLow = sanitize(lower[last])

	atr := talib.Atr(highs, lows, closes, atrPeriod)
	stats.ATR = sanitize(atr[last])

	stats.VWMA = vwma(closes, volumes, vwmaPeriod, last)
	stats.Volume = volumes[last]

	volMA := talib.Sma(volumes, volumeMAWind)
	stats.VolumeMA = sanitize(volMA[last])

	stats.Regime = regime(closes, last)
	return stats, nil
}

// regime 用 EMA50/EMA200 判定趋势；慢线数据不足时视为震荡。
func regime(closes []float64, last int) string {
	if len(closes) < emaSlow {
		return RegimeSideways
	}
	fast := talib.Ema(closes, emaFast)
	slow := talib.Ema(closes, emaSlow)
	if slow[last] == 0 || math.IsNaN(slow[last]) {
		return RegimeSideways
	}
	if fast[last] > slow[last] {
		return RegimeBullish
	}
	return RegimeBearish
}

// vwma 计算成交量加权均价（talib 无此指标，按定义滚动计算）。
func vwma(closes, volumes []float64, period, last int) float64 {
	if last+1 < period {
		return 0
	}
	var pv, vol float64
	for i := last + 1 - period; i <= last; i++ {
		pv += closes[i] * volumes[i]
		vol += volumes[i]
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
