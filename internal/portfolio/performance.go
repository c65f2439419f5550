package portfolio

import (
	"time"

	"folio/internal/decision"
	"folio/internal/pkg/money"
)

// maxTradeHistory 限制留存的决策记录条数，防止状态无限膨胀。
const maxTradeHistory = 100

// Summary 是账户绩效摘要（数值形态，格式化交给报表层）。
type Summary struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	AvailableCash  float64 `json:"available_cash"`
	AccountValue   float64 `json:"account_value"`
	PeakValue      float64 `json:"peak_value"`
	DrawdownPct    float64 `json:"drawdown_pct"`
	// Status 在熔断后为非空的告警文案。
	Status string `json:"status,omitempty"`
}

// PositionDetail 是单个持仓的展示明细。
type PositionDetail struct {
	Side          string  `json:"side"`
	Coin          string  `json:"coin"`
	Leverage      string  `json:"leverage"`
	Notional      float64 `json:"notional"`
	UnrealizedPnL float64 `json:"unreal_pnl"`
	EntryPrice    float64 `json:"entry_price"`
	Quantity      float64 `json:"quantity"`
	// ExitPlan 由报表层按当期决策回填，缺省 "N/A"。
	ExitPlan string `json:"exit_plan"`
}

// TradeRecord 留存一次模型咨询的决策与推理，供前端回放。
type TradeRecord struct {
	Timestamp      string              `json:"timestamp"`
	Reasoning      string              `json:"reasoning"`
	Decisions      []decision.Decision `json:"decisions"`
	PortfolioValue float64             `json:"portfolio_value"`
}

// TotalValue 计算账户总值：现金加上各持仓按回退链价格的名义价值。
func (p *Portfolio) TotalValue() float64 {
	total := p.AvailableCash
	for base, pos := range p.Positions {
		total += pos.Quantity * p.PriceForValuation(base)
	}
	return total
}

// AccountSummary 计算收益率与回撤。initial_cash、peak_value 为零时
// 对应比率按 0 处理，避免除零。
func (p *Portfolio) AccountSummary() Summary {
	value := p.TotalValue()
	s := Summary{
		AvailableCash: p.AvailableCash,
		AccountValue:  value,
		PeakValue:     p.PeakValue,
	}
	if p.InitialCash > 0 {
		s.TotalReturnPct = (value/p.InitialCash - 1) * 100
	}
	if p.PeakValue > 0 {
		s.DrawdownPct = (p.PeakValue - value) / p.PeakValue * 100
	}
	if p.CircuitBreakerTripped {
		s.Status = "CIRCUIT BREAKER TRIPPED: TRADING HALTED"
	}
	return s
}

// DetailedPositions 返回持仓明细。现货只有多头，统一 1x 杠杆。
func (p *Portfolio) DetailedPositions() []PositionDetail {
	out := make([]PositionDetail, 0, len(p.Positions))
	for base, pos := range p.Positions {
		price := p.PriceForValuation(base)
		out = append(out, PositionDetail{
			Side:          "LONG",
			Coin:          base,
			Leverage:      "1x",
			Notional:      pos.Quantity * price,
			UnrealizedPnL: (price - pos.EntryPrice) * pos.Quantity,
			EntryPrice:    pos.EntryPrice,
			Quantity:      pos.Quantity,
			ExitPlan:      "N/A",
		})
	}
	return out
}

// RecordValueHistory 记录权益点。峰值每次调用都无条件刷新（回撤必须
// 对着最新峰值测量）；历史仅在四舍五入到分位后与上一点不同才追加，
// 属于去重规则而非采样规则。
func (p *Portfolio) RecordValueHistory(value float64) {
	if value > p.PeakValue {
		p.PeakValue = value
	}
	rounded := round2(value)
	if n := len(p.ValueHistory); n > 0 && p.ValueHistory[n-1].Value == rounded {
		return
	}
	p.ValueHistory = append(p.ValueHistory, ValuePoint{
		Timestamp: utcTimestamp(),
		Value:     rounded,
	})
}

// RecordTradeDecision 留存本周期的决策快照，超出上限丢弃最旧记录。
func (p *Portfolio) RecordTradeDecision(reasoning string, decisions []decision.Decision) {
	p.TradeHistory = append(p.TradeHistory, TradeRecord{
		Timestamp:      utcTimestamp(),
		Reasoning:      reasoning,
		Decisions:      decisions,
		PortfolioValue: p.TotalValue(),
	})
	if len(p.TradeHistory) > maxTradeHistory {
		p.TradeHistory = p.TradeHistory[len(p.TradeHistory)-maxTradeHistory:]
	}
}

func round2(v float64) float64 {
	return money.Round2(v)
}

func utcTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
