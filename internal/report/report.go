// Package report 组装交付给前端的周期报告。字段命名沿用既有前端约定。
package report

import (
	"fmt"
	"sort"
	"time"

	"folio/internal/decision"
	"folio/internal/pkg/money"
	"folio/internal/portfolio"
)

// Summary 是格式化后的账户摘要（展示用字符串）。
type Summary struct {
	TotalReturn   string `json:"Current Total Return (percent)"`
	AvailableCash string `json:"Available Cash"`
	AccountValue  string `json:"Current Account Value"`
	PeakValue     string `json:"Peak Account Value"`
	Drawdown      string `json:"Current Drawdown"`
	Status        string `json:"STATUS,omitempty"`
}

// Position 是格式化后的持仓明细。
type Position struct {
	Side       string  `json:"side"`
	Coin       string  `json:"coin"`
	Leverage   string  `json:"leverage"`
	Notional   string  `json:"notional"`
	UnrealPnL  string  `json:"unreal_pnl"`
	EntryPrice float64 `json:"entry_price"`
	Quantity   float64 `json:"quantity"`
	ExitPlan   string  `json:"exit_plan"`
}

// Report 是一次周期的完整输出：推理、决策、账户状态与历史序列。
// 熔断周期同样产出合法报告，只是带上 error 字段。
type Report struct {
	TraceID     string                  `json:"trace_id"`
	GeneratedAt string                  `json:"generated_at"`
	Error       string                  `json:"error,omitempty"`
	Reasoning   string                  `json:"reasoning"`
	Decisions   []decision.Decision     `json:"decisions"`
	Summary     Summary                 `json:"portfolio_summary"`
	Positions   []Position              `json:"portfolio_positions"`
	History     []portfolio.ValuePoint  `json:"history"`
	Trades      []portfolio.TradeRecord `json:"trade_history"`
}

// Build 从账户状态与当期决策组装报告，持仓回填匹配决策的 exit_plan。
func Build(traceID string, p *portfolio.Portfolio, reasoning string, decisions []decision.Decision, haltErr string) Report {
	rep := Report{
		TraceID:     traceID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Error:       haltErr,
		Reasoning:   reasoning,
		Decisions:   decisions,
		Summary:     formatSummary(p.AccountSummary()),
		History:     p.ValueHistory,
		Trades:      p.TradeHistory,
	}
	details := p.DetailedPositions()
	sort.Slice(details, func(i, j int) bool { return details[i].Coin < details[j].Coin })
	for _, d := range details {
		pos := Position{
			Side:       d.Side,
			Coin:       d.Coin,
			Leverage:   d.Leverage,
			Notional:   "$" + money.Format(d.Notional),
			UnrealPnL:  "$" + money.Format(d.UnrealizedPnL),
			EntryPrice: d.EntryPrice,
			Quantity:   d.Quantity,
			ExitPlan:   d.ExitPlan,
		}
		for _, dec := range decisions {
			if dec.Symbol == d.Coin && dec.ExitPlan != "" {
				pos.ExitPlan = dec.ExitPlan
				break
			}
		}
		rep.Positions = append(rep.Positions, pos)
	}
	return rep
}

func formatSummary(s portfolio.Summary) Summary {
	out := Summary{
		TotalReturn:   fmt.Sprintf("%.2f%%", s.TotalReturnPct),
		AvailableCash: "$" + money.Format(s.AvailableCash),
		AccountValue:  "$" + money.Format(s.AccountValue),
		PeakValue:     "$" + money.Format(s.PeakValue),
		Drawdown:      fmt.Sprintf("%.2f%%", s.DrawdownPct),
		Status:        s.Status,
	}
	return out
}
