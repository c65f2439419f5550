// Package risk 实现交易前的两道安全检查：硬止损强平与最大回撤熔断。
package risk

import (
	"folio/internal/logger"
	"folio/internal/portfolio"
	symbolpkg "folio/internal/pkg/symbol"
)

// Manager 每个周期在模型咨询之前运行一次。
type Manager struct {
	maxDrawdown  float64
	hardStopLoss float64
}

func NewManager(maxDrawdown, hardStopLoss float64) *Manager {
	return &Manager{maxDrawdown: maxDrawdown, hardStopLoss: hardStopLoss}
}

// Check 依次执行硬止损与回撤熔断，返回本周期是否允许继续交易。
// 顺序是语义的一部分：止损可能改变持仓集合，随后的总值与回撤
// 必须基于清仓后的状态计算。
func (m *Manager) Check(p *portfolio.Portfolio) bool {
	m.applyHardStopLoss(p)
	return m.checkDrawdown(p)
}

// applyHardStopLoss 对每个持仓检查现价是否跌破入场价的止损线，
// 跌破即整仓强平。这发生在任何模型决策之前，与模型意见无关。
func (m *Manager) applyHardStopLoss(p *portfolio.Portfolio) {
	for _, base := range p.HeldBases() {
		pos, ok := p.Positions[base]
		if !ok {
			continue
		}
		price := p.PriceForValuation(base)
		if price <= 0 {
			continue
		}
		stopPrice := pos.EntryPrice * (1 - m.hardStopLoss)
		if price < stopPrice {
			logger.Warnf("hard stop-loss triggered for %s at $%.2f (entry $%.2f, stop $%.2f)",
				base, price, pos.EntryPrice, stopPrice)
			if err := p.Sell(symbolpkg.Pair(base), pos.Quantity, price, "Hard Stop-Loss"); err != nil {
				logger.Errorf("stop-loss sell %s failed: %v", base, err)
			}
		}
	}
}

// checkDrawdown 记录当前总值（同时刷新峰值），再用最新峰值测量回撤。
// 熔断一旦触发就落在状态里，只有人工干预才能恢复交易。
func (m *Manager) checkDrawdown(p *portfolio.Portfolio) bool {
	total := p.TotalValue()
	p.RecordValueHistory(total)

	if p.PeakValue > 0 {
		drawdown := (p.PeakValue - total) / p.PeakValue
		if drawdown > m.maxDrawdown {
			if !p.CircuitBreakerTripped {
				p.CircuitBreakerTripped = true
				logger.Errorf("max drawdown %.2f%% exceeds %.2f%%, circuit breaker tripped, halting trading",
					drawdown*100, m.maxDrawdown*100)
			}
			return false
		}
	}
	if p.CircuitBreakerTripped {
		logger.Warnf("trading remains halted: circuit breaker tripped in a previous cycle")
		return false
	}
	return true
}
