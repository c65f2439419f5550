// Package trader 把通过校验的模型决策落到模拟账户上。
package trader

import (
	"errors"

	"folio/internal/decision"
	"folio/internal/logger"
	"folio/internal/market"
	"folio/internal/portfolio"
	symbolpkg "folio/internal/pkg/symbol"
	"folio/internal/risk"
)

// minQuantity 与账面仓位的清除阈值一致。
const minQuantity = 1e-9

// Executor 按输入顺序逐条执行决策，单条的跳过或失败不影响其余决策。
type Executor struct {
	filter *risk.Filter
}

func NewExecutor(filter *risk.Filter) *Executor {
	return &Executor{filter: filter}
}

// Execute 执行一批决策。BUY 先过相关性准入，SELL 直接放行（减仓
// 永远允许），HOLD 与未识别动作均不产生交易。
func (e *Executor) Execute(p *portfolio.Portfolio, decisions []decision.Decision, currentPrices map[string]float64, matrix market.CorrelationMatrix) {
	if len(decisions) == 0 {
		logger.Infof("no valid AI decisions to execute")
		return
	}
	for _, d := range decisions {
		e.executeOne(p, d, currentPrices, matrix)
	}
}

func (e *Executor) executeOne(p *portfolio.Portfolio, d decision.Decision, currentPrices map[string]float64, matrix market.CorrelationMatrix) {
	if d.Symbol == "" {
		return
	}
	action := decision.NormalizeAction(d.Action)
	if d.Quantity < minQuantity {
		if action != decision.ActionHold {
			logger.Warnf("skipping %s %s: quantity %.10f below minimum", action, d.Symbol, d.Quantity)
		}
		return
	}
	if action == decision.ActionHold {
		return
	}
	pair := symbolpkg.Pair(d.Symbol)
	price, ok := currentPrices[pair]
	if !ok || price <= 0 {
		logger.Warnf("skipping %s %s: no valid current price", action, pair)
		return
	}

	switch action {
	case decision.ActionBuy:
		verdict := e.filter.AdmitBuy(d.Symbol, p.HeldBases(), matrix)
		if !verdict.Admitted {
			logger.Warnf("skipping BUY of %s: highly correlated (%.2f) with held asset %s",
				d.Symbol, verdict.Correlation, verdict.BlockedBy)
			return
		}
		if err := p.Buy(pair, d.Quantity, price); err != nil {
			if errors.Is(err, portfolio.ErrInsufficientFunds) {
				logger.Warnf("insufficient funds to buy %.6f %s", d.Quantity, d.Symbol)
				return
			}
			logger.Errorf("buy %s failed: %v", d.Symbol, err)
		}
	case decision.ActionSell:
		if err := p.Sell(pair, d.Quantity, price, "AI Decision"); err != nil {
			if errors.Is(err, portfolio.ErrInsufficientHoldings) {
				logger.Warnf("not enough %s to sell %.6f", d.Symbol, d.Quantity)
				return
			}
			logger.Errorf("sell %s failed: %v", d.Symbol, err)
		}
	}
}
