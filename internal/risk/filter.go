package risk

import "folio/internal/market"

// Filter 是 BUY 决策的相关性准入控制：候选币种与任一持仓的收益率
// 相关系数超过阈值即拒绝，保持组合分散。SELL/HOLD 不经过该过滤。
type Filter struct {
	threshold float64
}

func NewFilter(threshold float64) *Filter {
	return &Filter{threshold: threshold}
}

// Verdict 是一次准入判定的结果，拒绝时带上触发的持仓与系数供日志使用。
type Verdict struct {
	Admitted    bool
	BlockedBy   string
	Correlation float64
}

// AdmitBuy 判定候选买入是否放行。矩阵为空、候选不在矩阵中、
// 或当前无持仓时无条件放行；否则首个超阈值的持仓即短路拒绝。
func (f *Filter) AdmitBuy(base string, held []string, matrix market.CorrelationMatrix) Verdict {
	if matrix.IsEmpty() || !matrix.Has(base) || len(held) == 0 {
		return Verdict{Admitted: true}
	}
	for _, heldBase := range held {
		coeff, ok := matrix.Lookup(base, heldBase)
		if !ok {
			continue
		}
		if coeff > f.threshold {
			return Verdict{Admitted: false, BlockedBy: heldBase, Correlation: coeff}
		}
	}
	return Verdict{Admitted: true}
}
