// Package decision 定义模型决策的边界类型与解析/校验逻辑。
// 通不过校验的记录在边界即被拒绝，不会进入执行流程。
package decision

import "strings"

// 动作枚举。未识别的动作在归一化后按 HOLD 处理。
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Decision 是模型产出的单条交易决策。
type Decision struct {
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Quantity   float64 `json:"quantity"`
	Confidence string  `json:"confidence"`
	ExitPlan   string  `json:"exit_plan"`
}

// NormalizeAction 去除空白并转大写；未识别的动作归为 HOLD。
func NormalizeAction(action string) string {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case ActionBuy:
		return ActionBuy
	case ActionSell:
		return ActionSell
	case ActionHold:
		return ActionHold
	default:
		return ActionHold
	}
}

// Result 是一次模型调用解析后的产物。
type Result struct {
	Reasoning string     `json:"reasoning"`
	Decisions []Decision `json:"decisions"`
	RawOutput string     `json:"-"`
}

// ForSymbol 返回匹配某币种的决策；不存在时返回 nil。
func (r *Result) ForSymbol(base string) *Decision {
	for i := range r.Decisions {
		if r.Decisions[i].Symbol == base {
			return &r.Decisions[i]
		}
	}
	return nil
}
