package portfolio

import (
	"errors"
	"math"
	"time"

	"folio/internal/logger"
	symbolpkg "folio/internal/pkg/symbol"
)

// DefaultInitialCash 是新建模拟账户的起始资金（USDT）。
const DefaultInitialCash = 10000.0

// epsilon 以下的持仓量视为零，直接清除，避免浮点残渣仓位。
const epsilon = 1e-9

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// Position 是单个币种的现货持仓。入场价为历次买入的资金加权均价。
type Position struct {
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entry_price"`
}

// ValuePoint 是权益曲线上的一个点。
type ValuePoint struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Portfolio 是模拟账户聚合根：资金、持仓、绩效与风控状态。
// 单周期内串行访问，不做内部加锁；持久化由 store 层负责。
type Portfolio struct {
	InitialCash   float64             `json:"initial_cash"`
	AvailableCash float64             `json:"available_cash"`
	Positions     map[string]Position `json:"positions"`

	PeakValue             float64 `json:"peak_value"`
	CircuitBreakerTripped bool    `json:"circuit_breaker_tripped"`

	// LastKnownPrices 以交易对（"BTC/USDT"）为键，行情缺失时兜底估值。
	LastKnownPrices map[string]float64 `json:"last_known_prices"`

	ValueHistory []ValuePoint  `json:"value_history"`
	TradeHistory []TradeRecord `json:"trade_history"`

	StartTime       time.Time `json:"start_time"`
	InvocationCount int       `json:"invocation_count"`
}

// New 创建一个全新的模拟账户。cash <= 0 时使用默认起始资金。
func New(cash float64) *Portfolio {
	if cash <= 0 {
		cash = DefaultInitialCash
	}
	return &Portfolio{
		InitialCash:     cash,
		AvailableCash:   cash,
		Positions:       make(map[string]Position),
		PeakValue:       cash,
		LastKnownPrices: make(map[string]float64),
		StartTime:       time.Now(),
	}
}

// EnsureDefaults 把旧版持久化记录迁移到当前结构：缺失字段补默认值。
// 加载后必须调用一次，之后才允许其它操作。
func (p *Portfolio) EnsureDefaults() {
	if p.InitialCash <= 0 {
		p.InitialCash = DefaultInitialCash
	}
	if p.Positions == nil {
		p.Positions = make(map[string]Position)
	}
	if p.LastKnownPrices == nil {
		p.LastKnownPrices = make(map[string]float64)
	}
	if p.PeakValue <= 0 {
		p.PeakValue = p.InitialCash
	}
	if p.StartTime.IsZero() {
		p.StartTime = time.Now()
	}
	if len(p.ValueHistory) == 0 {
		p.RecordValueHistory(p.InitialCash)
	}
}

// UpdateLastKnownPrices 用最新行情刷新价格缓存。
// 只接受严格为正的有限值，坏数据不会污染缓存。
func (p *Portfolio) UpdateLastKnownPrices(prices map[string]float64) {
	for pair, price := range prices {
		if price > 0 && !math.IsNaN(price) && !math.IsInf(price, 0) {
			p.LastKnownPrices[pair] = price
		}
	}
}

// PriceForValuation 返回某币种用于估值的最佳可用价格。
// 回退链：最近已知行情价 → 持仓入场价 → 0。行情抓取失败时账户价值
// 冻结在最后一个好价格上，而不是跌到零或让周期崩溃。
func (p *Portfolio) PriceForValuation(base string) float64 {
	if price, ok := p.LastKnownPrices[symbolpkg.Pair(base)]; ok && price > 0 {
		return price
	}
	if pos, ok := p.Positions[base]; ok {
		return pos.EntryPrice
	}
	return 0
}

// Buy 执行买入：扣减现金并建仓或按资金加权摊平入场价。
// 现金不足返回 ErrInsufficientFunds，仓位与现金均不变（不做部分成交）。
func (p *Portfolio) Buy(pair string, quantity, price float64) error {
	if quantity <= 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) ||
		price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil
	}
	cost := quantity * price
	if p.AvailableCash < cost {
		return ErrInsufficientFunds
	}
	base := symbolpkg.Base(pair)
	p.AvailableCash -= cost
	if pos, ok := p.Positions[base]; ok {
		newQuantity := pos.Quantity + quantity
		pos.EntryPrice = (pos.EntryPrice*pos.Quantity + cost) / newQuantity
		pos.Quantity = newQuantity
		p.Positions[base] = pos
	} else {
		p.Positions[base] = Position{Quantity: quantity, EntryPrice: price}
	}
	logger.Infof("executed BUY of %.6f %s at $%.2f", quantity, base, price)
	return nil
}

// Sell 执行卖出：回补现金并削减仓位；余量跌破 epsilon 时整仓删除。
// 无仓位或持仓不足返回 ErrInsufficientHoldings，状态不变。
// reason 仅用于日志标注，不影响控制流。
func (p *Portfolio) Sell(pair string, quantity, price float64, reason string) error {
	if quantity <= 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return nil
	}
	base := symbolpkg.Base(pair)
	pos, ok := p.Positions[base]
	if !ok || pos.Quantity < quantity {
		return ErrInsufficientHoldings
	}
	p.AvailableCash += quantity * price
	pos.Quantity -= quantity
	if pos.Quantity < epsilon {
		delete(p.Positions, base)
	} else {
		p.Positions[base] = pos
	}
	if reason != "" {
		logger.Infof("executed SELL of %.6f %s at $%.2f (reason: %s)", quantity, base, price, reason)
	} else {
		logger.Infof("executed SELL of %.6f %s at $%.2f", quantity, base, price)
	}
	return nil
}

// HeldBases 返回当前持仓的币种列表（无序）。
func (p *Portfolio) HeldBases() []string {
	out := make([]string, 0, len(p.Positions))
	for base := range p.Positions {
		out = append(out, base)
	}
	return out
}
