package config

import (
	"fmt"
	"strings"

	"folio/internal/pkg/symbol"
)

// validate 对配置进行基础校验，并把交易对归一化为内部格式。
func validate(c *Config) error {
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.AI.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if c.Trading.IntervalMinutes < 0 {
		return fmt.Errorf("trading.interval_minutes must be >= 0")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	normalized := symbol.NormalizeList(m.Symbols)
	if len(normalized) == 0 {
		return fmt.Errorf("market.symbols requires at least one valid pair")
	}
	m.Symbols = normalized
	for _, tf := range m.Timeframes {
		if strings.TrimSpace(tf) == "" {
			return fmt.Errorf("market.timeframes contains an empty entry")
		}
	}
	return nil
}

func (a *AIConfig) validate() error {
	if strings.TrimSpace(a.APIURL) == "" {
		return fmt.Errorf("ai.api_url cannot be empty")
	}
	if strings.TrimSpace(a.Model) == "" {
		return fmt.Errorf("ai.model cannot be empty")
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be within [0, 2]")
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.MaxDrawdown >= 1 {
		return fmt.Errorf("risk.max_drawdown must be < 1 (got %.2f)", r.MaxDrawdown)
	}
	if r.HardStopLoss >= 1 {
		return fmt.Errorf("risk.hard_stop_loss must be < 1 (got %.2f)", r.HardStopLoss)
	}
	if r.HighCorrelation > 1 {
		return fmt.Errorf("risk.high_correlation must be <= 1 (got %.2f)", r.HighCorrelation)
	}
	return nil
}
