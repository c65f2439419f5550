package symbol

import "strings"

// DefaultQuote 现货模拟盘统一以 USDT 计价。
const DefaultQuote = "USDT"

type Symbol struct {
	Base  string
	Quote string
}

// Internal 返回内部统一格式，如 "BTC/USDT"。
func (s Symbol) Internal() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + "/" + s.Quote
}

// Binance 返回交易所格式，如 "BTCUSDT"。
func (s Symbol) Binance() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

// Parse 兼容 "BTC/USDT"、"BTCUSDT"、"btc" 三种写法。
// 无法识别报价币种时按 DefaultQuote 处理。
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}
	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}
	if parts := strings.SplitN(s, "/", 2); len(parts) == 2 {
		return Symbol{
			Base:  strings.TrimSpace(parts[0]),
			Quote: strings.TrimSpace(parts[1]),
		}
	}
	quoteCurrencies := []string{"USDT", "USDC", "BUSD", "TUSD", "BTC", "ETH", "BNB"}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{Base: s[:len(s)-len(quote)], Quote: quote}
		}
	}
	return Symbol{Base: s, Quote: DefaultQuote}
}

// Base 提取交易对的基础币种："BTC/USDT" -> "BTC"。
func Base(s string) string {
	return Parse(s).Base
}

// Pair 将基础币种补全为内部交易对："BTC" -> "BTC/USDT"。
func Pair(base string) string {
	return Parse(base).Internal()
}

// Normalize 归一化为内部格式；空输入返回空串。
func Normalize(s string) string {
	return Parse(s).Internal()
}

// NormalizeList 归一化并去重，保持原有顺序。
func NormalizeList(symbols []string) []string {
	if len(symbols) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		norm := Normalize(s)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}
