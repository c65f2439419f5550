// Package prompt 把行情、相关性、账户状态拼装成喂给模型的文本。
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"folio/internal/market"
	"folio/internal/pkg/money"
	symbolpkg "folio/internal/pkg/symbol"
	"folio/internal/portfolio"
)

func formatMoney(v float64) string {
	return money.Format(v)
}

// Input 汇集构建提示词所需的全部素材。
type Input struct {
	Portfolio            *portfolio.Portfolio
	Snapshots            map[string]*market.SymbolSnapshot
	Correlation          market.CorrelationMatrix
	CorrelationThreshold float64
	// Timeframes 控制各周期区块的输出顺序。
	Timeframes []string
}

// BuildUserPrompt 生成用户提示词。区块顺序：运行信息 → 相关矩阵 →
// 分币种多周期分析 → 账户绩效 → 当前持仓。
func BuildUserPrompt(in Input) string {
	var b strings.Builder
	p := in.Portfolio

	minutes := int(time.Since(p.StartTime).Minutes())
	fmt.Fprintf(&b, "It has been %d minutes since the first run. Invocation: %d.\n", minutes, p.InvocationCount)
	b.WriteString("Analyze the comprehensive multi-timeframe market data and account status to make trading decisions.\n\n")

	writeCorrelationSection(&b, in.Correlation, in.CorrelationThreshold)
	writeMarketSection(&b, in.Snapshots, in.Timeframes)
	writeAccountSection(&b, p)
	writePositionsSection(&b, p)

	return b.String()
}

func writeCorrelationSection(b *strings.Builder, matrix market.CorrelationMatrix, threshold float64) {
	if matrix.IsEmpty() {
		return
	}
	bases := matrix.Bases()
	sort.Strings(bases)

	b.WriteString("--- ASSET CORRELATION MATRIX (4H Returns) ---\n")
	b.WriteString("      ")
	for _, base := range bases {
		fmt.Fprintf(b, "%6s", base)
	}
	b.WriteString("\n")
	for _, row := range bases {
		fmt.Fprintf(b, "%-6s", row)
		for _, col := range bases {
			v, _ := matrix.Lookup(row, col)
			fmt.Fprintf(b, "%6.2f", v)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "Note: Avoid buying assets with >%.1f correlation to existing holdings.\n\n", threshold)
}

func writeMarketSection(b *strings.Builder, snaps map[string]*market.SymbolSnapshot, timeframes []string) {
	b.WriteString("--- COMPREHENSIVE MARKET ANALYSIS ---\n")
	pairs := make([]string, 0, len(snaps))
	for pair := range snaps {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	for _, pair := range pairs {
		snap := snaps[pair]
		if snap == nil {
			continue
		}
		fmt.Fprintf(b, "--- %s ---\n", symbolpkg.Base(pair))
		fmt.Fprintf(b, "  - Current Price: $%.2f\n", snap.CurrentPrice)
		fmt.Fprintf(b, "  - Bid-Ask Spread (Liquidity): %.4f%%\n", snap.BidAskSpreadPct)
		for _, tf := range timeframes {
			stats, ok := snap.TimeframeStats[tf]
			if !ok {
				continue
			}
			volumeTrend := "Below Average"
			if stats.Volume > stats.VolumeMA {
				volumeTrend = "Above Average"
			}
			fmt.Fprintf(b, "  - Timeframe: %s\n", tf)
			fmt.Fprintf(b, "    - Market Regime: %s\n", stats.Regime)
			fmt.Fprintf(b, "    - Bollinger Bands: Low=$%.2f, Mid=$%.2f, High=$%.2f\n", stats.BBLow, stats.BBMid, stats.BBHigh)
			fmt.Fprintf(b, "    - ATR (Volatility): $%.3f\n", stats.ATR)
			fmt.Fprintf(b, "    - VWMA (Volume-Weighted Price): $%.2f\n", stats.VWMA)
			fmt.Fprintf(b, "    - Volume: %.0f (Trend: %s)\n", stats.Volume, volumeTrend)
		}
		b.WriteString("\n")
	}
}

func writeAccountSection(b *strings.Builder, p *portfolio.Portfolio) {
	summary := p.AccountSummary()
	b.WriteString("--- ACCOUNT & PERFORMANCE ---\n")
	fmt.Fprintf(b, "Current Total Return (percent): %.2f%%\n", summary.TotalReturnPct)
	fmt.Fprintf(b, "Available Cash: $%s\n", formatMoney(summary.AvailableCash))
	fmt.Fprintf(b, "Current Account Value: $%s\n", formatMoney(summary.AccountValue))
	fmt.Fprintf(b, "Peak Account Value: $%s\n", formatMoney(summary.PeakValue))
	fmt.Fprintf(b, "Current Drawdown: %.2f%%\n", summary.DrawdownPct)
	if summary.Status != "" {
		fmt.Fprintf(b, "STATUS: %s\n", summary.Status)
	}
}

func writePositionsSection(b *strings.Builder, p *portfolio.Portfolio) {
	details := p.DetailedPositions()
	if len(details) == 0 {
		return
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Coin < details[j].Coin })
	b.WriteString("\n--- CURRENT POSITIONS ---\n")
	for _, pos := range details {
		fmt.Fprintf(b, "- %s: Notional: $%s, Unrealized P&L: $%s, Avg Entry: $%.2f\n",
			pos.Coin, formatMoney(pos.Notional), formatMoney(pos.UnrealizedPnL), pos.EntryPrice)
	}
}
