// Package money 提供美元金额的统一舍入与展示格式。
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 四舍五入到分位，权益曲线与报表统一使用该精度。
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Format 渲染为带千分位的两位小数字符串，如 "10,000.00" 或 "-1,234.56"。
func Format(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart := s
	frac := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		frac = s[idx:]
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	b.WriteString(frac)
	return b.String()
}
