package market

import "math"

// CorrelationMatrix 保存各基础币种 4h 收益率间的皮尔逊相关系数。
// 外层与内层均以基础币种为键（如 "BTC"）。
type CorrelationMatrix map[string]map[string]float64

// IsEmpty 判定矩阵是否为空。
func (m CorrelationMatrix) IsEmpty() bool {
	return len(m) == 0
}

// Has 判定某币种是否在矩阵中。
func (m CorrelationMatrix) Has(base string) bool {
	_, ok := m[base]
	return ok
}

// Lookup 返回两个币种间的相关系数；缺失时返回 0, false。
func (m CorrelationMatrix) Lookup(a, b string) (float64, bool) {
	row, ok := m[a]
	if !ok {
		return 0, false
	}
	v, ok := row[b]
	return v, ok
}

// Bases 返回矩阵包含的币种（无序）。
func (m CorrelationMatrix) Bases() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// ComputeCorrelationMatrix 从各币种的收益率序列构建相关矩阵。
// 序列长度取各币种最短者对齐（尾部对齐），不足 2 个点的币种被剔除。
func ComputeCorrelationMatrix(returns map[string][]float64) CorrelationMatrix {
	minLen := math.MaxInt
	bases := make([]string, 0, len(returns))
	for base, series := range returns {
		if len(series) < 2 {
			continue
		}
		bases = append(bases, base)
		if len(series) < minLen {
			minLen = len(series)
		}
	}
	if len(bases) == 0 {
		return CorrelationMatrix{}
	}

	aligned := make(map[string][]float64, len(bases))
	for _, base := range bases {
		series := returns[base]
		aligned[base] = series[len(series)-minLen:]
	}

	matrix := make(CorrelationMatrix, len(bases))
	for _, a := range bases {
		row := make(map[string]float64, len(bases))
		for _, b := range bases {
			row[b] = pearson(aligned[a], aligned[b])
		}
		matrix[a] = row
	}
	return matrix
}

func pearson(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)
	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
