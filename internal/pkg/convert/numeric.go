// Package convert provides type conversion utilities.
package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToFloat64 converts various numeric types to float64.
// Returns 0 for unsupported types or parse failures.
func ToFloat64(v any) float64 {
	f, _ := ParseFloat(v)
	return f
}

// ParseFloat 宽松解析模型返回的数量字段（数字或字符串），
// 解析失败或非有限值时返回错误。
func ParseFloat(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("nil value")
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		var err error
		f, err = t.Float64()
		if err != nil {
			return 0, err
		}
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimSuffix(s, "%")
		var err error
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value")
	}
	return f, nil
}
