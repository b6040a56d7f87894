// Package conv 读取 YAML/JSON 解析得到的 map[string]any 配置。
package conv

import (
	"fmt"
	"strconv"
)

// ToFloat64 将数值类型转为 float64。
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	default:
		return 0, false
	}
}

// SliceAnyToString 将 []any 转为 []string，数字按整数格式化，其他类型跳过。
func SliceAnyToString(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
			continue
		}
		if f, ok := ToFloat64(e); ok {
			out = append(out, fmt.Sprintf("%.0f", f))
		}
	}
	return out
}

// ConfigGet 按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt64 取整数。YAML 常得到 int，JSON 得到 float64，字符串按十进制解析。
func ConfigGetInt64(m map[string]any, key string, defaultVal int64) int64 {
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return defaultVal
		}
		return n
	default:
		if f, ok := ToFloat64(val); ok {
			return int64(f)
		}
		return defaultVal
	}
}

// ConfigGetFloat64 取浮点数。
func ConfigGetFloat64(m map[string]any, key string, defaultVal float64) float64 {
	if f, ok := ToFloat64(m[key]); ok {
		return f
	}
	return defaultVal
}
