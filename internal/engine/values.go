package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// num converts the loosely typed numbers found in decoded options.
func num(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

func numOr(v any, def float64) float64 {
	if f, ok := num(v); ok {
		return f
	}
	return def
}

func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	}
	return fmt.Sprint(v)
}

func obj(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// list returns v as a slice: lists pass through, a lone object becomes a
// one-element list, nil stays nil.
func list(v any) []any {
	switch l := v.(type) {
	case nil:
		return nil
	case []any:
		return l
	case map[string]any:
		return []any{l}
	}
	return nil
}

func boolOr(v any, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

// length resolves a position value: a number, a numeric string, or a
// percentage of total. ok is false for keywords and missing values.
func length(v any, total float64) (float64, bool) {
	if s, isStr := v.(string); isStr {
		s = strings.TrimSpace(s)
		if strings.HasSuffix(s, "%") {
			p, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
			if err != nil {
				return 0, false
			}
			return total * p / 100, true
		}
	}
	return num(v)
}

func lengthOr(v any, total, def float64) float64 {
	if l, ok := length(v, total); ok {
		return l
	}
	return def
}

// textWidth estimates the advance of s at size. Layout is shared by both
// backends, so it cannot depend on a concrete font face.
func textWidth(s string, size float64) float64 {
	n := 0
	for _, r := range s {
		if r > 0x2E80 {
			n += 2
		} else {
			n++
		}
	}
	return float64(n) * size * 0.58
}

// formatTick prints axis values without float noise.
func formatTick(v float64) string {
	if math.Abs(v) >= 1e4 && v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}
