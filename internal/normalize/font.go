package normalize

import (
	"github.com/yourorg/sts-charts/internal/types"
)

// DefaultFontFamily is injected wherever the caller left the font unset.
const DefaultFontFamily = "Roboto"

// ApplyDefaultFont returns a copy of option with animation disabled and
// family merged into the global, title, legend and axis-label text styles.
// Caller-supplied style keys win over the default. Components that are
// absent stay absent; a component given as a list gets the merge applied
// per element. option itself is never modified.
func ApplyDefaultFont(option map[string]any, family string) map[string]any {
	if family == "" {
		family = DefaultFontFamily
	}
	out := make(map[string]any, len(option)+2)
	for k, v := range option {
		out[k] = v
	}
	out["animation"] = false
	out["textStyle"] = mergeStyle(option["textStyle"], family)

	for _, c := range []struct{ component, style string }{
		{"title", "textStyle"},
		{"legend", "textStyle"},
		{"xAxis", "axisLabel"},
		{"yAxis", "axisLabel"},
	} {
		if v, ok := option[c.component]; ok && v != nil {
			out[c.component] = eachComponent(v, c.style, family)
		}
	}
	return out
}

// Chart normalizes spec's option, keeping the original spec alongside.
func Chart(spec types.ChartSpec, family string) types.NormalizedSpec {
	return types.NormalizedSpec{
		ChartSpec:  spec,
		Normalized: ApplyDefaultFont(spec.Option, family),
	}
}

// eachComponent applies withStyle to a single component object or to
// every element of a component list.
func eachComponent(v any, key, family string) any {
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = withStyle(item, key, family)
		}
		return out
	}
	return withStyle(v, key, family)
}

// withStyle copies component and replaces its key entry with the merged style.
func withStyle(component any, key, family string) map[string]any {
	src, _ := component.(map[string]any)
	out := make(map[string]any, len(src)+1)
	for k, v := range src {
		out[k] = v
	}
	out[key] = mergeStyle(src[key], family)
	return out
}

// mergeStyle writes the default family first, then the caller's keys.
func mergeStyle(style any, family string) map[string]any {
	src, _ := style.(map[string]any)
	out := make(map[string]any, len(src)+1)
	out["fontFamily"] = family
	for k, v := range src {
		out[k] = v
	}
	return out
}
