package option

import (
	"go.uber.org/zap"
)

// cartesianTypes are the series types that need coordinate axes.
var cartesianTypes = map[string]bool{
	"bar":     true,
	"line":    true,
	"scatter": true,
}

// Validate runs the structural checks on a chart option. It only rejects a
// nil option and cartesian series declared without any xAxis or yAxis; the
// rest of the charting grammar is left to the engine. Rejections are logged
// at debug level on log, which may be nil.
func Validate(option map[string]any, log *zap.Logger) bool {
	if log == nil {
		log = zap.NewNop()
	}
	if option == nil {
		log.Debug("chart validation failed: option is not an object")
		return false
	}
	if t, ok := firstCartesianSeries(option["series"]); ok && !present(option, "xAxis") && !present(option, "yAxis") {
		log.Debug("chart validation failed: cartesian chart missing axis configuration",
			zap.String("seriesType", t))
		return false
	}
	return true
}

// firstCartesianSeries returns the type of the first cartesian entry in
// series, which may be a list of series objects or a single object.
func firstCartesianSeries(series any) (string, bool) {
	switch s := series.(type) {
	case []any:
		for _, item := range s {
			if t, ok := cartesianType(item); ok {
				return t, true
			}
		}
	case map[string]any:
		return cartesianType(s)
	}
	return "", false
}

func cartesianType(item any) (string, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return "", false
	}
	t, _ := m["type"].(string)
	return t, cartesianTypes[t]
}

// present reports whether key exists with a non-null value.
func present(m map[string]any, key string) bool {
	v, ok := m[key]
	return ok && v != nil
}
