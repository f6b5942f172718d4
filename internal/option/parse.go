package option

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/yourorg/sts-charts/internal/types"
)

// Request defaults and limits.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
	MinSize       = 50
	MaxSize       = 5000
)

// Request is the raw generate input as it arrives from a transport.
// EChartsOption may hold a JSON object or a JSON string containing one.
type Request struct {
	EChartsOption json.RawMessage `json:"echartsOption"`
	Width         *int            `json:"width,omitempty"`
	Height        *int            `json:"height,omitempty"`
	Theme         string          `json:"theme,omitempty"`
	OutputType    string          `json:"outputType,omitempty"`
}

// ParseRequest applies defaults, checks ranges and enums, and parses the
// option into its canonical map form.
func ParseRequest(r Request) (types.ChartSpec, error) {
	spec := types.ChartSpec{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Theme:      types.ThemeDefault,
		OutputType: types.OutputPNG,
	}
	if r.Width != nil {
		spec.Width = *r.Width
	}
	if r.Height != nil {
		spec.Height = *r.Height
	}
	if r.Theme != "" {
		spec.Theme = r.Theme
	}
	if r.OutputType != "" {
		spec.OutputType = r.OutputType
	}
	if err := checkSize("width", spec.Width); err != nil {
		return types.ChartSpec{}, err
	}
	if err := checkSize("height", spec.Height); err != nil {
		return types.ChartSpec{}, err
	}
	switch spec.Theme {
	case types.ThemeDefault, types.ThemeDark:
	default:
		return types.ChartSpec{}, fmt.Errorf("%w: theme must be one of default, dark; got %q", ErrInvalidRequest, spec.Theme)
	}
	switch spec.OutputType {
	case types.OutputPNG, types.OutputSVG, types.OutputOption:
	default:
		return types.ChartSpec{}, fmt.Errorf("%w: outputType must be one of png, svg, option; got %q", ErrInvalidRequest, spec.OutputType)
	}

	opt, err := ParseOption(r.EChartsOption)
	if err != nil {
		return types.ChartSpec{}, err
	}
	spec.Option = opt
	return spec, nil
}

func checkSize(name string, v int) error {
	if v < MinSize {
		return fmt.Errorf("%w: %s must be at least %d pixels to ensure proper chart rendering", ErrInvalidRequest, name, MinSize)
	}
	if v > MaxSize {
		return fmt.Errorf("%w: %s cannot exceed %d pixels", ErrInvalidRequest, name, MaxSize)
	}
	return nil
}

// ParseOption turns raw into an option map. A JSON string is unwrapped and
// parsed as JSON; an object passes through. Numbers decode as json.Number
// so an echo of the option reproduces the caller's values exactly.
func ParseOption(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: echartsOption is required", ErrInvalidOption)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, ErrInvalidJSON
		}
		v, err := decode([]byte(s))
		if err != nil {
			return nil, ErrInvalidJSON
		}
		return asObject(v)
	}
	v, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	return asObject(v)
}

func decode(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

func asObject(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return nil, ErrInvalidOption
	}
	return m, nil
}
