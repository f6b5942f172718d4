package engine

import (
	"image/color"
	"strconv"
	"strings"
)

var transparent = color.RGBA{}

var namedColors = map[string]color.RGBA{
	"black":  {0, 0, 0, 255},
	"white":  {255, 255, 255, 255},
	"red":    {255, 0, 0, 255},
	"green":  {0, 128, 0, 255},
	"blue":   {0, 0, 255, 255},
	"gray":   {128, 128, 128, 255},
	"grey":   {128, 128, 128, 255},
	"orange": {255, 165, 0, 255},
	"yellow": {255, 255, 0, 255},
	"purple": {128, 0, 128, 255},
}

// parseColor understands #rgb, #rrggbb, #rrggbbaa, rgb(), rgba() and a
// few names. Anything else yields ok=false.
func parseColor(v any) (color.RGBA, bool) {
	s, isStr := v.(string)
	if !isStr {
		return color.RGBA{}, false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "transparent" || s == "none":
		return transparent, true
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgb"):
		return parseFunc(s)
	}
	c, ok := namedColors[s]
	return c, ok
}

func colorOr(v any, def color.RGBA) color.RGBA {
	if c, ok := parseColor(v); ok {
		return c
	}
	return def
}

func parseHex(h string) (color.RGBA, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, false
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	if len(h) == 6 {
		return color.RGBA{uint8(n >> 16), uint8(n >> 8), uint8(n), 255}, true
	}
	return color.RGBA{uint8(n >> 24), uint8(n >> 16), uint8(n >> 8), uint8(n)}, true
}

func parseFunc(s string) (color.RGBA, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.RGBA{}, false
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, false
	}
	var ch [4]float64
	ch[3] = 1
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return color.RGBA{}, false
		}
		ch[i] = f
	}
	return color.RGBA{clamp8(ch[0]), clamp8(ch[1]), clamp8(ch[2]), clamp8(ch[3] * 255)}, true
}

func clamp8(f float64) uint8 {
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return uint8(f + 0.5)
}

// withAlpha scales c's alpha by a (0..1).
func withAlpha(c color.RGBA, a float64) color.RGBA {
	c.A = clamp8(float64(c.A) * a)
	return c
}

// nrgba reinterprets c, which holds straight (non-premultiplied) channel
// values, for image/draw.
func nrgba(c color.RGBA) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
