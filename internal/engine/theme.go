package engine

import "image/color"

// Theme holds the colors a chart falls back to when the option is silent.
type Theme struct {
	Name       string
	Background color.RGBA
	Text       color.RGBA
	Title      color.RGBA
	Subtitle   color.RGBA
	AxisLine   color.RGBA
	SplitLine  color.RGBA
	Palette    []color.RGBA
}

func hex(s string) color.RGBA {
	c, _ := parseHex(s[1:])
	return c
}

var themes = map[string]Theme{
	"default": {
		Name:       "default",
		Background: transparent,
		Text:       hex("#333333"),
		Title:      hex("#464646"),
		Subtitle:   hex("#6E7079"),
		AxisLine:   hex("#6E7079"),
		SplitLine:  hex("#E0E6F1"),
		Palette: []color.RGBA{
			hex("#5470c6"), hex("#91cc75"), hex("#fac858"), hex("#ee6666"), hex("#73c0de"),
			hex("#3ba272"), hex("#fc8452"), hex("#9a60b4"), hex("#ea7ccc"),
		},
	},
	"dark": {
		Name:       "dark",
		Background: hex("#100C2A"),
		Text:       hex("#B9B8CE"),
		Title:      hex("#EEF1FA"),
		Subtitle:   hex("#B9B8CE"),
		AxisLine:   hex("#B9B8CE"),
		SplitLine:  hex("#484753"),
		Palette: []color.RGBA{
			hex("#4992ff"), hex("#7cffb2"), hex("#fddd60"), hex("#ff6e76"), hex("#58d9f9"),
			hex("#05c091"), hex("#ff8a45"), hex("#8d48e3"), hex("#dd79ff"),
		},
	},
}

// LookupTheme returns the named theme; an empty name means "default".
func LookupTheme(name string) (Theme, bool) {
	if name == "" {
		name = "default"
	}
	t, ok := themes[name]
	return t, ok
}
