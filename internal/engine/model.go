package engine

import (
	"fmt"
	"image/color"
)

var supportedSeries = map[string]bool{
	"bar":     true,
	"line":    true,
	"scatter": true,
	"pie":     true,
}

// knownSeries are ECharts series types that are valid in an option but not
// drawn here. They are skipped with a warning.
var knownSeries = map[string]bool{
	"effectScatter": true,
	"radar":         true,
	"tree":          true,
	"treemap":       true,
	"sunburst":      true,
	"boxplot":       true,
	"candlestick":   true,
	"heatmap":       true,
	"map":           true,
	"parallel":      true,
	"lines":         true,
	"graph":         true,
	"sankey":        true,
	"funnel":        true,
	"gauge":         true,
	"pictorialBar":  true,
	"themeRiver":    true,
	"custom":        true,
}

type model struct {
	theme      Theme
	background color.RGBA
	palette    []color.RGBA
	text       Font
	titles     []title
	legend     *legend
	grid       map[string]any
	xAxes      []*axis
	yAxes      []*axis
	series     []*series
	graphics   []graphicImage
	warnings   []string
}

type title struct {
	text, subtext string
	left, top     any
	style, sub    Font
}

type legend struct {
	names     []string
	left, top any
	style     Font
}

type axis struct {
	category bool
	data     []string
	name     string
	show     bool
	label    Font
	min, max any

	// resolved during layout
	lo, hi     float64
	start, end float64 // pixel range
}

type datum struct {
	name  string
	x, y  float64 // y only for single-value items
	pair  bool    // x and y both given
	ok    bool
	color *color.RGBA
}

type series struct {
	index      int
	typ        string
	name       string
	data       []datum
	color      color.RGBA
	xAxisIndex int
	yAxisIndex int
	stack      string
	area       bool
	symbolSize float64
	radius     any
	center     any
	label      Font
}

type graphicImage struct {
	src                      string
	left, top, width, height any
}

// parseOption builds the chart model. Unknown keys are ignored; only
// structures the engine cannot draw are reported as errors.
func parseOption(opt map[string]any, theme Theme) (*model, error) {
	m := &model{
		theme:      theme,
		background: colorOr(opt["backgroundColor"], theme.Background),
		palette:    theme.Palette,
		grid:       obj(opt["grid"]),
	}
	if cs := list(opt["color"]); len(cs) > 0 {
		var pal []color.RGBA
		for _, c := range cs {
			if rgba, ok := parseColor(c); ok {
				pal = append(pal, rgba)
			}
		}
		if len(pal) > 0 {
			m.palette = pal
		}
	}

	ts := obj(opt["textStyle"])
	m.text = fontFrom(ts, Font{Size: 12, Color: theme.Text})

	for _, t := range list(opt["title"]) {
		tm := obj(t)
		if tm == nil || !boolOr(tm["show"], true) {
			continue
		}
		m.titles = append(m.titles, title{
			text:    str(tm["text"]),
			subtext: str(tm["subtext"]),
			left:    tm["left"],
			top:     tm["top"],
			style:   fontFrom(obj(tm["textStyle"]), Font{Family: m.text.Family, Size: 18, Bold: true, Color: theme.Title}),
			sub:     fontFrom(obj(tm["subtextStyle"]), Font{Family: m.text.Family, Size: 12, Color: theme.Subtitle}),
		})
	}

	if lg := list(opt["legend"]); len(lg) > 0 {
		lm := obj(lg[0])
		if lm != nil && boolOr(lm["show"], true) {
			l := &legend{
				left:  lm["left"],
				top:   lm["top"],
				style: fontFrom(obj(lm["textStyle"]), Font{Family: m.text.Family, Size: 12, Color: theme.Text}),
			}
			for _, d := range list(lm["data"]) {
				if s, ok := d.(string); ok {
					l.names = append(l.names, s)
				} else if dm := obj(d); dm != nil {
					l.names = append(l.names, str(dm["name"]))
				}
			}
			m.legend = l
		}
	}

	for _, a := range list(opt["xAxis"]) {
		m.xAxes = append(m.xAxes, parseAxis(obj(a), "category", m.text, theme))
	}
	for _, a := range list(opt["yAxis"]) {
		m.yAxes = append(m.yAxes, parseAxis(obj(a), "value", m.text, theme))
	}

	rawSeries := opt["series"]
	switch rawSeries.(type) {
	case nil, []any, map[string]any:
	default:
		return nil, fmt.Errorf("series must be an object or a list, got %T", rawSeries)
	}
	for i, s := range list(rawSeries) {
		sm := obj(s)
		if sm == nil {
			return nil, fmt.Errorf("series[%d] is not an object", i)
		}
		sr, err := m.parseSeries(i, sm)
		if err != nil {
			return nil, err
		}
		if sr != nil {
			m.series = append(m.series, sr)
		}
	}

	for _, g := range graphicElements(opt["graphic"]) {
		gm := obj(g)
		if gm == nil || str(gm["type"]) != "image" {
			continue
		}
		st := obj(gm["style"])
		src := str(st["image"])
		if src == "" {
			continue
		}
		m.graphics = append(m.graphics, graphicImage{
			src:    src,
			left:   firstSet(gm["left"], st["x"], gm["x"]),
			top:    firstSet(gm["top"], st["y"], gm["y"]),
			width:  st["width"],
			height: st["height"],
		})
	}
	return m, nil
}

func (m *model) parseSeries(i int, sm map[string]any) (*series, error) {
	typ := str(sm["type"])
	if typ == "" {
		return nil, fmt.Errorf("series[%d]: missing type", i)
	}
	if !supportedSeries[typ] {
		if knownSeries[typ] {
			m.warnings = append(m.warnings, fmt.Sprintf("series[%d]: %s series not drawn", i, typ))
			return nil, nil
		}
		return nil, fmt.Errorf("series[%d]: unknown series type %q", i, typ)
	}
	s := &series{
		index:      i,
		typ:        typ,
		name:       str(sm["name"]),
		color:      m.palette[i%len(m.palette)],
		xAxisIndex: int(numOr(sm["xAxisIndex"], 0)),
		yAxisIndex: int(numOr(sm["yAxisIndex"], 0)),
		stack:      str(sm["stack"]),
		area:       sm["areaStyle"] != nil,
		symbolSize: numOr(sm["symbolSize"], 0),
		radius:     sm["radius"],
		center:     sm["center"],
		label:      fontFrom(obj(sm["label"]), Font{Family: m.text.Family, Size: 12, Color: m.text.Color}),
	}
	if c, ok := parseColor(sm["color"]); ok {
		s.color = c
	} else if c, ok := parseColor(obj(sm["itemStyle"])["color"]); ok {
		s.color = c
	}
	if typ != "pie" {
		if s.xAxisIndex < 0 || s.yAxisIndex < 0 {
			return nil, fmt.Errorf("series[%d]: negative axis index", i)
		}
		// A missing counterpart axis falls back to the default kind.
		if len(m.xAxes) == 0 {
			m.xAxes = append(m.xAxes, parseAxis(nil, "category", m.text, m.theme))
		}
		if len(m.yAxes) == 0 {
			m.yAxes = append(m.yAxes, parseAxis(nil, "value", m.text, m.theme))
		}
		if s.xAxisIndex >= len(m.xAxes) {
			return nil, fmt.Errorf("series[%d]: xAxisIndex %d out of range", i, s.xAxisIndex)
		}
		if s.yAxisIndex >= len(m.yAxes) {
			return nil, fmt.Errorf("series[%d]: yAxisIndex %d out of range", i, s.yAxisIndex)
		}
	}
	for _, d := range list2(sm["data"]) {
		s.data = append(s.data, parseDatum(d))
	}
	return s, nil
}

// list2 is list for data arrays, where an object is never promoted.
func list2(v any) []any {
	l, _ := v.([]any)
	return l
}

func parseDatum(d any) datum {
	var out datum
	if dm := obj(d); dm != nil {
		out.name = str(dm["name"])
		if c, ok := parseColor(obj(dm["itemStyle"])["color"]); ok {
			out.color = &c
		}
		d = dm["value"]
	}
	if pair, ok := d.([]any); ok {
		if len(pair) >= 2 {
			x, okx := num(pair[0])
			y, oky := num(pair[1])
			if !okx {
				// category name in the x slot
				out.name = str(pair[0])
			}
			out.x, out.y, out.pair, out.ok = x, y, okx, oky
		}
		return out
	}
	out.y, out.ok = num(d)
	return out
}

func parseAxis(am map[string]any, defType string, text Font, theme Theme) *axis {
	typ := str(am["type"])
	if typ == "" {
		typ = defType
	}
	a := &axis{
		category: typ == "category",
		name:     str(am["name"]),
		show:     boolOr(am["show"], true),
		label:    fontFrom(obj(am["axisLabel"]), Font{Family: text.Family, Size: 12, Color: theme.AxisLine}),
		min:      am["min"],
		max:      am["max"],
	}
	for _, d := range list2(am["data"]) {
		if dm := obj(d); dm != nil {
			a.data = append(a.data, str(dm["value"]))
			continue
		}
		a.data = append(a.data, str(d))
	}
	return a
}

func fontFrom(style map[string]any, def Font) Font {
	f := def
	if fam, ok := style["fontFamily"].(string); ok && fam != "" {
		f.Family = fam
	}
	if sz, ok := num(style["fontSize"]); ok && sz > 0 {
		f.Size = sz
	}
	if c, ok := parseColor(style["color"]); ok {
		f.Color = c
	}
	switch w := style["fontWeight"].(type) {
	case string:
		f.Bold = w == "bold" || w == "bolder"
	default:
		if n, ok := num(w); ok {
			f.Bold = n >= 600
		}
	}
	return f
}

func graphicElements(v any) []any {
	if gm := obj(v); gm != nil {
		if els, ok := gm["elements"]; ok {
			return list(els)
		}
	}
	return list(v)
}

func firstSet(vs ...any) any {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}
