package engine

import (
	"image/color"
	"math"
)

const (
	legendSwatchW = 25.0
	legendSwatchH = 14.0
	legendGap     = 10.0
)

// layout turns a model into a Scene of width w and height h.
func layout(m *model, w, h float64) *Scene {
	sc := &Scene{Width: w, Height: h, Background: m.background}

	var cartesian, pies []*series
	for _, s := range m.series {
		if s.typ == "pie" {
			pies = append(pies, s)
		} else {
			cartesian = append(cartesian, s)
		}
	}

	if len(cartesian) > 0 || len(m.xAxes) > 0 && len(m.yAxes) > 0 {
		layoutGrid(sc, m, cartesian, w, h)
	}
	for _, s := range pies {
		layoutPie(sc, m, s, w, h)
	}
	for _, t := range m.titles {
		layoutTitle(sc, t, w, h)
	}
	if m.legend != nil {
		layoutLegend(sc, m, w, h)
	}
	for _, g := range m.graphics {
		iw := lengthOr(g.width, w, 100)
		ih := lengthOr(g.height, h, 100)
		sc.add(&Image{
			X:   position(g.left, w, iw, 0),
			Y:   position(g.top, h, ih, 0),
			W:   iw,
			H:   ih,
			Src: g.src,
		})
	}
	return sc
}

// position resolves left/top style values: numbers, percentages and the
// keywords left|center|right|top|middle|bottom.
func position(v any, total, size, def float64) float64 {
	switch v {
	case "left", "top":
		return 0
	case "center", "middle":
		return (total - size) / 2
	case "right", "bottom":
		return total - size
	}
	return lengthOr(v, total, def)
}

func layoutTitle(sc *Scene, t title, w, h float64) {
	width := math.Max(textWidth(t.text, t.style.Size), textWidth(t.subtext, t.sub.Size))
	x := position(t.left, w, width, 5)
	y := position(t.top, h, t.style.Size, 5)
	anchor := AnchorStart
	switch t.left {
	case "center":
		x, anchor = w/2, AnchorMiddle
	case "right":
		x, anchor = w-5, AnchorEnd
	}
	if t.text != "" {
		sc.add(Text{X: x, Y: y + t.style.Size/2 + 2, Content: t.text, Font: t.style, Anchor: anchor})
	}
	if t.subtext != "" {
		sc.add(Text{X: x, Y: y + t.style.Size + 8 + t.sub.Size/2, Content: t.subtext, Font: t.sub, Anchor: anchor})
	}
}

type legendItem struct {
	name  string
	color color.RGBA
}

func legendItems(m *model) []legendItem {
	var all []legendItem
	for _, s := range m.series {
		if s.typ == "pie" {
			for i, d := range s.data {
				c := m.palette[i%len(m.palette)]
				if d.color != nil {
					c = *d.color
				}
				all = append(all, legendItem{d.name, c})
			}
			continue
		}
		all = append(all, legendItem{s.name, s.color})
	}
	if len(m.legend.names) == 0 {
		out := all[:0:0]
		for _, it := range all {
			if it.name != "" {
				out = append(out, it)
			}
		}
		return out
	}
	var out []legendItem
	for _, n := range m.legend.names {
		for _, it := range all {
			if it.name == n {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

func layoutLegend(sc *Scene, m *model, w, h float64) {
	items := legendItems(m)
	if len(items) == 0 {
		return
	}
	f := m.legend.style
	total := 0.0
	for _, it := range items {
		total += legendSwatchW + 5 + textWidth(it.name, f.Size) + legendGap
	}
	total -= legendGap
	x := position(m.legend.left, w, total, (w-total)/2)
	def := 5.0
	if len(m.titles) > 0 {
		// keep clear of a title drawn at the default position
		def = 35
	}
	y := position(m.legend.top, h, legendSwatchH, def)
	for _, it := range items {
		sc.add(Rect{X: x, Y: y, W: legendSwatchW, H: legendSwatchH, Fill: it.color})
		x += legendSwatchW + 5
		sc.add(Text{X: x, Y: y + legendSwatchH/2, Content: it.name, Font: f})
		x += textWidth(it.name, f.Size) + legendGap
	}
}

// plot is the grid rectangle cartesian series draw into.
type plot struct{ x0, y0, x1, y1 float64 }

func gridRect(g map[string]any, w, h float64) plot {
	left := lengthOr(g["left"], w, w*0.1)
	right := lengthOr(g["right"], w, w*0.1)
	top := lengthOr(g["top"], h, 60)
	bottom := lengthOr(g["bottom"], h, 60)
	p := plot{x0: left, y0: top, x1: w - right, y1: h - bottom}
	if p.x1-p.x0 < 10 {
		p.x0, p.x1 = 0, w
	}
	if p.y1-p.y0 < 10 {
		p.y0, p.y1 = 0, h
	}
	return p
}

func layoutGrid(sc *Scene, m *model, cartesian []*series, w, h float64) {
	p := gridRect(m.grid, w, h)
	for _, a := range m.xAxes {
		a.start, a.end = p.x0, p.x1
	}
	for _, a := range m.yAxes {
		// value axes grow upwards
		a.start, a.end = p.y1, p.y0
	}

	// Horizontal bars: the category axis is y and the value axis is x.
	horizontal := func(s *series) bool {
		return m.yAxes[s.yAxisIndex].category && !m.xAxes[s.xAxisIndex].category
	}

	stacks := stackTotals(m, cartesian, horizontal)
	for _, a := range m.xAxes {
		if !a.category {
			resolveScale(a, m, cartesian, stacks, true, horizontal)
		} else {
			resolveCategories(a, m, cartesian, true)
		}
	}
	for _, a := range m.yAxes {
		if !a.category {
			resolveScale(a, m, cartesian, stacks, false, horizontal)
		} else {
			resolveCategories(a, m, cartesian, false)
		}
	}

	for i, a := range m.yAxes {
		if a.show {
			drawAxis(sc, m, a, p, false, i)
		}
	}
	for i, a := range m.xAxes {
		if a.show {
			drawAxis(sc, m, a, p, true, i)
		}
	}

	bars := barSlots(m, cartesian, horizontal)
	base := map[stackKey]float64{}
	for _, s := range cartesian {
		xa, ya := m.xAxes[s.xAxisIndex], m.yAxes[s.yAxisIndex]
		switch s.typ {
		case "bar":
			drawBars(sc, s, xa, ya, horizontal(s), bars[s], base)
		case "line":
			drawLine(sc, s, xa, ya, base)
		case "scatter":
			drawScatter(sc, s, xa, ya)
		}
	}
}

type stackKey struct {
	stack string
	axis  *axis
	index int
}

// stackTotals returns the positive and negative extent of every stacked
// category so value scales cover stacked bars and lines.
func stackTotals(m *model, cartesian []*series, horizontal func(*series) bool) map[*axis][]float64 {
	acc := map[stackKey]float64{}
	out := map[*axis][]float64{}
	for _, s := range cartesian {
		if s.stack == "" || s.typ == "scatter" {
			continue
		}
		va := m.yAxes[s.yAxisIndex]
		if horizontal(s) {
			va = m.xAxes[s.xAxisIndex]
		}
		for i, d := range s.data {
			if !d.ok {
				continue
			}
			k := stackKey{s.stack, va, i}
			acc[k] += d.y
			out[va] = append(out[va], acc[k])
		}
	}
	return out
}

func resolveCategories(a *axis, m *model, cartesian []*series, isX bool) {
	if len(a.data) > 0 {
		return
	}
	n := 0
	for _, s := range cartesian {
		own := m.yAxes[s.yAxisIndex]
		if isX {
			own = m.xAxes[s.xAxisIndex]
		}
		if own != a {
			continue
		}
		for _, d := range s.data {
			if d.name != "" && !containsStr(a.data, d.name) && !d.pair {
				a.data = append(a.data, d.name)
			}
		}
		if len(s.data) > n {
			n = len(s.data)
		}
	}
	for i := len(a.data); i < n; i++ {
		a.data = append(a.data, formatTick(float64(i)))
	}
}

func containsStr(l []string, s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

func resolveScale(a *axis, m *model, cartesian []*series, stacks map[*axis][]float64, isX bool, horizontal func(*series) bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	see := func(v float64) {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for _, s := range cartesian {
		own := m.yAxes[s.yAxisIndex]
		if isX {
			own = m.xAxes[s.xAxisIndex]
		}
		if own != a {
			continue
		}
		for i, d := range s.data {
			if !d.ok {
				continue
			}
			switch {
			case d.pair && isX:
				see(d.x)
			case isX && !horizontal(s):
				// value x-axis paired with a value y-axis: index is x
				see(float64(i))
			default:
				see(d.y)
			}
		}
		if s.typ == "bar" {
			see(0)
		}
	}
	for _, v := range stacks[a] {
		see(v)
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	a.lo, a.hi = niceScale(lo, hi)
	if v, ok := num(a.min); ok {
		a.lo = v
	}
	if v, ok := num(a.max); ok {
		a.hi = v
	}
	if a.hi <= a.lo {
		a.hi = a.lo + 1
	}
}

// niceScale widens [lo,hi] to round tick boundaries.
func niceScale(lo, hi float64) (float64, float64) {
	if lo == hi {
		if lo == 0 {
			return 0, 1
		}
		lo, hi = math.Min(0, lo), math.Max(0, hi)
	}
	step := niceStep((hi - lo) / 5)
	return math.Floor(lo/step) * step, math.Ceil(hi/step) * step
}

func niceStep(raw float64) float64 {
	if raw <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(raw)))
	f := raw / exp
	switch {
	case f <= 1:
		return exp
	case f <= 2:
		return 2 * exp
	case f <= 5:
		return 5 * exp
	}
	return 10 * exp
}

// pos maps a value to pixels on a value axis.
func (a *axis) pos(v float64) float64 {
	return a.start + (v-a.lo)/(a.hi-a.lo)*(a.end-a.start)
}

// band returns the center and width of category i.
func (a *axis) band(i int) (float64, float64) {
	n := len(a.data)
	if n == 0 {
		n = 1
	}
	bw := (a.end - a.start) / float64(n)
	return a.start + (float64(i)+0.5)*bw, math.Abs(bw)
}

// categoryIndex resolves a datum on a category axis: by name when the
// datum carries one that the axis knows, else by position.
func (a *axis) categoryIndex(d datum, i int) int {
	if d.name != "" && !d.pair {
		for j, c := range a.data {
			if c == d.name {
				return j
			}
		}
	}
	if d.pair {
		return int(d.x)
	}
	return i
}

func drawAxis(sc *Scene, m *model, a *axis, p plot, isX bool, idx int) {
	line := m.theme.AxisLine
	f := a.label
	// secondary axes sit on the opposite side
	opposite := idx > 0
	if isX {
		y := p.y1
		if opposite {
			y = p.y0
		}
		sc.add(Path{Points: []Point{{p.x0, y}, {p.x1, y}}, Stroke: line, StrokeWidth: 1})
		dir := 1.0
		if opposite {
			dir = -1
		}
		for _, t := range ticks(a) {
			if !a.category {
				sc.add(Path{Points: []Point{{t.at, p.y0}, {t.at, p.y1}}, Stroke: m.theme.SplitLine, StrokeWidth: 1})
			}
			sc.add(Path{Points: []Point{{t.at, y}, {t.at, y + 5*dir}}, Stroke: line, StrokeWidth: 1})
			sc.add(Text{X: t.at, Y: y + dir*(8+f.Size/2), Content: t.label, Font: f, Anchor: AnchorMiddle})
		}
		if a.name != "" {
			sc.add(Text{X: p.x1 + 10, Y: y, Content: a.name, Font: f})
		}
		return
	}
	x := p.x0
	anchor := AnchorEnd
	dir := -1.0
	if opposite {
		x, anchor, dir = p.x1, AnchorStart, 1
	}
	sc.add(Path{Points: []Point{{x, p.y0}, {x, p.y1}}, Stroke: line, StrokeWidth: 1})
	for _, t := range ticks(a) {
		if !a.category && !opposite {
			sc.add(Path{Points: []Point{{p.x0, t.at}, {p.x1, t.at}}, Stroke: m.theme.SplitLine, StrokeWidth: 1})
		}
		sc.add(Path{Points: []Point{{x, t.at}, {x + 5*dir, t.at}}, Stroke: line, StrokeWidth: 1})
		sc.add(Text{X: x + 8*dir, Y: t.at, Content: t.label, Font: f, Anchor: anchor})
	}
	if a.name != "" {
		sc.add(Text{X: x, Y: p.y0 - 15, Content: a.name, Font: f, Anchor: AnchorMiddle})
	}
}

type tick struct {
	at    float64
	label string
}

func ticks(a *axis) []tick {
	var out []tick
	if a.category {
		for i, c := range a.data {
			at, _ := a.band(i)
			out = append(out, tick{at, c})
		}
		return out
	}
	step := niceStep((a.hi - a.lo) / 5)
	for v := math.Ceil(a.lo/step) * step; v <= a.hi+step*1e-9; v += step {
		out = append(out, tick{a.pos(v), formatTick(v)})
	}
	return out
}

type slot struct{ index, count int }

// barSlots assigns each bar series a slot within its category band; bars
// sharing a stack share a slot.
func barSlots(m *model, cartesian []*series, horizontal func(*series) bool) map[*series]slot {
	type group struct {
		axis *axis
		keys []string
	}
	groups := map[*axis]*group{}
	slots := map[*series]slot{}
	for _, s := range cartesian {
		if s.typ != "bar" {
			continue
		}
		ca := m.xAxes[s.xAxisIndex]
		if horizontal(s) {
			ca = m.yAxes[s.yAxisIndex]
		}
		g := groups[ca]
		if g == nil {
			g = &group{axis: ca}
			groups[ca] = g
		}
		key := s.stack
		if key == "" {
			key = "\x00" + formatTick(float64(s.index))
		}
		idx := -1
		for i, k := range g.keys {
			if k == key {
				idx = i
			}
		}
		if idx < 0 {
			idx = len(g.keys)
			g.keys = append(g.keys, key)
		}
		slots[s] = slot{index: idx}
	}
	for s, sl := range slots {
		ca := m.xAxes[s.xAxisIndex]
		if horizontal(s) {
			ca = m.yAxes[s.yAxisIndex]
		}
		sl.count = len(groups[ca].keys)
		slots[s] = sl
	}
	return slots
}

func itemColor(s *series, d datum) color.RGBA {
	if d.color != nil {
		return *d.color
	}
	return s.color
}

func drawBars(sc *Scene, s *series, xa, ya *axis, horizontal bool, sl slot, base map[stackKey]float64) {
	ca, va := xa, ya
	if horizontal {
		ca, va = ya, xa
	}
	if !ca.category {
		// bars on a value/value grid are drawn at their x position
		ca = nil
	}
	zero := va.pos(math.Max(va.lo, math.Min(0, va.hi)))
	for i, d := range s.data {
		if !d.ok {
			continue
		}
		var center, band float64
		if ca != nil {
			center, band = ca.band(ca.categoryIndex(d, i))
		} else if d.pair {
			center, band = xa.pos(d.x), 20
		} else {
			center, band = xa.pos(float64(i)), 20
		}
		count := sl.count
		if count == 0 {
			count = 1
		}
		group := band * 0.7
		bw := group / float64(count)
		c0 := center - group/2 + float64(sl.index)*bw + bw*0.075
		bw *= 0.85

		from, to := zero, va.pos(d.y)
		if s.stack != "" {
			k := stackKey{s.stack, va, i}
			prev := base[k]
			from, to = va.pos(prev), va.pos(prev+d.y)
			base[k] = prev + d.y
		}
		lo, hi := math.Min(from, to), math.Max(from, to)
		if horizontal {
			sc.add(Rect{X: lo, Y: c0, W: hi - lo, H: bw, Fill: itemColor(s, d)})
		} else {
			sc.add(Rect{X: c0, Y: lo, W: bw, H: hi - lo, Fill: itemColor(s, d)})
		}
	}
}

// xy maps datum i to pixels for line and scatter series.
func xy(d datum, i int, xa, ya *axis, y float64) Point {
	var x float64
	switch {
	case xa.category:
		x, _ = xa.band(xa.categoryIndex(d, i))
	case d.pair:
		x = xa.pos(d.x)
	default:
		x = xa.pos(float64(i))
	}
	if ya.category {
		cy, _ := ya.band(i)
		return Point{x, cy}
	}
	return Point{x, ya.pos(y)}
}

func drawLine(sc *Scene, s *series, xa, ya *axis, base map[stackKey]float64) {
	var runs [][]Point
	var cur []Point
	var floor []Point
	for i, d := range s.data {
		if !d.ok {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		v, prev := d.y, 0.0
		if s.stack != "" {
			k := stackKey{s.stack, ya, i}
			prev = base[k]
			v = prev + d.y
			base[k] = v
		}
		p := xy(d, i, xa, ya, v)
		cur = append(cur, p)
		floor = append(floor, xy(d, i, xa, ya, prev))
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	if s.area && !ya.category {
		offset := 0
		for _, run := range runs {
			poly := append([]Point{}, run...)
			for j := len(run) - 1; j >= 0; j-- {
				p := floor[offset+j]
				if s.stack == "" {
					p.Y = ya.pos(math.Max(ya.lo, math.Min(0, ya.hi)))
				}
				poly = append(poly, p)
			}
			offset += len(run)
			sc.add(Path{Points: poly, Closed: true, Fill: withAlpha(s.color, 0.5)})
		}
	}
	size := s.symbolSize
	if size == 0 {
		size = 4
	}
	for _, run := range runs {
		if len(run) > 1 {
			sc.add(Path{Points: run, Stroke: s.color, StrokeWidth: 2})
		}
		for _, p := range run {
			sc.add(Circle{CX: p.X, CY: p.Y, R: size / 2, Fill: color.RGBA{255, 255, 255, 255}, Stroke: s.color, StrokeWidth: 1})
		}
	}
}

func drawScatter(sc *Scene, s *series, xa, ya *axis) {
	size := s.symbolSize
	if size == 0 {
		size = 10
	}
	for i, d := range s.data {
		if !d.ok {
			continue
		}
		p := xy(d, i, xa, ya, d.y)
		sc.add(Circle{CX: p.X, CY: p.Y, R: size / 2, Fill: withAlpha(itemColor(s, d), 0.8)})
	}
}

func layoutPie(sc *Scene, m *model, s *series, w, h float64) {
	cx, cy := w/2, h/2
	if c := list2(s.center); len(c) == 2 {
		cx = lengthOr(c[0], w, cx)
		cy = lengthOr(c[1], h, cy)
	}
	half := math.Min(w, h) / 2
	r0, r1 := 0.0, half*0.75
	if rl := list2(s.radius); len(rl) == 2 {
		r0 = lengthOr(rl[0], half, 0)
		r1 = lengthOr(rl[1], half, r1)
	} else if s.radius != nil {
		r1 = lengthOr(s.radius, half, r1)
	}

	total := 0.0
	for _, d := range s.data {
		if d.ok && d.y > 0 {
			total += d.y
		}
	}
	if total == 0 {
		return
	}
	a := -math.Pi / 2
	for i, d := range s.data {
		if !d.ok || d.y <= 0 {
			continue
		}
		sweep := d.y / total * 2 * math.Pi
		c := m.palette[i%len(m.palette)]
		if d.color != nil {
			c = *d.color
		}
		sc.add(Path{Points: sector(cx, cy, r0, r1, a, a+sweep), Closed: true, Fill: c, Stroke: m.background, StrokeWidth: 1})
		if d.name != "" {
			mid := a + sweep/2
			inner := Point{cx + r1*math.Cos(mid), cy + r1*math.Sin(mid)}
			outer := Point{cx + (r1+15)*math.Cos(mid), cy + (r1+15)*math.Sin(mid)}
			anchor, dx := AnchorStart, 5.0
			if math.Cos(mid) < 0 {
				anchor, dx = AnchorEnd, -5
			}
			sc.add(Path{Points: []Point{inner, outer, {outer.X + dx, outer.Y}}, Stroke: c, StrokeWidth: 1})
			sc.add(Text{X: outer.X + dx*1.5, Y: outer.Y, Content: d.name, Font: s.label, Anchor: anchor})
		}
		a += sweep
	}
}
