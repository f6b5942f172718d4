package engine

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
)

func barOption() map[string]any {
	return map[string]any{
		"title": map[string]any{"text": "Sales & <Costs>"},
		"xAxis": map[string]any{"type": "category", "data": []any{"Mon", "Tue", "Wed"}},
		"yAxis": map[string]any{"type": "value"},
		"series": []any{
			map[string]any{"type": "bar", "name": "a", "data": []any{120.0, 200.0, 150.0}},
			map[string]any{"type": "line", "name": "b", "data": []any{80.0, nil, 60.0}},
		},
	}
}

func wellFormed(t *testing.T, svg string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("svg not well formed: %v\n%s", err, svg)
		}
	}
}

func TestRenderToSVGString(t *testing.T) {
	c, err := Init("default", InitOptions{Renderer: RendererSVG, SSR: true, Width: 400, Height: 300})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer c.Dispose()
	if err := c.SetOption(barOption()); err != nil {
		t.Fatalf("set option: %v", err)
	}
	svg, err := c.RenderToSVGString()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(svg, `<svg width="400" height="300"`) {
		t.Fatalf("unexpected prefix: %.80s", svg)
	}
	if !strings.Contains(svg, "Sales &amp; &lt;Costs&gt;") {
		t.Fatalf("title not escaped:\n%s", svg)
	}
	if !strings.Contains(svg, ">Tue</text>") {
		t.Fatalf("category label missing")
	}
	wellFormed(t, svg)
}

func TestSVGDropsControlCharacters(t *testing.T) {
	c, err := Init("default", InitOptions{Renderer: RendererSVG, SSR: true, Width: 200, Height: 100})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer c.Dispose()
	opt := map[string]any{
		"title":     map[string]any{"text": "Q1\u0001Q2\u001b", "subtext": "bad\xffutf8"},
		"textStyle": map[string]any{"fontFamily": "A\u0002B"},
	}
	if err := c.SetOption(opt); err != nil {
		t.Fatalf("set option: %v", err)
	}
	svg, err := c.RenderToSVGString()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	wellFormed(t, svg)
	if !strings.Contains(svg, ">Q1Q2</text>") {
		t.Fatalf("title text not kept:\n%s", svg)
	}
}

func TestRenderToPNGSize(t *testing.T) {
	c, err := Init("dark", InitOptions{Renderer: RendererCanvas, Width: 120, Height: 80, DevicePixelRatio: 3})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer c.Dispose()
	if err := c.SetOption(barOption()); err != nil {
		t.Fatalf("set option: %v", err)
	}
	data, err := c.RenderToPNG(context.Background())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 360 || b.Dy() != 240 {
		t.Fatalf("size=%dx%d; want 360x240", b.Dx(), b.Dy())
	}
	// dark theme paints an opaque background
	if _, _, _, a := img.At(1, 1).RGBA(); a != 0xffff {
		t.Fatalf("corner alpha=%d; want opaque", a)
	}
}

func TestPieRenders(t *testing.T) {
	c, err := Init("", InitOptions{Renderer: RendererSVG, SSR: true, Width: 300, Height: 300})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer c.Dispose()
	opt := map[string]any{
		"series": map[string]any{
			"type":   "pie",
			"radius": []any{"40%", "70%"},
			"data": []any{
				map[string]any{"name": "A", "value": 1.0},
				map[string]any{"name": "B", "value": 3.0, "itemStyle": map[string]any{"color": "#ff0000"}},
			},
		},
	}
	if err := c.SetOption(opt); err != nil {
		t.Fatalf("set option: %v", err)
	}
	svg, err := c.RenderToSVGString()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(svg, `fill="rgb(255,0,0)"`) {
		t.Fatalf("item color not applied:\n%s", svg)
	}
	wellFormed(t, svg)
}

func TestUnknownSeriesType(t *testing.T) {
	c, err := Init("default", InitOptions{Renderer: RendererSVG, SSR: true, Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer c.Dispose()
	err = c.SetOption(map[string]any{"series": []any{map[string]any{"type": "funnel3d"}}})
	if err == nil || !strings.Contains(err.Error(), "funnel3d") {
		t.Fatalf("err=%v; want unknown series type", err)
	}
	if err := c.SetOption(map[string]any{"series": []any{map[string]any{"name": "x"}}}); err == nil {
		t.Fatalf("series without type accepted")
	}
}

func TestUndrawnSeriesSkipped(t *testing.T) {
	c, err := Init("default", InitOptions{Renderer: RendererSVG, SSR: true, Width: 200, Height: 200})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer c.Dispose()
	opt := map[string]any{
		"xAxis": map[string]any{"type": "category", "data": []any{"a"}},
		"yAxis": map[string]any{},
		"series": []any{
			map[string]any{"type": "radar", "data": []any{map[string]any{"value": []any{1.0, 2.0}}}},
			map[string]any{"type": "bar", "data": []any{3.0}},
		},
	}
	if err := c.SetOption(opt); err != nil {
		t.Fatalf("set option: %v", err)
	}
	svg, err := c.RenderToSVGString()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	wellFormed(t, svg)
	if w := c.Warnings(); len(w) != 1 || !strings.Contains(w[0], "radar") {
		t.Fatalf("warnings=%v", w)
	}
}

func TestInitErrors(t *testing.T) {
	cases := []struct {
		theme string
		opts  InitOptions
	}{
		{"default", InitOptions{Renderer: RendererSVG, Width: 10, Height: 10}},
		{"default", InitOptions{Renderer: "webgl", Width: 10, Height: 10}},
		{"default", InitOptions{Renderer: RendererCanvas, Width: 0, Height: 10}},
		{"light", InitOptions{Renderer: RendererCanvas, Width: 10, Height: 10}},
	}
	for i, tc := range cases {
		if _, err := Init(tc.theme, tc.opts); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestLifecycleErrors(t *testing.T) {
	c, err := Init("default", InitOptions{Renderer: RendererSVG, SSR: true, Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := c.RenderToSVGString(); !errors.Is(err, ErrNoOption) {
		t.Fatalf("err=%v; want ErrNoOption", err)
	}
	if err := c.SetOption(map[string]any{}); err != nil {
		t.Fatalf("set option: %v", err)
	}
	if _, err := c.RenderToPNG(context.Background()); !errors.Is(err, ErrRendererMismatch) {
		t.Fatalf("err=%v; want ErrRendererMismatch", err)
	}
	c.Dispose()
	c.Dispose()
	if _, err := c.RenderToSVGString(); !errors.Is(err, ErrDisposed) {
		t.Fatalf("err=%v; want ErrDisposed", err)
	}
	if err := c.SetOption(map[string]any{}); !errors.Is(err, ErrDisposed) {
		t.Fatalf("err=%v; want ErrDisposed", err)
	}
}

type fakeLoader struct {
	img  image.Image
	fail bool
}

func (f *fakeLoader) LoadImage(_ context.Context, src string, onload func(image.Image), onerror func(error)) {
	if f.fail {
		onerror(errors.New("boom"))
		return
	}
	onload(f.img)
}

func TestImageLoader(t *testing.T) {
	red := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			red.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	opt := map[string]any{
		"graphic": []any{map[string]any{
			"type": "image", "left": 0.0, "top": 0.0,
			"style": map[string]any{"image": "https://example.com/logo.png", "width": 20.0, "height": 20.0},
		}},
	}

	c, err := Init("default", InitOptions{Renderer: RendererCanvas, Width: 40, Height: 40, ImageLoader: &fakeLoader{img: red}})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := c.SetOption(opt); err != nil {
		t.Fatalf("set option: %v", err)
	}
	data, err := c.RenderToPNG(context.Background())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	c.Dispose()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r, _, _, a := img.At(10, 10).RGBA(); r < 0xf000 || a < 0xf000 {
		t.Fatalf("image not drawn: r=%d a=%d", r, a)
	}

	c, err = Init("default", InitOptions{Renderer: RendererCanvas, Width: 40, Height: 40, ImageLoader: &fakeLoader{fail: true}})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer c.Dispose()
	if err := c.SetOption(opt); err != nil {
		t.Fatalf("set option: %v", err)
	}
	if _, err := c.RenderToPNG(context.Background()); err != nil {
		t.Fatalf("failed image must not fail render: %v", err)
	}
	if w := c.Warnings(); len(w) != 1 || !strings.Contains(w[0], "boom") {
		t.Fatalf("warnings=%v", w)
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]color.RGBA{
		"#fff":               {255, 255, 255, 255},
		"#5470c6":            {0x54, 0x70, 0xc6, 255},
		"#00000080":          {0, 0, 0, 0x80},
		"rgb(1, 2, 3)":       {1, 2, 3, 255},
		"rgba(10,20,30,0.5)": {10, 20, 30, 128},
		"transparent":        {},
		" Red ":              {255, 0, 0, 255},
	}
	for in, want := range cases {
		got, ok := parseColor(in)
		if !ok || got != want {
			t.Fatalf("parseColor(%q)=%v,%v; want %v", in, got, ok, want)
		}
	}
	for _, bad := range []any{"#12", "hsl(1,2,3)", 42.0, nil} {
		if _, ok := parseColor(bad); ok {
			t.Fatalf("parseColor(%v) should fail", bad)
		}
	}
}

func TestNiceScale(t *testing.T) {
	cases := []struct{ lo, hi, wantLo, wantHi float64 }{
		{0, 0, 0, 1},
		{0, 230, 0, 250},
		{-7, 93, -20, 100},
		{5, 5, 0, 5},
	}
	for _, tc := range cases {
		lo, hi := niceScale(tc.lo, tc.hi)
		if lo != tc.wantLo || hi != tc.wantHi {
			t.Fatalf("niceScale(%v,%v)=%v,%v; want %v,%v", tc.lo, tc.hi, lo, hi, tc.wantLo, tc.wantHi)
		}
	}
}

func TestClipPolygon(t *testing.T) {
	got := clipPolygon([]Point{{-10, -10}, {20, -10}, {20, 20}, {-10, 20}}, 10, 10)
	if len(got) != 4 {
		t.Fatalf("got %v", got)
	}
	for _, p := range got {
		if p.X < 0 || p.X > 10 || p.Y < 0 || p.Y > 10 {
			t.Fatalf("point %v outside clip rect", p)
		}
	}
	if got := clipPolygon([]Point{{20, 20}, {30, 20}, {30, 30}}, 10, 10); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}
