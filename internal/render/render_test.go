package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"reflect"
	"strings"
	"testing"

	"github.com/yourorg/sts-charts/internal/engine"
	"github.com/yourorg/sts-charts/internal/normalize"
	"github.com/yourorg/sts-charts/internal/types"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return m
}

func spec(option map[string]any, output string) types.NormalizedSpec {
	return normalize.Chart(types.ChartSpec{
		Option:     option,
		Width:      200,
		Height:     150,
		Theme:      types.ThemeDefault,
		OutputType: output,
	}, normalize.DefaultFontFamily)
}

const lineOption = `{"xAxis":{"type":"category","data":["a","b"]},"yAxis":{},"series":[{"type":"line","data":[1,2.50]}],"title":{"text":"<x>"}}`

func TestRenderSVG(t *testing.T) {
	res, err := New(nil, nil).Render(context.Background(), spec(decode(t, lineOption), types.OutputSVG))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if res.IsBinary() || !strings.HasPrefix(res.Text, "<svg") {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Text, "font-family:Roboto") {
		t.Fatalf("default font not applied")
	}
}

func TestRenderOptionEcho(t *testing.T) {
	opt := decode(t, lineOption)
	res, err := New(nil, nil).Render(context.Background(), spec(opt, types.OutputOption))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !reflect.DeepEqual(decode(t, res.Text), opt) {
		t.Fatalf("echo does not round trip:\n%s", res.Text)
	}
	if strings.Contains(res.Text, "fontFamily") || strings.Contains(res.Text, "animation") {
		t.Fatalf("echo leaked normalized keys:\n%s", res.Text)
	}
	if !strings.Contains(res.Text, `"<x>"`) || !strings.Contains(res.Text, "\n  ") {
		t.Fatalf("echo not indented or html-escaped:\n%s", res.Text)
	}
}

func TestRenderUndrawnSeriesType(t *testing.T) {
	const gauge = `{"series":[{"type":"gauge","detail":{"formatter":"{value}%"},"data":[{"value":50,"name":"Score"}]}]}`
	opt := decode(t, gauge)
	res, err := New(nil, nil).Render(context.Background(), spec(opt, types.OutputOption))
	if err != nil {
		t.Fatalf("render option: %v", err)
	}
	if !reflect.DeepEqual(decode(t, res.Text), opt) {
		t.Fatalf("echo does not round trip:\n%s", res.Text)
	}
	for _, out := range []string{types.OutputSVG, types.OutputPNG} {
		if _, err := New(nil, nil).Render(context.Background(), spec(opt, out)); err != nil {
			t.Fatalf("render %s: %v", out, err)
		}
	}
}

func TestRenderOptionStillValidates(t *testing.T) {
	opt := map[string]any{"series": []any{map[string]any{"type": "funnel3d"}}}
	_, err := New(nil, nil).Render(context.Background(), spec(opt, types.OutputOption))
	if !errors.Is(err, ErrRender) {
		t.Fatalf("err=%v; want ErrRender", err)
	}
	if !strings.HasPrefix(err.Error(), "chart rendering failed: ") {
		t.Fatalf("message=%q", err.Error())
	}
}

func TestRenderPNG(t *testing.T) {
	res, err := New(nil, nil).Render(context.Background(), spec(decode(t, lineOption), types.OutputPNG))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !res.IsBinary() || res.MimeType != "image/png" {
		t.Fatalf("unexpected result: mime=%q", res.MimeType)
	}
	img, err := png.Decode(bytes.NewReader(res.Binary))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200*SupersampleFactor || b.Dy() != 150*SupersampleFactor {
		t.Fatalf("size=%v", b)
	}
}

func TestRenderErrorsKeepCause(t *testing.T) {
	s := spec(map[string]any{}, types.OutputSVG)
	s.Theme = "neon"
	_, err := New(nil, nil).Render(context.Background(), s)
	if !errors.Is(err, ErrRender) || !errors.Is(err, engine.ErrUnknownTheme) {
		t.Fatalf("err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(nil, nil).Render(ctx, spec(map[string]any{}, types.OutputPNG))
	if !errors.Is(err, ErrRender) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
}

func TestModeFor(t *testing.T) {
	cases := map[string]Mode{types.OutputSVG: ModeVector, types.OutputOption: ModeVector, types.OutputPNG: ModeRaster}
	for in, want := range cases {
		if got, err := ModeFor(in); err != nil || got != want {
			t.Fatalf("ModeFor(%q)=%v,%v; want %v", in, got, err, want)
		}
	}
	if _, err := ModeFor("gif"); err == nil {
		t.Fatalf("expected error for gif")
	}
}
