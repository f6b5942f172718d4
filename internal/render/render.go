// Package render drives the chart engine for one request and returns the
// output in the requested form.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourorg/sts-charts/internal/engine"
	"github.com/yourorg/sts-charts/internal/types"
)

// SupersampleFactor is the device pixel ratio used for PNG output.
const SupersampleFactor = 3

// Mode selects the engine backend.
type Mode int

const (
	ModeVector Mode = iota // headless SVG, used for svg and option outputs
	ModeRaster             // pixel surface, used for png output
)

// ModeFor maps an output type to its backend.
func ModeFor(outputType string) (Mode, error) {
	switch outputType {
	case types.OutputSVG, types.OutputOption:
		return ModeVector, nil
	case types.OutputPNG:
		return ModeRaster, nil
	}
	return 0, fmt.Errorf("unsupported output type %q", outputType)
}

// Renderer turns normalized specs into RenderResults.
type Renderer struct {
	loader engine.ImageLoader
	log    *zap.Logger
}

// New returns a Renderer. loader may be nil, in which case graphic images
// are left out of PNG output.
func New(loader engine.ImageLoader, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{loader: loader, log: log}
}

// Render draws spec.Normalized. For the option output the caller's original
// option is echoed back once the engine has accepted the normalized one.
func (r *Renderer) Render(ctx context.Context, spec types.NormalizedSpec) (types.RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return types.RenderResult{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	mode, err := ModeFor(spec.OutputType)
	if err != nil {
		return types.RenderResult{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	if mode == ModeVector {
		return r.vector(spec)
	}
	return r.raster(ctx, spec)
}

func (r *Renderer) vector(spec types.NormalizedSpec) (types.RenderResult, error) {
	chart, err := engine.Init(spec.Theme, engine.InitOptions{
		Renderer: engine.RendererSVG,
		SSR:      true,
		Width:    spec.Width,
		Height:   spec.Height,
	})
	if err != nil {
		return types.RenderResult{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	defer chart.Dispose()

	if err := chart.SetOption(spec.Normalized); err != nil {
		return types.RenderResult{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	r.logWarnings(chart)
	if spec.OutputType == types.OutputOption {
		out, err := echo(spec.Option)
		if err != nil {
			return types.RenderResult{}, fmt.Errorf("%w: %w", ErrRender, err)
		}
		return types.TextResult(out), nil
	}
	svg, err := chart.RenderToSVGString()
	if err != nil {
		return types.RenderResult{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return types.TextResult(svg), nil
}

func (r *Renderer) raster(ctx context.Context, spec types.NormalizedSpec) (types.RenderResult, error) {
	chart, err := engine.Init(spec.Theme, engine.InitOptions{
		Renderer:         engine.RendererCanvas,
		Width:            spec.Width,
		Height:           spec.Height,
		DevicePixelRatio: SupersampleFactor,
		ImageLoader:      r.loader,
	})
	if err != nil {
		return types.RenderResult{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	defer chart.Dispose()

	if err := chart.SetOption(spec.Normalized); err != nil {
		return types.RenderResult{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	data, err := chart.RenderToPNG(ctx)
	r.logWarnings(chart)
	if err != nil {
		return types.RenderResult{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return types.BinaryResult(data, "image/png"), nil
}

func (r *Renderer) logWarnings(chart *engine.Chart) {
	for _, w := range chart.Warnings() {
		r.log.Debug("render warning", zap.String("warning", w))
	}
}

// echo pretty-prints option with two-space indentation and without HTML
// escaping, so it decodes back to the same value.
func echo(option map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(option); err != nil {
		return "", fmt.Errorf("encode option: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
