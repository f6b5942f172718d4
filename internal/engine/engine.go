// Package engine lays out ECharts-style chart options and draws them as SVG
// markup or PNG images. A Chart is single-use: create it with Init, feed it
// one option, render, then Dispose.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
)

const (
	RendererSVG    = "svg"
	RendererCanvas = "canvas"
)

var (
	ErrDisposed         = errors.New("chart has been disposed")
	ErrNoOption         = errors.New("chart has no option")
	ErrRendererMismatch = errors.New("operation not supported by this renderer")
	ErrUnknownTheme     = errors.New("unknown theme")
)

// ImageLoader fetches external pictures referenced by an option for raster
// output. Exactly one of onload or onerror must be called.
type ImageLoader interface {
	LoadImage(ctx context.Context, src string, onload func(image.Image), onerror func(error))
}

// InitOptions configures a Chart.
type InitOptions struct {
	// Renderer is RendererSVG or RendererCanvas.
	Renderer string
	// SSR must be set for RendererSVG; server-side SVG is the only vector mode.
	SSR    bool
	Width  int
	Height int
	// DevicePixelRatio multiplies the raster resolution. Zero means 1.
	DevicePixelRatio float64
	// ImageLoader resolves graphic images for canvas rendering. Nil skips them.
	ImageLoader ImageLoader
}

// Chart is one rendering instance.
type Chart struct {
	mu       sync.Mutex
	opts     InitOptions
	theme    Theme
	scene    *Scene
	disposed bool
	warnings []string
}

// Init creates a chart for the named theme.
func Init(theme string, opts InitOptions) (*Chart, error) {
	switch opts.Renderer {
	case RendererSVG:
		if !opts.SSR {
			return nil, fmt.Errorf("%w: svg renderer requires ssr", ErrRendererMismatch)
		}
	case RendererCanvas:
	default:
		return nil, fmt.Errorf("unknown renderer %q", opts.Renderer)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid chart size %dx%d", opts.Width, opts.Height)
	}
	if opts.DevicePixelRatio == 0 {
		opts.DevicePixelRatio = 1
	}
	if opts.DevicePixelRatio < 0 {
		return nil, fmt.Errorf("invalid device pixel ratio %v", opts.DevicePixelRatio)
	}
	t, ok := LookupTheme(theme)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	return &Chart{opts: opts, theme: t}, nil
}

// SetOption lays out option. Errors report malformed structures such as a
// series without a type. Known series types the engine does not draw are
// skipped and reported through Warnings.
func (c *Chart) SetOption(option map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	m, err := parseOption(option, c.theme)
	if err != nil {
		return err
	}
	c.warnings = append(c.warnings, m.warnings...)
	c.scene = layout(m, float64(c.opts.Width), float64(c.opts.Height))
	return nil
}

// RenderToSVGString serializes the laid-out chart. Only svg charts support it.
func (c *Chart) RenderToSVGString() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(RendererSVG); err != nil {
		return "", err
	}
	return writeSVG(c.scene), nil
}

// RenderToPNG rasterizes the chart at Width*DevicePixelRatio by
// Height*DevicePixelRatio pixels. Images that fail to load are left out and
// reported through Warnings.
func (c *Chart) RenderToPNG(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(RendererCanvas); err != nil {
		return nil, err
	}
	if err := c.loadImages(ctx); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := newRaster(c.scene.Width, c.scene.Height, c.opts.DevicePixelRatio)
	return encodePNG(r.render(c.scene))
}

// Warnings returns non-fatal problems met while rendering.
func (c *Chart) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.warnings...)
}

// Dispose releases the chart. It is safe to call more than once.
func (c *Chart) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	c.scene = nil
}

func (c *Chart) ready(renderer string) error {
	if c.disposed {
		return ErrDisposed
	}
	if c.opts.Renderer != renderer {
		return fmt.Errorf("%w: chart uses %s", ErrRendererMismatch, c.opts.Renderer)
	}
	if c.scene == nil {
		return ErrNoOption
	}
	return nil
}

type loadResult struct {
	img *Image
	pic image.Image
	err error
}

func (c *Chart) loadImages(ctx context.Context) error {
	var pending []*Image
	for _, s := range c.scene.Shapes {
		if im, ok := s.(*Image); ok && im.Img == nil {
			pending = append(pending, im)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if c.opts.ImageLoader == nil {
		for _, im := range pending {
			c.warnings = append(c.warnings, fmt.Sprintf("image %q skipped: no image loader", im.Src))
		}
		return nil
	}

	results := make(chan loadResult, len(pending))
	for _, im := range pending {
		im := im
		var once sync.Once
		send := func(r loadResult) {
			once.Do(func() {
				select {
				case results <- r:
				default:
				}
			})
		}
		go c.opts.ImageLoader.LoadImage(ctx, im.Src,
			func(pic image.Image) { send(loadResult{img: im, pic: pic}) },
			func(err error) { send(loadResult{img: im, err: err}) },
		)
	}
	for range pending {
		select {
		case r := <-results:
			if r.err != nil || r.pic == nil {
				err := r.err
				if err == nil {
					err = errors.New("empty image")
				}
				c.warnings = append(c.warnings, fmt.Sprintf("image %q failed to load: %v", r.img.Src, err))
				continue
			}
			r.img.Img = r.pic
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
