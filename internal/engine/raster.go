package engine

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// raster draws a Scene onto an RGBA surface scaled by scale.
type raster struct {
	dst   *image.RGBA
	scale float64
	faces faceCache
	z     *vector.Rasterizer
}

func newRaster(w, h, scale float64) *raster {
	pw, ph := int(math.Ceil(w*scale)), int(math.Ceil(h*scale))
	return &raster{
		dst:   image.NewRGBA(image.Rect(0, 0, pw, ph)),
		scale: scale,
		faces: faceCache{},
		z:     vector.NewRasterizer(0, 0),
	}
}

func (r *raster) render(sc *Scene) *image.RGBA {
	defer r.faces.close()
	if sc.Background.A > 0 {
		draw.Draw(r.dst, r.dst.Bounds(), image.NewUniform(nrgba(sc.Background)), image.Point{}, draw.Src)
	}
	for _, s := range sc.Shapes {
		switch v := s.(type) {
		case Rect:
			pts := []Point{{v.X, v.Y}, {v.X + v.W, v.Y}, {v.X + v.W, v.Y + v.H}, {v.X, v.Y + v.H}}
			r.fill(pts, v.Fill)
			if v.Stroke.A > 0 && v.StrokeWidth > 0 {
				r.stroke(append(pts, pts[0]), v.Stroke, v.StrokeWidth)
			}
		case Path:
			if v.Closed {
				r.fill(v.Points, v.Fill)
			}
			if v.Stroke.A > 0 && v.StrokeWidth > 0 {
				pts := v.Points
				if v.Closed && len(pts) > 0 {
					pts = append(append([]Point{}, pts...), pts[0])
				}
				r.stroke(pts, v.Stroke, v.StrokeWidth)
			}
		case Circle:
			pts := arc(v.CX, v.CY, v.R, 0, 2*math.Pi)
			r.fill(pts, v.Fill)
			if v.Stroke.A > 0 && v.StrokeWidth > 0 {
				r.stroke(pts, v.Stroke, v.StrokeWidth)
			}
		case Text:
			r.text(v)
		case *Image:
			r.image(v)
		}
	}
	return r.dst
}

// fill rasterizes a polygon given in logical coordinates. The rasterizer
// only covers the polygon's bounding box.
func (r *raster) fill(pts []Point, c color.RGBA) {
	if c.A == 0 || len(pts) < 3 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X*r.scale), math.Max(maxX, p.X*r.scale)
		minY, maxY = math.Min(minY, p.Y*r.scale), math.Max(maxY, p.Y*r.scale)
	}
	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY))).
		Intersect(r.dst.Bounds())
	if box.Empty() {
		return
	}
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	dev := make([]Point, len(pts))
	for i, p := range pts {
		dev[i] = Point{p.X*r.scale - ox, p.Y*r.scale - oy}
	}
	dev = clipPolygon(dev, float64(box.Dx()), float64(box.Dy()))
	if len(dev) < 3 {
		return
	}
	r.z.Reset(box.Dx(), box.Dy())
	r.z.DrawOp = draw.Over
	r.z.MoveTo(float32(dev[0].X), float32(dev[0].Y))
	for _, p := range dev[1:] {
		r.z.LineTo(float32(p.X), float32(p.Y))
	}
	r.z.ClosePath()
	r.z.Draw(r.dst, box, image.NewUniform(nrgba(c)), image.Point{})
}

// clipPolygon clips pts to the rectangle [0,w]x[0,h] (Sutherland-Hodgman).
func clipPolygon(pts []Point, w, h float64) []Point {
	edges := []struct {
		inside func(Point) bool
		cut    func(a, b Point) Point
	}{
		{func(p Point) bool { return p.X >= 0 }, func(a, b Point) Point { return lerpX(a, b, 0) }},
		{func(p Point) bool { return p.X <= w }, func(a, b Point) Point { return lerpX(a, b, w) }},
		{func(p Point) bool { return p.Y >= 0 }, func(a, b Point) Point { return lerpY(a, b, 0) }},
		{func(p Point) bool { return p.Y <= h }, func(a, b Point) Point { return lerpY(a, b, h) }},
	}
	out := pts
	for _, e := range edges {
		in := out
		out = nil
		for i, cur := range in {
			prev := in[(i+len(in)-1)%len(in)]
			switch {
			case e.inside(cur) && e.inside(prev):
				out = append(out, cur)
			case e.inside(cur):
				out = append(out, e.cut(prev, cur), cur)
			case e.inside(prev):
				out = append(out, e.cut(prev, cur))
			}
		}
		if len(out) == 0 {
			return nil
		}
	}
	return out
}

func lerpX(a, b Point, x float64) Point {
	t := (x - a.X) / (b.X - a.X)
	return Point{x, a.Y + t*(b.Y-a.Y)}
}

func lerpY(a, b Point, y float64) Point {
	t := (y - a.Y) / (b.Y - a.Y)
	return Point{a.X + t*(b.X-a.X), y}
}

// stroke draws each segment as a quad plus round joins.
func (r *raster) stroke(pts []Point, c color.RGBA, width float64) {
	if len(pts) < 2 {
		return
	}
	half := width / 2
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		r.fill([]Point{{a.X + nx, a.Y + ny}, {b.X + nx, b.Y + ny}, {b.X - nx, b.Y - ny}, {a.X - nx, a.Y - ny}}, c)
		if i > 0 && width*r.scale > 2 {
			r.fill(arc(a.X, a.Y, half, 0, 2*math.Pi), c)
		}
	}
}

func (r *raster) text(t Text) {
	if t.Content == "" || t.Font.Color.A == 0 {
		return
	}
	size := t.Font.Size * r.scale
	face, native := r.faces.face(t.Font.Family, size)
	src := image.NewUniform(nrgba(t.Font.Color))
	if native {
		d := &font.Drawer{Dst: r.dst, Src: src, Face: face}
		adv := d.MeasureString(t.Content)
		m := face.Metrics()
		x := fixed.Int26_6(t.X*r.scale*64) - anchorOffset(adv, t.Anchor)
		y := fixed.Int26_6(t.Y*r.scale*64) + (m.Ascent-m.Descent)/2
		passes := 1
		if t.Font.Bold {
			passes = 2
		}
		for i := 0; i < passes; i++ {
			d.Dot = fixed.Point26_6{X: x + fixed.I(i), Y: y}
			d.DrawString(t.Content)
		}
		return
	}

	// basicfont is a fixed 13px face: draw at native size, then scale.
	const glyphH = 13
	d := &font.Drawer{Src: src, Face: basicfont.Face7x13}
	adv := d.MeasureString(t.Content).Ceil()
	if adv == 0 {
		return
	}
	bold := 0
	if t.Font.Bold {
		bold = 1
	}
	tmp := image.NewRGBA(image.Rect(0, 0, adv+bold, glyphH))
	d.Dst = tmp
	for i := 0; i <= bold; i++ {
		d.Dot = fixed.P(i, basicfont.Face7x13.Ascent)
		d.DrawString(t.Content)
	}
	k := size / glyphH
	w, h := float64(tmp.Bounds().Dx())*k, glyphH*k
	x := t.X * r.scale
	switch t.Anchor {
	case AnchorMiddle:
		x -= w / 2
	case AnchorEnd:
		x -= w
	}
	y := t.Y*r.scale - h/2
	dr := image.Rect(int(x), int(y), int(x+w+0.5), int(y+h+0.5))
	xdraw.BiLinear.Scale(r.dst, dr, tmp, tmp.Bounds(), draw.Over, nil)
}

func anchorOffset(adv fixed.Int26_6, a Anchor) fixed.Int26_6 {
	switch a {
	case AnchorMiddle:
		return adv / 2
	case AnchorEnd:
		return adv
	}
	return 0
}

func (r *raster) image(im *Image) {
	if im.Img == nil {
		return
	}
	dr := image.Rect(
		int(im.X*r.scale), int(im.Y*r.scale),
		int((im.X+im.W)*r.scale), int((im.Y+im.H)*r.scale),
	)
	xdraw.CatmullRom.Scale(r.dst, dr, im.Img, im.Img.Bounds(), draw.Over, nil)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
