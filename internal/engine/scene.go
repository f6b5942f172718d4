package engine

import (
	"image"
	"image/color"
	"math"
)

// Point is a position in logical (unscaled) pixels.
type Point struct{ X, Y float64 }

// Font describes how a Text is drawn.
type Font struct {
	Family string
	Size   float64
	Bold   bool
	Color  color.RGBA
}

// Anchor is the horizontal alignment of a Text relative to its X.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

// Shape is one drawable element of a Scene.
type Shape interface{ shape() }

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H  float64
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth float64
}

// Path is a polyline, or a polygon when Closed.
type Path struct {
	Points      []Point
	Closed      bool
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth float64
}

// Circle is a filled and/or stroked circle.
type Circle struct {
	CX, CY, R   float64
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth float64
}

// Text is a single line of text vertically centered on Y.
type Text struct {
	X, Y    float64
	Content string
	Font    Font
	Anchor  Anchor
}

// Image is an external picture placed in the box X,Y,W,H. Img is filled in
// by the raster backend through the chart's ImageLoader.
type Image struct {
	X, Y, W, H float64
	Src        string
	Img        image.Image
}

func (Rect) shape()   {}
func (Path) shape()   {}
func (Circle) shape() {}
func (Text) shape()   {}
func (*Image) shape() {}

// Scene is the backend-independent display list produced by SetOption.
type Scene struct {
	Width, Height float64
	Background    color.RGBA
	Shapes        []Shape
}

func (s *Scene) add(shapes ...Shape) { s.Shapes = append(s.Shapes, shapes...) }

// arc returns points along a circle arc from a0 to a1 (radians, screen
// orientation: clockwise with y pointing down).
func arc(cx, cy, r, a0, a1 float64) []Point {
	n := int(math.Ceil(math.Abs(a1-a0) / (math.Pi / 90)))
	if n < 2 {
		n = 2
	}
	pts := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		a := a0 + (a1-a0)*float64(i)/float64(n)
		pts = append(pts, Point{cx + r*math.Cos(a), cy + r*math.Sin(a)})
	}
	return pts
}

// sector builds a pie/donut slice polygon.
func sector(cx, cy, r0, r1, a0, a1 float64) []Point {
	pts := arc(cx, cy, r1, a0, a1)
	if r0 <= 0 {
		return append(pts, Point{cx, cy})
	}
	inner := arc(cx, cy, r0, a1, a0)
	return append(pts, inner...)
}
