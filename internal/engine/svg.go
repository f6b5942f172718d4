package engine

import (
	"fmt"
	"html"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// writeSVG serializes sc as a standalone SVG document.
func writeSVG(sc *Scene) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%s" height="%s" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" version="1.1" viewBox="0 0 %s %s">`,
		f2(sc.Width), f2(sc.Height), f2(sc.Width), f2(sc.Height))
	b.WriteByte('\n')
	if sc.Background.A > 0 {
		fmt.Fprintf(&b, `<rect width="%s" height="%s" x="0" y="0"%s/>`, f2(sc.Width), f2(sc.Height), paint("fill", sc.Background))
		b.WriteByte('\n')
	}
	for _, s := range sc.Shapes {
		switch v := s.(type) {
		case Rect:
			fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s"%s%s/>`,
				f2(v.X), f2(v.Y), f2(v.W), f2(v.H), paint("fill", v.Fill), strokeAttrs(v.Stroke, v.StrokeWidth))
		case Path:
			fill := paint("fill", v.Fill)
			if !v.Closed {
				fill = ` fill="none"`
			}
			fmt.Fprintf(&b, `<path d="%s"%s%s/>`, pathData(v.Points, v.Closed), fill, strokeAttrs(v.Stroke, v.StrokeWidth))
		case Circle:
			fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s"%s%s/>`,
				f2(v.CX), f2(v.CY), f2(v.R), paint("fill", v.Fill), strokeAttrs(v.Stroke, v.StrokeWidth))
		case Text:
			if v.Content == "" {
				continue
			}
			fmt.Fprintf(&b, `<text x="%s" y="%s" dominant-baseline="central" text-anchor="%s" style="%s"%s>%s</text>`,
				f2(v.X), f2(v.Y), anchorName(v.Anchor), xmlText(fontStyle(v.Font)),
				paint("fill", v.Font.Color), xmlText(v.Content))
		case *Image:
			fmt.Fprintf(&b, `<image href="%s" x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none"/>`,
				xmlText(v.Src), f2(v.X), f2(v.Y), f2(v.W), f2(v.H))
		default:
			continue
		}
		b.WriteByte('\n')
	}
	b.WriteString("</svg>")
	return b.String()
}

// xmlText escapes s for use as XML character data or an attribute value.
// Characters outside the XML 1.0 Char production are dropped; invalid
// UTF-8 becomes U+FFFD.
func xmlText(s string) string {
	return html.EscapeString(strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return -1
		}
		return r
	}, s))
}

func f2(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func paint(attr string, c color.RGBA) string {
	if c.A == 0 {
		return fmt.Sprintf(` %s="none"`, attr)
	}
	s := fmt.Sprintf(` %s="rgb(%d,%d,%d)"`, attr, c.R, c.G, c.B)
	if c.A < 255 {
		s += fmt.Sprintf(` %s-opacity="%s"`, attr, f2(float64(c.A)/255))
	}
	return s
}

func strokeAttrs(c color.RGBA, width float64) string {
	if c.A == 0 || width <= 0 {
		return ""
	}
	return paint("stroke", c) + fmt.Sprintf(` stroke-width="%s" stroke-linejoin="round"`, f2(width))
}

func pathData(pts []Point, closed bool) string {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteByte('M')
		} else {
			b.WriteString(" L")
		}
		b.WriteString(f2(p.X))
		b.WriteByte(' ')
		b.WriteString(f2(p.Y))
	}
	if closed {
		b.WriteString(" Z")
	}
	return b.String()
}

func anchorName(a Anchor) string {
	switch a {
	case AnchorMiddle:
		return "middle"
	case AnchorEnd:
		return "end"
	}
	return "start"
}

func fontStyle(f Font) string {
	family := f.Family
	if family == "" {
		family = "sans-serif"
	}
	weight := "normal"
	if f.Bold {
		weight = "bold"
	}
	return fmt.Sprintf("font-family:%s;font-size:%spx;font-weight:%s", family, f2(f.Size), weight)
}
