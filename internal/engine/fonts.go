package engine

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

var registry = struct {
	sync.RWMutex
	fonts map[string]*opentype.Font
}{fonts: map[string]*opentype.Font{}}

// RegisterFont makes a TrueType/OpenType font available to raster output
// under family. SVG output references families by name only.
func RegisterFont(family string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %q: %w", family, err)
	}
	registry.Lock()
	registry.fonts[strings.ToLower(strings.TrimSpace(family))] = f
	registry.Unlock()
	return nil
}

// RegisterFontFile reads path and registers it under family.
func RegisterFontFile(family, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %q: %w", path, err)
	}
	return RegisterFont(family, data)
}

// lookupFont resolves a CSS-style family list ("Roboto, sans-serif").
func lookupFont(families string) *opentype.Font {
	registry.RLock()
	defer registry.RUnlock()
	for _, fam := range strings.Split(families, ",") {
		fam = strings.ToLower(strings.Trim(strings.TrimSpace(fam), `"'`))
		if f, ok := registry.fonts[fam]; ok {
			return f
		}
	}
	return nil
}

type faceKey struct {
	font *opentype.Font
	size float64
}

// faceCache holds faces for one raster pass; faces are not safe for
// concurrent use, so they never outlive it.
type faceCache map[faceKey]font.Face

// face returns a face for family at size device pixels. native is false
// when the fixed-size fallback is returned and the caller must scale.
func (fc faceCache) face(family string, size float64) (f font.Face, native bool) {
	otf := lookupFont(family)
	if otf == nil {
		return basicfont.Face7x13, false
	}
	k := faceKey{otf, size}
	if f, ok := fc[k]; ok {
		return f, true
	}
	f, err := opentype.NewFace(otf, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13, false
	}
	fc[k] = f
	return f, true
}

func (fc faceCache) close() {
	for _, f := range fc {
		_ = f.Close()
	}
}
