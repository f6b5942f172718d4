package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func load(l *HTTPImageLoader, src string) (image.Image, error) {
	var (
		got image.Image
		err error
	)
	l.LoadImage(context.Background(), src, func(i image.Image) { got = i }, func(e error) { err = e })
	return got, err
}

func TestLoadDataURI(t *testing.T) {
	l := NewHTTPImageLoader(time.Second, nil)
	img, err := load(l, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngBytes(t)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("bounds=%v", b)
	}
	if _, err := load(l, "data:image/png;base64"); err == nil {
		t.Fatalf("expected error for missing payload")
	}
	if _, err := load(l, "data:image/png;base64,!!!"); err == nil {
		t.Fatalf("expected error for bad base64")
	}
}

// hugePNG returns a valid PNG stream whose header declares w x h pixels.
func hugePNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := pngBytes(t)
	// signature(8) length(4) "IHDR"(4) width(4) height(4) ... crc at 29
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestLoadRejectsOversizedImage(t *testing.T) {
	l := NewHTTPImageLoader(time.Second, nil)
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(hugePNG(t, 60000, 60000))
	img, err := load(l, src)
	if err == nil || img != nil {
		t.Fatalf("img=%v err=%v; want dimension error", img, err)
	}
	if !strings.Contains(err.Error(), "60000x60000") {
		t.Fatalf("err=%v", err)
	}
}

func TestLoadHTTP(t *testing.T) {
	data := pngBytes(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewHTTPImageLoader(time.Second, nil)
	if _, err := load(l, srv.URL+"/ok.png"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := load(l, srv.URL+"/missing.png"); err == nil {
		t.Fatalf("expected error for 404")
	}
	hits.Store(0)
	if _, err := load(l, srv.URL+"/broken"); err == nil {
		t.Fatalf("expected error for 500")
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("hits=%d; want a single attempt", n)
	}
	if _, err := load(l, "ftp://example.com/x.png"); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
}
