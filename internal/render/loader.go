package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageBytes caps a single fetched or inlined image.
	MaxImageBytes = 10 << 20
	// MaxImagePixels caps the decoded size of a single image.
	MaxImagePixels = 25_000_000
)

// HTTPImageLoader resolves graphic image sources for raster output: data:
// URIs are decoded in place, http(s) URLs are fetched once.
type HTTPImageLoader struct {
	client *retryablehttp.Client
	log    *zap.Logger
}

// NewHTTPImageLoader returns a loader whose fetches give up after timeout.
func NewHTTPImageLoader(timeout time.Duration, log *zap.Logger) *HTTPImageLoader {
	if log == nil {
		log = zap.NewNop()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil
	client.HTTPClient.Timeout = timeout
	return &HTTPImageLoader{client: client, log: log}
}

// LoadImage implements engine.ImageLoader.
func (l *HTTPImageLoader) LoadImage(ctx context.Context, src string, onload func(image.Image), onerror func(error)) {
	img, err := l.load(ctx, src)
	if err != nil {
		l.log.Debug("image load failed", zap.String("src", truncate(src, 64)), zap.Error(err))
		onerror(err)
		return
	}
	onload(img)
}

func (l *HTTPImageLoader) load(ctx context.Context, src string) (image.Image, error) {
	if strings.HasPrefix(src, "data:") {
		data, err := decodeDataURI(src)
		if err != nil {
			return nil, err
		}
		return decodeImage(bytes.NewReader(data))
	}
	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse image url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported image source scheme %q", u.Scheme)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	return decodeImage(resp.Body)
}

// decodeImage checks the declared dimensions before decoding so that a small
// payload cannot claim a huge pixel buffer.
func decodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("image dimensions %dx%d exceed %d pixels", cfg.Width, cfg.Height, MaxImagePixels)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// decodeDataURI handles data:[<mediatype>][;base64],<data>.
func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data uri")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data uri: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data uri: %w", err)
	}
	return []byte(s), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
