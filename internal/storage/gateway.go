package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/sts-charts/internal/metrics"
	"github.com/yourorg/sts-charts/internal/types"
)

// KeyPrefix is the folder chart objects are uploaded under.
const KeyPrefix = "charts/"

// Gateway stores rendered charts and hands back their public URLs.
type Gateway struct {
	cfg    Config
	client BucketClient
	log    *zap.Logger

	// now is the wall clock; tests pin it.
	now  func() time.Time
	last atomic.Int64

	// mu guards scratch, which is created on first use and reset by Close.
	mu      sync.Mutex
	scratch string
}

// NewGateway wraps client. client may be nil when cfg is not configured;
// Store then fails with ErrNotConfigured.
func NewGateway(cfg Config, client BucketClient, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{cfg: cfg, client: client, log: log, now: time.Now}
}

// Open builds the driver for cfg and returns a gateway. An unconfigured
// cfg is not an error: the gateway is returned and reports !Configured.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Gateway, error) {
	if !cfg.Configured() {
		return NewGateway(cfg, nil, log), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewGateway(cfg, client, log), nil
}

// Configured reports whether Store can be attempted.
func (g *Gateway) Configured() bool {
	return g.cfg.Configured() && g.client != nil
}

// Store uploads data as charts/{millis}.{ext} and returns where it lives.
// The bytes are staged to a scratch file first; the file is removed on every
// path out of Store.
func (g *Gateway) Store(ctx context.Context, data []byte, ext, contentType string) (types.StoredArtifact, error) {
	if !g.Configured() {
		return types.StoredArtifact{}, ErrNotConfigured
	}
	ts := g.timestamp()
	key := fmt.Sprintf("%s%d.%s", KeyPrefix, ts, ext)

	path, release, err := g.stage(data, ts, ext)
	if err != nil {
		return types.StoredArtifact{}, fmt.Errorf("%w: stage upload: %w", ErrStorage, err)
	}
	defer release()

	if err := g.ensureBucket(ctx); err != nil {
		return types.StoredArtifact{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	n, err := g.client.FPutObject(ctx, g.cfg.Bucket, key, path, contentType)
	if err != nil {
		return types.StoredArtifact{}, fmt.Errorf("%w: upload %s: %w", ErrStorage, key, err)
	}
	metrics.ArtifactsStored.Inc()
	metrics.ArtifactBytes.Add(float64(n))

	art := types.StoredArtifact{
		URL:         g.cfg.PublicURL(key),
		Bucket:      g.cfg.Bucket,
		ObjectKey:   key,
		ContentType: contentType,
	}
	g.log.Debug("chart stored", zap.String("bucket", art.Bucket), zap.String("key", key), zap.Int64("bytes", n))
	return art, nil
}

// timestamp returns the wall clock in milliseconds, bumped so that no two
// calls on this gateway return the same value.
func (g *Gateway) timestamp() int64 {
	now := g.now().UnixMilli()
	for {
		last := g.last.Load()
		ts := now
		if ts <= last {
			ts = last + 1
		}
		if g.last.CompareAndSwap(last, ts) {
			return ts
		}
	}
}

func (g *Gateway) scratchDir() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.scratch != "" {
		return g.scratch, nil
	}
	base := g.cfg.ScratchDir
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(base, "sts-charts-")
	if err != nil {
		return "", err
	}
	g.scratch = dir
	return dir, nil
}

// stage writes data to a uniquely named file and returns a release func
// that removes it.
func (g *Gateway) stage(data []byte, ts int64, ext string) (string, func(), error) {
	dir, err := g.scratchDir()
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("temp_%d_%s.%s", ts, uuid.NewString(), ext))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	release := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			g.log.Debug("remove staged file", zap.String("path", path), zap.Error(err))
		}
	}
	return path, release, nil
}

// ensureBucket creates the bucket with a public-read policy when missing.
// Losing a creation race to another uploader counts as success.
func (g *Gateway) ensureBucket(ctx context.Context) error {
	exists, err := g.client.BucketExists(ctx, g.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", g.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := g.client.MakeBucket(ctx, g.cfg.Bucket, g.cfg.Region); err != nil && !errors.Is(err, ErrBucketExists) {
		return fmt.Errorf("create bucket %s: %w", g.cfg.Bucket, err)
	}
	if err := g.client.SetBucketPolicy(ctx, g.cfg.Bucket, PublicReadPolicy(g.cfg.Bucket)); err != nil {
		return fmt.Errorf("set policy on %s: %w", g.cfg.Bucket, err)
	}
	g.log.Debug("bucket provisioned", zap.String("bucket", g.cfg.Bucket))
	return nil
}

// Close removes the scratch directory. It is safe to call when nothing was
// ever staged; a later Store creates a fresh directory.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.scratch == "" {
		return nil
	}
	clean := filepath.Clean(g.scratch)
	if clean == "/" || clean == "." {
		return errors.New("invalid scratch dir for cleanup")
	}
	g.scratch = ""
	return os.RemoveAll(clean)
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PublicReadPolicy allows anonymous s3:GetObject on every object in bucket.
func PublicReadPolicy(bucket string) string {
	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{fmt.Sprintf("arn:aws:s3:::%s/*", bucket)},
		}},
	}
	b, _ := json.Marshal(doc)
	return string(b)
}
