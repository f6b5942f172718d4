// Package chart runs the generate pipeline: validate, normalize, render,
// then dispatch the result.
package chart

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/sts-charts/internal/metrics"
	"github.com/yourorg/sts-charts/internal/normalize"
	"github.com/yourorg/sts-charts/internal/option"
	"github.com/yourorg/sts-charts/internal/storage"
	"github.com/yourorg/sts-charts/internal/types"
)

// Renderer draws a normalized spec.
type Renderer interface {
	Render(ctx context.Context, spec types.NormalizedSpec) (types.RenderResult, error)
}

// Config holds the pipeline's fixed settings.
type Config struct {
	FontFamily string // injected by the normalizer; empty means normalize.DefaultFontFamily
}

// Service is safe for concurrent use; every call works on its own data.
type Service struct {
	cfg      Config
	renderer Renderer
	store    Storer
	log      *zap.Logger
}

// NewService wires the pipeline. store may be nil, which makes png output
// fail with storage.ErrNotConfigured.
func NewService(cfg Config, r Renderer, store Storer, log *zap.Logger) *Service {
	if cfg.FontFamily == "" {
		cfg.FontFamily = normalize.DefaultFontFamily
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, renderer: r, store: store, log: log}
}

// Generate produces the response text for spec: SVG markup, the option
// echo, or the public URL of the stored PNG.
func (s *Service) Generate(ctx context.Context, spec types.ChartSpec) (string, error) {
	if err := s.validate(spec); err != nil {
		return "", err
	}
	if spec.OutputType == types.OutputPNG && (s.store == nil || !s.store.Configured()) {
		metrics.ChartFailures.WithLabelValues(metrics.StageStore).Inc()
		return "", storage.ErrNotConfigured
	}
	res, err := s.draw(ctx, spec)
	if err != nil {
		return "", err
	}
	out, err := Dispatch(ctx, res, spec.OutputType, s.store)
	if err != nil {
		if errors.Is(err, storage.ErrStorage) || errors.Is(err, storage.ErrNotConfigured) {
			metrics.ChartFailures.WithLabelValues(metrics.StageStore).Inc()
		}
		s.log.Debug("dispatch failed", zap.Error(err))
		return "", err
	}
	return out, nil
}

// Render validates and normalizes spec and returns the raw engine output
// without dispatching it.
func (s *Service) Render(ctx context.Context, spec types.ChartSpec) (types.RenderResult, error) {
	if err := s.validate(spec); err != nil {
		return types.RenderResult{}, err
	}
	return s.draw(ctx, spec)
}

func (s *Service) validate(spec types.ChartSpec) error {
	s.log.Debug("generate",
		zap.Int("width", spec.Width),
		zap.Int("height", spec.Height),
		zap.String("theme", spec.Theme),
		zap.String("outputType", spec.OutputType),
		zap.Strings("optionKeys", keys(spec.Option)),
	)
	if !option.Validate(spec.Option, s.log) {
		metrics.ChartFailures.WithLabelValues(metrics.StageValidate).Inc()
		return option.ErrInvalidOption
	}
	return nil
}

func (s *Service) draw(ctx context.Context, spec types.ChartSpec) (types.RenderResult, error) {
	normalized := normalize.Chart(spec, s.cfg.FontFamily)
	start := time.Now()
	res, err := s.renderer.Render(ctx, normalized)
	metrics.RenderSeconds.WithLabelValues(spec.OutputType).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ChartFailures.WithLabelValues(metrics.StageRender).Inc()
		s.log.Debug("render failed", zap.Error(err))
		return types.RenderResult{}, err
	}
	metrics.ChartsRendered.WithLabelValues(spec.OutputType).Inc()
	return res, nil
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
