package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/sts-charts/internal/api"
	"github.com/yourorg/sts-charts/internal/chart"
	"github.com/yourorg/sts-charts/internal/engine"
	"github.com/yourorg/sts-charts/internal/logging"
	stsmetrics "github.com/yourorg/sts-charts/internal/metrics"
	"github.com/yourorg/sts-charts/internal/normalize"
	"github.com/yourorg/sts-charts/internal/render"
	"github.com/yourorg/sts-charts/internal/storage"
)

func main() {
	zl := logging.FromEnv()
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	family := getenv("CHART_FONT_FAMILY", normalize.DefaultFontFamily)
	if p := os.Getenv("CHART_FONT_PATH"); p != "" {
		if err := engine.RegisterFontFile(family, p); err != nil {
			// Text still renders with the built-in face.
			zl.Warn("font registration failed", zap.String("path", p), zap.Error(err))
		}
	}

	store, err := storage.Open(ctx, storage.FromEnv(), zl.Named("storage"))
	if err != nil {
		zl.Fatal("storage config", zap.Error(err))
	}
	defer store.Close()
	if !store.Configured() {
		zl.Warn("object storage not configured; png output disabled")
	}

	stsmetrics.Init()
	go func() {
		addr := stsmetrics.AddrFromEnv()
		if err := stsmetrics.Serve(addr); err != nil {
			zl.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	timeout := getenvDuration("CHART_TIMEOUT", 30*time.Second)
	loader := render.NewHTTPImageLoader(timeout, zl.Named("images"))
	svc := chart.NewService(chart.Config{FontFamily: family}, render.New(loader, zl.Named("render")), store, zl.Named("chart"))
	r := api.NewRouter(api.NewHandler(svc, timeout, zl.Named("api")))

	port := getenv("PORT", "8080")
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		zl.Fatal("listen", zap.String("port", port), zap.Error(err))
	}
	srv := &http.Server{Handler: r}

	zl.Info("server starting", zap.String("port", port), zap.Bool("storage", store.Configured()), zap.String("font", family))
	// In-flight requests get their full timeout to finish before the
	// deferred store.Close removes the scratch dir.
	if err := serve(ctx, srv, ln, timeout+5*time.Second); err != nil {
		zl.Error("server failed", zap.Error(err))
	}
}

// serve runs srv on ln until ctx is done, then shuts it down and waits for
// in-flight requests, at most grace.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
