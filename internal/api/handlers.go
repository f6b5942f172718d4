package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/sts-charts/internal/option"
	"github.com/yourorg/sts-charts/internal/render"
	"github.com/yourorg/sts-charts/internal/storage"
	"github.com/yourorg/sts-charts/internal/types"
)

// Generator runs the chart pipeline for one parsed request.
type Generator interface {
	Generate(ctx context.Context, spec types.ChartSpec) (string, error)
}

type Handler struct {
	svc     Generator
	timeout time.Duration
	log     *zap.Logger
}

// NewHandler returns chart handlers. timeout bounds each generate call; zero
// leaves only the client's own deadline.
func NewHandler(svc Generator, timeout time.Duration, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, timeout: timeout, log: log}
}

// GenerateChart handles POST /api/v1/charts.
func (h *Handler) GenerateChart(c *gin.Context) {
	var req option.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	spec, err := option.ParseRequest(req)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	out, err := h.svc.Generate(ctx, spec)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewTextResponse(out))
}

// ListTools handles GET /api/v1/tools.
func (h *Handler) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": []Tool{GenerateTool()}})
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Warn("generate failed", zap.Int("status", status), zap.Error(err))
	} else {
		h.log.Debug("generate rejected", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps pipeline errors to HTTP statuses.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case option.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, render.ErrRender):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrStorage):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
