package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/sts-charts/internal/chart"
	"github.com/yourorg/sts-charts/internal/option"
	"github.com/yourorg/sts-charts/internal/render"
	"github.com/yourorg/sts-charts/internal/storage"
	"github.com/yourorg/sts-charts/internal/types"
)

func init() { gin.SetMode(gin.TestMode) }

type stubGenerator struct {
	out  string
	err  error
	spec types.ChartSpec
}

func (s *stubGenerator) Generate(_ context.Context, spec types.ChartSpec) (string, error) {
	s.spec = spec
	return s.out, s.err
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("response not json: %v: %s", err, w.Body.String())
	}
	return w, m
}

func TestGenerateChartSVG(t *testing.T) {
	svc := chart.NewService(chart.Config{}, render.New(nil, nil), nil, nil)
	r := NewRouter(NewHandler(svc, time.Second, nil))
	body := `{"echartsOption":"{\"xAxis\":{\"data\":[\"a\"]},\"yAxis\":{},\"series\":[{\"type\":\"bar\",\"data\":[3]}]}","outputType":"svg","width":300,"height":200}`
	w, m := do(t, r, http.MethodPost, "/api/v1/charts", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	content, _ := m["content"].([]any)
	if len(content) != 1 {
		t.Fatalf("content=%v", m["content"])
	}
	item := content[0].(map[string]any)
	if item["type"] != "text" || !strings.HasPrefix(item["text"].(string), `<svg width="300" height="200"`) {
		t.Fatalf("item=%v", item)
	}
}

func TestGenerateChartDefaults(t *testing.T) {
	stub := &stubGenerator{out: "http://localhost:9000/sts-echarts/charts/1.png"}
	r := NewRouter(NewHandler(stub, 0, nil))
	w, _ := do(t, r, http.MethodPost, "/api/v1/charts", `{"echartsOption":{"series":[]}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if stub.spec.Width != 800 || stub.spec.Height != 600 || stub.spec.Theme != "default" || stub.spec.OutputType != "png" {
		t.Fatalf("spec=%+v", stub.spec)
	}
}

func TestGenerateChartErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"bad json body", `{`, nil, http.StatusBadRequest, "invalid request body"},
		{"missing option", `{}`, nil, http.StatusBadRequest, "invalid ECharts option"},
		{"bad option string", `{"echartsOption":"{nope"}`, nil, http.StatusBadRequest, "invalid JSON string for echartsOption"},
		{"width too small", `{"echartsOption":{},"width":10}`, nil, http.StatusBadRequest, "at least 50 pixels"},
		{"invalid option", `{"echartsOption":{}}`, option.ErrInvalidOption, http.StatusBadRequest, "invalid ECharts option"},
		{"render", `{"echartsOption":{}}`, fmt.Errorf("%w: %w", render.ErrRender, errors.New("unsupported series type")), http.StatusUnprocessableEntity, "chart rendering failed: unsupported series type"},
		{"unconfigured", `{"echartsOption":{}}`, storage.ErrNotConfigured, http.StatusServiceUnavailable, "MINIO_ENDPOINT"},
		{"storage", `{"echartsOption":{}}`, fmt.Errorf("%w: upload: timeout", storage.ErrStorage), http.StatusBadGateway, "upload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRouter(NewHandler(&stubGenerator{err: tc.err}, 0, nil))
			w, m := do(t, r, http.MethodPost, "/api/v1/charts", tc.body)
			if w.Code != tc.status {
				t.Fatalf("status=%d; want %d (%v)", w.Code, tc.status, m)
			}
			if msg, _ := m["error"].(string); !strings.Contains(msg, tc.msg) {
				t.Fatalf("error=%q; want it to contain %q", msg, tc.msg)
			}
		})
	}
}

func TestListToolsAndHealth(t *testing.T) {
	r := NewRouter(NewHandler(&stubGenerator{}, 0, nil))
	w, m := do(t, r, http.MethodGet, "/api/v1/tools", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	tools, _ := m["tools"].([]any)
	if len(tools) != 1 || tools[0].(map[string]any)["name"] != ToolName {
		t.Fatalf("tools=%v", m["tools"])
	}
	schema := tools[0].(map[string]any)["inputSchema"].(map[string]any)
	props := schema["properties"].(map[string]any)
	for _, k := range []string{"echartsOption", "width", "height", "theme", "outputType"} {
		if _, ok := props[k]; !ok {
			t.Fatalf("schema missing %s", k)
		}
	}

	w, m = do(t, r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || m["status"] != "ok" {
		t.Fatalf("health=%d %v", w.Code, m)
	}
}

func TestStatusForDeadline(t *testing.T) {
	err := fmt.Errorf("%w: %w", render.ErrRender, context.DeadlineExceeded)
	if got := StatusFor(err); got != http.StatusGatewayTimeout {
		t.Fatalf("status=%d", got)
	}
	if got := StatusFor(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("status=%d", got)
	}
}
