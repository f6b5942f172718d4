package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderYAMLToSVGFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bar.yaml")
	src := "xAxis:\n  data: [a, b]\nyAxis: {}\nseries:\n  - type: bar\n    data: [1, 2]\n"
	if err := os.WriteFile(in, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "out", "bar.svg")
	if _, err := run(t, "render", "--option", in, "--output-type", "svg", "--width", "320", "--out", outPath); err != nil {
		t.Fatalf("render: %v", err)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(b), `<svg width="320" height="600"`) {
		t.Fatalf("svg=%.80s", b)
	}
}

func TestRenderOptionToStdout(t *testing.T) {
	in := filepath.Join(t.TempDir(), "pie.json")
	src := `{"series":[{"type":"pie","data":[{"name":"a","value":1}]}]}`
	if err := os.WriteFile(in, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "render", "--option", "file://"+in, "--output-type", "option")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("stdout not json: %v\n%s", err, out)
	}
	if _, ok := got["series"]; !ok {
		t.Fatalf("echo=%v", got)
	}
}

func TestRenderPNGWithoutStorageFails(t *testing.T) {
	for _, k := range []string{"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY"} {
		t.Setenv(k, "")
	}
	in := filepath.Join(t.TempDir(), "c.json")
	if err := os.WriteFile(in, []byte(`{"series":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "render", "--option", in); err == nil || !strings.Contains(err.Error(), "MINIO_ENDPOINT") {
		t.Fatalf("err=%v", err)
	}
}

func TestRenderRequiresOption(t *testing.T) {
	if _, err := run(t, "render"); err == nil {
		t.Fatalf("expected missing --option error")
	}
}

func TestToolsCommand(t *testing.T) {
	out, err := run(t, "tools")
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	if !strings.Contains(out, `"name": "generate_echarts"`) {
		t.Fatalf("out=%s", out)
	}
}
