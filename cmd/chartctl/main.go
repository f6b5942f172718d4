package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/sts-charts/internal/api"
	"github.com/yourorg/sts-charts/internal/chart"
	"github.com/yourorg/sts-charts/internal/engine"
	"github.com/yourorg/sts-charts/internal/iopkg"
	"github.com/yourorg/sts-charts/internal/logging"
	"github.com/yourorg/sts-charts/internal/normalize"
	"github.com/yourorg/sts-charts/internal/option"
	"github.com/yourorg/sts-charts/internal/render"
	"github.com/yourorg/sts-charts/internal/storage"
	"github.com/yourorg/sts-charts/internal/types"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	logLevel := getenv("LOG_LEVEL", "warn")
	var zl *zap.Logger

	root := &cobra.Command{
		Use:           "chartctl",
		Short:         "Render ECharts options to SVG, PNG or a validated option",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "Log verbosity (debug, info, warn, error)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if os.Getenv(logging.DebugEnv) != "" {
			logLevel = "debug"
		}
		zl = logging.New(logLevel)
	}
	logger := func() *zap.Logger { return zl }

	root.AddCommand(newRenderCommand(logger), newToolsCommand())
	return root
}

func newRenderCommand(logger func() *zap.Logger) *cobra.Command {
	var (
		optionURI  string
		width      int
		height     int
		theme      string
		outputType string
		out        string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a chart option file",
		Long: "Render reads an ECharts option (JSON or YAML) from a path, file:// or s3:// URI.\n" +
			"Without --out, svg and option output is printed and png output is uploaded to\n" +
			"the configured object store and its URL printed. With --out the result is\n" +
			"written to the given path or s3:// URI instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			zl := logger()
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			data, err := iopkg.ReadAll(ctx, optionURI)
			if err != nil {
				return fmt.Errorf("read option: %w", err)
			}
			raw, err := option.DocumentJSON(optionURI, data)
			if err != nil {
				return err
			}
			req := option.Request{EChartsOption: raw, Theme: theme, OutputType: outputType}
			if cmd.Flags().Changed("width") {
				req.Width = &width
			}
			if cmd.Flags().Changed("height") {
				req.Height = &height
			}
			spec, err := option.ParseRequest(req)
			if err != nil {
				return err
			}

			family := getenv("CHART_FONT_FAMILY", normalize.DefaultFontFamily)
			if p := os.Getenv("CHART_FONT_PATH"); p != "" {
				if err := engine.RegisterFontFile(family, p); err != nil {
					zl.Warn("font registration failed", zap.String("path", p), zap.Error(err))
				}
			}
			renderer := render.New(render.NewHTTPImageLoader(30*time.Second, zl), zl)

			if out != "" {
				svc := chart.NewService(chart.Config{FontFamily: family}, renderer, nil, zl)
				res, err := svc.Render(ctx, spec)
				if err != nil {
					return err
				}
				return write(ctx, out, res, spec.OutputType)
			}

			store, err := storage.Open(ctx, storage.FromEnv(), zl)
			if err != nil {
				return err
			}
			defer store.Close()
			svc := chart.NewService(chart.Config{FontFamily: family}, renderer, store, zl)
			text, err := svc.Generate(ctx, spec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.Flags().StringVar(&optionURI, "option", "", "Option document: path, file:// or s3:// URI (.json, .yaml, .yml)")
	cmd.Flags().IntVar(&width, "width", option.DefaultWidth, "Chart width in pixels")
	cmd.Flags().IntVar(&height, "height", option.DefaultHeight, "Chart height in pixels")
	cmd.Flags().StringVar(&theme, "theme", types.ThemeDefault, "Theme (default, dark)")
	cmd.Flags().StringVar(&outputType, "output-type", types.OutputPNG, "Output (png, svg, option)")
	cmd.Flags().StringVar(&out, "out", "", "Write the result to this path or s3:// URI")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort after this long (0 disables)")
	_ = cmd.MarkFlagRequired("option")
	return cmd
}

func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the generate tool descriptor as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(api.GenerateTool())
		},
	}
}

func write(ctx context.Context, uri string, res types.RenderResult, outputType string) error {
	contentType, body := "application/json", []byte(res.Text)
	switch {
	case res.IsBinary():
		contentType, body = res.MimeType, res.Binary
	case outputType == types.OutputSVG:
		contentType = "image/svg+xml"
	}
	w, c, err := iopkg.CreateWriter(ctx, uri, contentType)
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		_ = c.Close()
		return err
	}
	return c.Close()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
