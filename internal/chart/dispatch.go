package chart

import (
	"context"
	"fmt"

	"github.com/yourorg/sts-charts/internal/storage"
	"github.com/yourorg/sts-charts/internal/types"
)

// Storer persists binary chart output.
type Storer interface {
	Configured() bool
	Store(ctx context.Context, data []byte, ext, contentType string) (types.StoredArtifact, error)
}

// Dispatch turns a render result into the text returned to the caller:
// svg and option results pass through, png results are stored and replaced
// by their URL. Binary output is never returned inline.
func Dispatch(ctx context.Context, res types.RenderResult, outputType string, st Storer) (string, error) {
	switch outputType {
	case types.OutputSVG, types.OutputOption:
		if res.IsBinary() {
			return "", fmt.Errorf("%s output produced binary data", outputType)
		}
		return res.Text, nil
	case types.OutputPNG:
		if !res.IsBinary() {
			return "", fmt.Errorf("png output produced no image data")
		}
		if st == nil || !st.Configured() {
			return "", storage.ErrNotConfigured
		}
		art, err := st.Store(ctx, res.Binary, "png", res.MimeType)
		if err != nil {
			return "", err
		}
		return art.URL, nil
	}
	return "", fmt.Errorf("unsupported output type %q", outputType)
}
