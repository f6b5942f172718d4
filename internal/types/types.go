package types

// Output types accepted by the generate operation.
const (
	OutputPNG    = "png"
	OutputSVG    = "svg"
	OutputOption = "option"
)

// Themes understood by the chart engine.
const (
	ThemeDefault = "default"
	ThemeDark    = "dark"
)

// ChartSpec is one generate request after the option has been parsed.
type ChartSpec struct {
	Option     map[string]any `json:"echartsOption"` // chart description, never nil once parsed
	Width      int            `json:"width"`         // pixels, 50..5000
	Height     int            `json:"height"`        // pixels, 50..5000
	Theme      string         `json:"theme"`         // "default"|"dark"
	OutputType string         `json:"outputType"`    // "png"|"svg"|"option"
}

// NormalizedSpec carries the caller's spec untouched next to the
// font-injected option handed to the engine.
type NormalizedSpec struct {
	ChartSpec
	Normalized map[string]any
}

// RenderResult holds exactly one of Text or Binary.
type RenderResult struct {
	Text     string
	Binary   []byte
	MimeType string // set only for Binary results
}

// TextResult builds a text-variant result.
func TextResult(s string) RenderResult { return RenderResult{Text: s} }

// BinaryResult builds a binary-variant result.
func BinaryResult(b []byte, mime string) RenderResult {
	return RenderResult{Binary: b, MimeType: mime}
}

// IsBinary reports whether the binary variant is populated.
func (r RenderResult) IsBinary() bool { return r.Binary != nil }

// StoredArtifact describes a chart image persisted to the object store.
type StoredArtifact struct {
	URL         string `json:"url"`
	Bucket      string `json:"bucket"`
	ObjectKey   string `json:"object_key"`
	ContentType string `json:"content_type"`
}

// Content is a single text item of a tool response.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResponse mirrors the tool-call result envelope: one text content item.
type ToolResponse struct {
	Content []Content `json:"content"`
}

// NewTextResponse wraps s as a single text content item.
func NewTextResponse(s string) ToolResponse {
	return ToolResponse{Content: []Content{{Type: "text", Text: s}}}
}
