package api

import (
	"github.com/yourorg/sts-charts/internal/option"
	"github.com/yourorg/sts-charts/internal/types"
)

// ToolName is the operation name advertised to tool-calling clients.
const ToolName = "generate_echarts"

// Tool describes one callable operation and its JSON input schema.
type Tool struct {
	Name        string         `json:"name"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

const optionExample = `{
  "title": {"text": "ECharts Entry Example", "left": "center", "top": "2%"},
  "tooltip": {},
  "xAxis": {"data": ["shirt", "cardigan", "chiffon", "pants", "heels", "socks"]},
  "yAxis": {},
  "series": [{"name": "Sales", "type": "bar", "data": [5, 20, 36, 10, 10, 20]}]
}`

// GenerateTool is the descriptor for the generate operation.
func GenerateTool() Tool {
	return Tool{
		Name:  ToolName,
		Title: ToolName,
		Description: "Generate visual charts using Apache ECharts with echarts option and configuration dynamically. " +
			"Supports line, bar, scatter and pie charts. PNG output is uploaded to object storage and returned as a URL.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"echartsOption"},
			"properties": map[string]any{
				"echartsOption": map[string]any{
					"anyOf": []any{map[string]any{"type": "string"}, map[string]any{"type": "object"}},
					"description": "ECharts option and configuration used to generate charts. Can be either a JSON string or an object. For example:\n" +
						optionExample + "\n\nATTENTION: A valid ECharts option must be a valid JSON object or string, and cannot be empty.",
				},
				"width": map[string]any{
					"type": "number", "minimum": option.MinSize, "maximum": option.MaxSize, "default": option.DefaultWidth,
					"description": "The width of the ECharts in pixels. Default is 800.",
				},
				"height": map[string]any{
					"type": "number", "minimum": option.MinSize, "maximum": option.MaxSize, "default": option.DefaultHeight,
					"description": "The height of the ECharts in pixels. Default is 600.",
				},
				"theme": map[string]any{
					"type": "string", "enum": []string{types.ThemeDefault, types.ThemeDark}, "default": types.ThemeDefault,
					"description": "ECharts theme, optional. Default is 'default'.",
				},
				"outputType": map[string]any{
					"type": "string", "enum": []string{types.OutputPNG, types.OutputSVG, types.OutputOption}, "default": types.OutputPNG,
					"description": "The output type of the diagram. Can be 'png', 'svg' or 'option'. Default is 'png', 'png' will return the rendered PNG image URL, 'svg' will return the rendered SVG string, and 'option' will return the valid ECharts option.",
				},
			},
		},
	}
}
