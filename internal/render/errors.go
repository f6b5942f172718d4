package render

import "errors"

// ErrRender wraps any failure from the chart engine. The engine's error is
// kept in the chain.
var ErrRender = errors.New("chart rendering failed")
