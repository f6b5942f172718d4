package option

import "errors"

var (
	// ErrInvalidOption indicates the chart option is not a usable object or
	// fails the structural checks in Validate.
	ErrInvalidOption = errors.New("invalid ECharts option, a valid ECharts option must be a valid JSON object, and cannot be empty")
	// ErrInvalidJSON indicates echartsOption was a string that did not parse.
	ErrInvalidJSON = errors.New("invalid JSON string for echartsOption")
	// ErrInvalidRequest indicates a request parameter is missing or out of range.
	ErrInvalidRequest = errors.New("invalid request")
)

// IsValidation reports whether err belongs to the validation error class.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidOption) || errors.Is(err, ErrInvalidJSON) || errors.Is(err, ErrInvalidRequest)
}
