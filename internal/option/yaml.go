package option

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DocumentJSON returns the option document at name as JSON. Files ending in
// .yaml or .yml are converted; anything else is passed through.
func DocumentJSON(name string, data []byte) (json.RawMessage, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
	default:
		return json.RawMessage(data), nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse yaml %s: %w", ErrInvalidOption, name, err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: yaml %s is not representable as JSON: %w", ErrInvalidOption, name, err)
	}
	return b, nil
}
