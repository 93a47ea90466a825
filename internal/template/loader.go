package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a layout template from a JSON or YAML file,
// chosen by extension (.json, .yaml, .yml).
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading a user-provided template path is expected
	if err != nil {
		return nil, fmt.Errorf("template: reading %s: %w", path, err)
	}

	var tpl Template
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("template: parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("template: parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("template: unsupported extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// ParseQuestionRange parses a range of the form "q1..15" and returns the
// first question number. Malformed input falls back to 1.
func ParseQuestionRange(r string) int {
	if r == "" {
		return 1
	}
	s := strings.TrimPrefix(r, "q")
	if i := strings.Index(s, ".."); i >= 0 {
		s = s[:i]
	}
	var start int
	if _, err := fmt.Sscanf(s, "%d", &start); err != nil || start < 1 {
		return 1
	}
	return start
}
