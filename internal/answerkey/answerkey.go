// Package answerkey models the mapping from question number to correct
// option label(s) and its JSON/YAML file formats.
package answerkey

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Key maps question numbers to the set of accepted option labels. Most
// keys carry exactly one label per question; multi-label entries mark
// questions where more than one option is accepted.
type Key struct {
	Answers map[int][]string
}

// fileFormat is the on-disk shape: {"answers": {"1": "A", "2": ["B","C"]}}.
type fileFormat struct {
	Answers map[string]answerValue `json:"answers" yaml:"answers"`
}

// answerValue accepts either a bare string or a list of strings.
type answerValue []string

func (a *answerValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = []string{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*a = list
	return nil
}

func (a *answerValue) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		*a = []string{s}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*a = list
	return nil
}

// Load reads an answer key from a JSON or YAML file.
func Load(path string) (*Key, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading a user-provided key path is expected
	if err != nil {
		return nil, fmt.Errorf("answerkey: reading %s: %w", path, err)
	}

	var ff fileFormat
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &ff)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &ff)
	default:
		return nil, fmt.Errorf("answerkey: unsupported extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("answerkey: parsing %s: %w", path, err)
	}

	key := &Key{Answers: make(map[int][]string, len(ff.Answers))}
	for q, labels := range ff.Answers {
		n, convErr := strconv.Atoi(q)
		if convErr != nil || n < 1 {
			return nil, fmt.Errorf("answerkey: invalid question number %q", q)
		}
		cleaned := make([]string, 0, len(labels))
		for _, l := range labels {
			l = strings.ToUpper(strings.TrimSpace(l))
			if l != "" {
				cleaned = append(cleaned, l)
			}
		}
		if len(cleaned) > 0 {
			key.Answers[n] = cleaned
		}
	}
	return key, nil
}

// Save writes the key as JSON in the on-disk format. Single-label entries
// are serialized as bare strings to keep files hand-editable.
func (k *Key) Save(path string) error {
	out := struct {
		Answers map[string]interface{} `json:"answers"`
	}{Answers: make(map[string]interface{}, len(k.Answers))}
	for q, labels := range k.Answers {
		if len(labels) == 1 {
			out.Answers[strconv.Itoa(q)] = labels[0]
		} else {
			out.Answers[strconv.Itoa(q)] = labels
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("answerkey: encoding: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("answerkey: writing %s: %w", path, err)
	}
	return nil
}

// Accepts reports whether the label is a correct answer for the question.
func (k *Key) Accepts(question int, label string) bool {
	for _, l := range k.Answers[question] {
		if l == label {
			return true
		}
	}
	return false
}

// Correct returns the expected answer string for reporting, joining
// multi-label entries with "/".
func (k *Key) Correct(question int) string {
	return strings.Join(k.Answers[question], "/")
}

// MaxQuestion returns the highest question number present in the key.
func (k *Key) MaxQuestion() int {
	m := 0
	for q := range k.Answers {
		if q > m {
			m = q
		}
	}
	return m
}

// Questions returns the question numbers present in the key in order.
func (k *Key) Questions() []int {
	qs := make([]int, 0, len(k.Answers))
	for q := range k.Answers {
		qs = append(qs, q)
	}
	sort.Ints(qs)
	return qs
}
