package grading

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/evaluator"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/mapper"
)

// UnknownDigit fills identity positions that cannot be resolved.
const UnknownDigit = "?"

// Identity is the reconciled roll number. When the bubbled and recognized
// values disagree the bubbled one wins; recognition printed by a scanner is
// advisory, the marks are what the candidate filled.
type Identity struct {
	Bubbled    string `json:"bubbled"`
	Recognized string `json:"recognized,omitempty"`
	Reconciled string `json:"roll_number"`
	Valid      bool   `json:"valid"`
	Mismatch   bool   `json:"mismatch,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// BubbledIdentity reads the roll number from the header marks. Every column
// must carry exactly one filled bubble; violations place UnknownDigit at
// that position and invalidate the whole identity.
func BubbledIdentity(marks []evaluator.Mark) (string, bool, string) {
	filled := make(map[int][]string)
	maxCol := -1
	for _, m := range marks {
		if m.Region != mapper.RegionRoll {
			continue
		}
		if m.Column > maxCol {
			maxCol = m.Column
		}
		if m.Filled {
			filled[m.Column] = append(filled[m.Column], m.Value)
		}
	}
	if maxCol < 0 {
		return "", false, "no roll number bubbles detected"
	}

	var sb strings.Builder
	var reasons []string
	valid := true
	for col := 0; col <= maxCol; col++ {
		vals := filled[col]
		sort.Strings(vals)
		switch len(vals) {
		case 1:
			sb.WriteString(vals[0])
		case 0:
			sb.WriteString(UnknownDigit)
			valid = false
			reasons = append(reasons, fmt.Sprintf("column %d has no bubble filled", col+1))
		default:
			sb.WriteString(UnknownDigit)
			valid = false
			reasons = append(reasons, fmt.Sprintf("column %d has %d bubbles filled", col+1, len(vals)))
		}
	}
	return sb.String(), valid, strings.Join(reasons, "; ")
}

// ReconcileIdentity combines the bubbled roll number with the recognized
// handwritten digits. A recognized value consisting only of UnknownDigit
// placeholders is treated as absent.
func ReconcileIdentity(marks []evaluator.Mark, recognized string) Identity {
	bubbled, valid, reason := BubbledIdentity(marks)
	id := Identity{
		Bubbled:    bubbled,
		Recognized: recognized,
		Reconciled: bubbled,
		Valid:      valid,
		Reason:     reason,
	}
	if hasRecognizedValue(recognized) && recognized != bubbled {
		id.Mismatch = true
		if id.Reason == "" {
			id.Reason = fmt.Sprintf("handwritten digits %q disagree with bubbled roll number %q", recognized, bubbled)
		}
	}
	return id
}

func hasRecognizedValue(s string) bool {
	for _, r := range s {
		if string(r) != UnknownDigit {
			return true
		}
	}
	return false
}
