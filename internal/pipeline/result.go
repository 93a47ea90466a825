package pipeline

import (
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/digits"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/evaluator"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/grading"
)

// WarningCode classifies non-fatal conditions found while grading a sheet.
type WarningCode string

const (
	// WarnLayout covers structural mapping anomalies such as dropped
	// outlier bubbles or unexpected column counts.
	WarnLayout WarningCode = "layout"

	// WarnAmbiguousMarks flags questions or header fields with more than
	// one filled bubble.
	WarnAmbiguousMarks WarningCode = "ambiguous_marks"

	// WarnIdentityInvalid means the bubbled roll number violates the
	// one-mark-per-column rule.
	WarnIdentityInvalid WarningCode = "identity_invalid"

	// WarnIdentityMismatch means the handwritten digits disagree with the
	// bubbled roll number.
	WarnIdentityMismatch WarningCode = "identity_mismatch"

	// WarnRecognitionUnavailable means no recognition backend is compiled
	// into this binary.
	WarnRecognitionUnavailable WarningCode = "recognition_unavailable"

	// WarnRecognitionFailed covers segmentation or backend errors during
	// the handwriting cross-check.
	WarnRecognitionFailed WarningCode = "recognition_failed"
)

// Warning is one non-fatal finding attached to a result.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// Result is the graded outcome of one sheet.
type Result struct {
	Source       string             `json:"source"`
	Page         int                `json:"page,omitempty"`
	Identity     grading.Identity   `json:"identity"`
	BookletCode  string             `json:"booklet_code"`
	BookletValid bool               `json:"booklet_valid"`
	Questions    []grading.Question `json:"questions"`
	Summary      grading.Summary    `json:"summary"`
	Warnings     []Warning          `json:"warnings,omitempty"`
	Processing   time.Duration      `json:"processing_ns"`

	// Marks, Strip and Sheet feed overlay rendering and are not part of
	// reports. Sheet is the scan resized to template dimensions.
	Marks []evaluator.Mark `json:"-"`
	Strip *digits.Strip    `json:"-"`
	Sheet image.Image      `json:"-"`
}

func (r *Result) warn(code WarningCode, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

// ToJSON serializes a result as indented JSON.
func ToJSON(res *Result) (string, error) {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToJSONResults serializes multiple results as a JSON array.
func ToJSONResults(results []*Result) (string, error) {
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToPlainText renders a result as a human-readable report.
func ToPlainText(res *Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Sheet: %s\n", res.Source)
	if res.Page > 0 {
		fmt.Fprintf(&sb, "Page: %d\n", res.Page)
	}

	roll := res.Identity.Reconciled
	if !res.Identity.Valid {
		roll = fmt.Sprintf("INVALID (%s)", res.Identity.Bubbled)
	}
	fmt.Fprintf(&sb, "Roll Number: %s\n", roll)
	if res.Identity.Recognized != "" {
		fmt.Fprintf(&sb, "Handwritten Digits: %s\n", res.Identity.Recognized)
	}

	booklet := res.BookletCode
	if booklet == "" {
		booklet = "-"
	} else if !res.BookletValid {
		booklet = fmt.Sprintf("INVALID (%s)", res.BookletCode)
	}
	fmt.Fprintf(&sb, "Booklet Code: %s\n", booklet)

	fmt.Fprintf(&sb, "Score: %d/%d (correct %d, wrong %d, unanswered %d)\n",
		res.Summary.Score, res.Summary.TotalQuestions,
		res.Summary.Correct, res.Summary.Wrong, res.Summary.Unanswered)

	if len(res.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&sb, "  [%s] %s\n", w.Code, w.Message)
		}
	}

	sb.WriteString("\n")
	for _, q := range res.Questions {
		marked := q.Marked
		if marked == "" {
			marked = "-"
		}
		fmt.Fprintf(&sb, "Q%-4d %-8s key=%-5s %s\n", q.Number, marked, q.Correct, q.Status)
	}

	return sb.String()
}
