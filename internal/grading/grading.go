// Package grading reconciles evaluated bubbles into per-question outcomes
// and a validated identity. All functions are pure: the same marks and key
// always produce the same result.
package grading

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/answerkey"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/evaluator"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/mapper"
)

// Status is the final outcome of one question.
type Status int

const (
	StatusUnanswered Status = iota
	StatusCorrect
	StatusWrong
	StatusInvalidMultiple
)

func (s Status) String() string {
	switch s {
	case StatusCorrect:
		return "CORRECT"
	case StatusWrong:
		return "WRONG"
	case StatusInvalidMultiple:
		return "INVALID_MULTIPLE"
	default:
		return "UNANSWERED"
	}
}

// MarshalJSON serializes the status by name for report files.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Question is the graded outcome for one question, immutable once built.
type Question struct {
	Number   int      `json:"question"`
	Marked   string   `json:"marked"`
	Selected []string `json:"selected,omitempty"`
	Correct  string   `json:"correct"`
	Status   Status   `json:"status"`
	Reason   string   `json:"reason,omitempty"`
}

// Summary aggregates question outcomes into the report totals. Invalid
// multi-marked questions count as wrong, matching exam scoring practice.
type Summary struct {
	TotalQuestions int `json:"total_questions"`
	Correct        int `json:"correct"`
	Wrong          int `json:"wrong"`
	Unanswered     int `json:"unanswered"`
	Score          int `json:"score"`
}

// GradeQuestions derives a graded outcome for every question covered by
// either the marks or the key. The status is a function of the filled-mark
// count: 0 is unanswered, 1 compares against the key, more than one is an
// invalid multiple mark.
func GradeQuestions(marks []evaluator.Mark, key *answerkey.Key) []Question {
	selected := make(map[int][]string)
	maxQ := 0
	for _, m := range marks {
		if m.Region != mapper.RegionAnswer {
			continue
		}
		if m.Question > maxQ {
			maxQ = m.Question
		}
		if m.Filled {
			selected[m.Question] = append(selected[m.Question], m.Value)
		}
	}
	if kq := key.MaxQuestion(); kq > maxQ {
		maxQ = kq
	}

	questions := make([]Question, 0, maxQ)
	for n := 1; n <= maxQ; n++ {
		sel := selected[n]
		sort.Strings(sel)
		q := Question{
			Number:   n,
			Selected: sel,
			Correct:  key.Correct(n),
		}
		switch {
		case len(sel) == 0:
			q.Status = StatusUnanswered
		case len(sel) > 1:
			q.Status = StatusInvalidMultiple
			q.Marked = "MULTIPLE"
			q.Reason = "Multiple options filled"
		case key.Accepts(n, sel[0]):
			q.Status = StatusCorrect
			q.Marked = sel[0]
		default:
			q.Status = StatusWrong
			q.Marked = sel[0]
		}
		questions = append(questions, q)
	}
	return questions
}

// Summarize folds graded questions into report totals.
func Summarize(questions []Question) Summary {
	s := Summary{TotalQuestions: len(questions)}
	for _, q := range questions {
		switch q.Status {
		case StatusCorrect:
			s.Correct++
		case StatusWrong, StatusInvalidMultiple:
			s.Wrong++
		case StatusUnanswered:
			s.Unanswered++
		}
	}
	s.Score = s.Correct
	return s
}

// BookletCode extracts the marked booklet-code option. More than one fill
// invalidates the code.
func BookletCode(marks []evaluator.Mark) (string, bool) {
	var filled []string
	for _, m := range marks {
		if m.Region == mapper.RegionBooklet && m.Filled {
			filled = append(filled, m.Value)
		}
	}
	if len(filled) == 1 {
		return filled[0], true
	}
	return strings.Join(filled, ""), len(filled) == 0
}
