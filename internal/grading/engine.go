package grading

import (
	"math"
	"strings"
)

// Q is a minimal view of a question needed for grading.
type Q struct {
	ID            int64
	CorrectAnswer string // A-D
	Marks         int
}

// Result is the outcome of grading a single answered question.
type Result struct {
	QuestionID int64
	Selected   string // normalized (upper case)
	Correct    bool
	Points     int
}

// Sheet is a graded submission. Unanswered questions have no Result.
type Sheet struct {
	Score   int
	Results []Result
}

// Grade scores responses (question id -> chosen option) against the key.
// Options compare case-insensitively. Anything other than A-D (blank,
// garbage, oversized) counts as unanswered and produces no Result.
func Grade(questions []Q, responses map[int64]string) Sheet {
	var sh Sheet
	for _, q := range questions {
		sel := NormalizeOption(responses[q.ID])
		if !ValidOption(sel) {
			continue
		}
		r := Result{QuestionID: q.ID, Selected: sel}
		if sel == NormalizeOption(q.CorrectAnswer) {
			r.Correct = true
			r.Points = q.Marks
			sh.Score += q.Marks
		}
		sh.Results = append(sh.Results, r)
	}
	return sh
}

func NormalizeOption(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// ValidOption reports whether a normalized option is one of A-D.
func ValidOption(s string) bool {
	switch s {
	case "A", "B", "C", "D":
		return true
	}
	return false
}

// Percentage is score/total as a percentage rounded to 2 places, 0 when
// total is not positive.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(score) / float64(total) * 100)
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
