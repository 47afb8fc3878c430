package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/examportal/internal/exam"
	"github.com/mind-engage/examportal/internal/flash"
)

func StudentDashboardHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principal(r)
		exams, err := store.ListActiveExams(r.Context())
		if err != nil {
			failPage(w, r, err)
			return
		}
		attempted, err := store.AttemptedExamIDs(r.Context(), p.UserID)
		if err != nil {
			failPage(w, r, err)
			return
		}
		render(w, r, map[string]any{
			"page":               "student_dashboard",
			"exams":              exams,
			"attempted_exam_ids": attempted,
		})
	}
}

func StudentResultsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := store.StudentResults(r.Context(), principal(r).UserID)
		if err != nil {
			failPage(w, r, err)
			return
		}
		render(w, r, map[string]any{"page": "student_results", "attempts": rows})
	}
}

func StudentProfileHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principal(r)
		prog, err := store.StudentProgress(r.Context(), p.UserID)
		if err != nil {
			failPage(w, r, err)
			return
		}
		data := map[string]any{
			"page":               "student_profile",
			"attempts":           prog.Attempts,
			"total_exams":        prog.TotalExams,
			"total_score":        prog.TotalScore,
			"total_possible":     prog.TotalPossible,
			"average_percentage": prog.AveragePercentage,
		}
		if p.PictureKey != "" {
			data["picture_url"] = "/media/" + p.PictureKey
		}
		render(w, r, data)
	}
}

// GET /exam/{id}/take/ starts the student's single attempt.
func TakeExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, ok := idParam(r, "id")
		if !ok {
			http.NotFound(w, r)
			return
		}
		s, err := store.StartAttempt(r.Context(), principal(r).UserID, examID)
		if err != nil {
			fail(w, r, err, "/student/dashboard/", "Could not start the exam. Please try again.")
			return
		}
		render(w, r, map[string]any{
			"page":      "take_exam",
			"exam":      s.Exam,
			"attempt":   s.Attempt,
			"questions": s.Questions,
		})
	}
}

// responses collects question_<id> form fields.
func responses(r *http.Request) map[int64]string {
	out := map[int64]string{}
	for k, v := range r.PostForm {
		id, ok := strings.CutPrefix(k, "question_")
		if !ok || len(v) == 0 {
			continue
		}
		qid, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		out[qid] = v[0]
	}
	return out
}

// POST /exam/{attempt_id}/submit/
func SubmitExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID, ok := idParam(r, "attemptID")
		if !ok {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		row, err := store.SubmitAttempt(r.Context(), attemptID, principal(r).UserID, responses(r))
		if err != nil {
			fail(w, r, err, "/student/dashboard/", "Error submitting exam. Please try again.")
			return
		}
		score := 0
		if row.Score != nil {
			score = *row.Score
		}
		redirect(w, r, "/student/results/", flash.Success,
			"Exam submitted successfully! Your score: "+strconv.Itoa(score)+"/"+strconv.Itoa(row.TotalMarks))
	}
}
