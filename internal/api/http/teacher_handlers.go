package http

import (
	"net/http"
	"strconv"

	"github.com/mind-engage/examportal/internal/exam"
	"github.com/mind-engage/examportal/internal/flash"
)

func examPath(id int64, action string) string {
	return "/teacher/exam/" + strconv.FormatInt(id, 10) + "/" + action + "/"
}

func TeacherDashboardHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.TeacherStats(r.Context(), principal(r).UserID)
		if err != nil {
			failPage(w, r, err)
			return
		}
		render(w, r, map[string]any{
			"page":           "teacher_dashboard",
			"exams":          st.Exams,
			"total_students": st.TotalStudents,
			"total_attempts": st.TotalAttempts,
		})
	}
}

func CreateExamPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, map[string]any{"page": "create_exam"})
	}
}

// POST /teacher/create-exam/  form: title, description, duration, total_marks
func CreateExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		f := r.PostForm
		d, err := exam.ExamForm{
			Title:       f.Get("title"),
			Description: f.Get("description"),
			Duration:    f.Get("duration"),
			TotalMarks:  f.Get("total_marks"),
		}.Parse()
		if err != nil {
			fail(w, r, err, "/teacher/create-exam/", "")
			return
		}
		e, err := store.CreateExam(r.Context(), principal(r).UserID, d)
		if err != nil {
			fail(w, r, err, "/teacher/create-exam/", "Error creating exam. Please try again.")
			return
		}
		redirect(w, r, examPath(e.ID, "add-question"), flash.Success, "Exam created successfully! Now add questions.")
	}
}

func AddQuestionPageHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.NotFound(w, r)
			return
		}
		d, err := store.GetOwnedExam(r.Context(), id, principal(r).UserID)
		if err != nil {
			failPage(w, r, err)
			return
		}
		render(w, r, map[string]any{
			"page":           "add_question",
			"exam":           d.Exam,
			"questions":      d.Questions,
			"question_types": []exam.QuestionType{exam.TypeMCQ, exam.TypeTrueFalse},
		})
	}
}

// POST /teacher/exam/{id}/add-question/
func AddQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		f := r.PostForm
		back := examPath(id, "add-question")
		d, err := exam.QuestionForm{
			Text:          f.Get("question_text"),
			Type:          f.Get("question_type"),
			OptionA:       f.Get("option_a"),
			OptionB:       f.Get("option_b"),
			OptionC:       f.Get("option_c"),
			OptionD:       f.Get("option_d"),
			CorrectAnswer: f.Get("correct_answer"),
			Marks:         f.Get("marks"),
		}.Parse()
		if err != nil {
			fail(w, r, err, back, "")
			return
		}
		if _, err := store.AddQuestion(r.Context(), id, principal(r).UserID, d); err != nil {
			fail(w, r, err, back, "Error adding question. Please try again.")
			return
		}
		if f.Has("add_another") {
			redirect(w, r, back, flash.Success, "Question added successfully!")
			return
		}
		redirect(w, r, examPath(id, "view"), flash.Success, "Question added successfully!")
	}
}

func ViewExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.NotFound(w, r)
			return
		}
		d, err := store.GetOwnedExam(r.Context(), id, principal(r).UserID)
		if err != nil {
			failPage(w, r, err)
			return
		}
		render(w, r, map[string]any{
			"page":               "view_exam",
			"exam":               d.Exam,
			"questions":          d.Questions,
			"attempts":           d.Attempts,
			"question_marks_sum": d.QuestionMarksSum,
		})
	}
}

// GET /teacher/exam/{id}/delete/ shows what will be removed.
func DeleteExamPageHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.NotFound(w, r)
			return
		}
		d, err := store.GetOwnedExam(r.Context(), id, principal(r).UserID)
		if err != nil {
			failPage(w, r, err)
			return
		}
		render(w, r, map[string]any{
			"page":           "delete_exam",
			"exam":           d.Exam,
			"question_count": len(d.Questions),
			"attempt_count":  len(d.Attempts),
		})
	}
}

func DeleteExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.NotFound(w, r)
			return
		}
		e, err := store.DeleteExam(r.Context(), id, principal(r).UserID)
		if err != nil {
			fail(w, r, err, "/teacher/dashboard/", "Error deleting exam. Please try again.")
			return
		}
		redirect(w, r, "/teacher/dashboard/", flash.Success, `Exam "`+e.Title+`" deleted successfully!`)
	}
}

// POST /teacher/exam/{id}/toggle-active/
func ToggleActiveHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.NotFound(w, r)
			return
		}
		e, err := store.ToggleExamActive(r.Context(), id, principal(r).UserID)
		if err != nil {
			fail(w, r, err, "/teacher/dashboard/", "Error updating exam. Please try again.")
			return
		}
		msg := `Exam "` + e.Title + `" is now hidden from students.`
		if e.IsActive {
			msg = `Exam "` + e.Title + `" is now open to students.`
		}
		redirect(w, r, examPath(id, "view"), flash.Info, msg)
	}
}

// POST /teacher/question/{id}/delete/
func DeleteQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.NotFound(w, r)
			return
		}
		q, err := store.DeleteQuestion(r.Context(), id, principal(r).UserID)
		if err != nil {
			fail(w, r, err, "/teacher/dashboard/", "Error deleting question. Please try again.")
			return
		}
		redirect(w, r, examPath(q.ExamID, "add-question"), flash.Success, "Question deleted successfully!")
	}
}

func ViewAttemptsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := store.ListTeacherAttempts(r.Context(), principal(r).UserID)
		if err != nil {
			failPage(w, r, err)
			return
		}
		render(w, r, map[string]any{"page": "view_attempts", "attempts": rows})
	}
}

// GET /teacher/attempt/{id}/grade/ shows an attempt's answers. Scoring is
// automatic; this page is read-only.
func GradeAttemptHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			http.NotFound(w, r)
			return
		}
		a, answers, err := store.GetOwnedAttempt(r.Context(), id, principal(r).UserID)
		if err != nil {
			failPage(w, r, err)
			return
		}
		render(w, r, map[string]any{"page": "grade_attempt", "attempt": a, "answers": answers})
	}
}
