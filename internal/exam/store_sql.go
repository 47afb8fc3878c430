package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mind-engage/examportal/internal/db"
	"github.com/mind-engage/examportal/internal/grading"
	syncx "github.com/mind-engage/examportal/internal/sync"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLStore struct {
	db     *sql.DB
	events *syncx.EventRepo
}

func NewSQLStore(dbh *sql.DB, events *syncx.EventRepo) *SQLStore {
	return &SQLStore{db: dbh, events: events}
}

// inTx runs fn in a transaction, committing only when fn returns nil.
func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// exams & questions

const examCols = `e.id, e.teacher_id, e.title, e.description, e.duration_min, e.total_marks, e.is_active, e.created_at, e.updated_at`

func scanExam(sc interface{ Scan(...any) error }, e *Exam) error {
	return sc.Scan(&e.ID, &e.TeacherID, &e.Title, &e.Description, &e.DurationMin, &e.TotalMarks, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
}

func (s *SQLStore) CreateExam(ctx context.Context, teacherID int64, d ExamDraft) (Exam, error) {
	now := time.Now().Unix()
	e := Exam{
		TeacherID:   teacherID,
		Title:       d.Title,
		Description: d.Description,
		DurationMin: d.DurationMin,
		TotalMarks:  d.TotalMarks,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO exams (teacher_id, title, description, duration_min, total_marks, is_active, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		e.TeacherID, e.Title, e.Description, e.DurationMin, e.TotalMarks, e.IsActive, now, now).Scan(&e.ID)
	if err != nil {
		return Exam{}, fmt.Errorf("insert exam: %w", err)
	}
	return e, nil
}

func ownedExam(ctx context.Context, q queryer, examID, teacherID int64) (Exam, error) {
	var e Exam
	err := scanExam(q.QueryRowContext(ctx,
		`SELECT `+examCols+` FROM exams e WHERE e.id=$1 AND e.teacher_id=$2`, examID, teacherID), &e)
	if errors.Is(err, sql.ErrNoRows) {
		return Exam{}, ErrNotFound
	}
	return e, err
}

func (s *SQLStore) GetOwnedExam(ctx context.Context, examID, teacherID int64) (ExamDetail, error) {
	e, err := ownedExam(ctx, s.db, examID, teacherID)
	if err != nil {
		return ExamDetail{}, err
	}
	qs, err := listQuestions(ctx, s.db, examID)
	if err != nil {
		return ExamDetail{}, err
	}
	attempts, err := s.listAttempts(ctx, `WHERE a.exam_id=$1`, `a.started_at DESC, a.id DESC`, examID)
	if err != nil {
		return ExamDetail{}, err
	}
	d := ExamDetail{Exam: e, Questions: qs, Attempts: attempts}
	for _, q := range qs {
		d.QuestionMarksSum += q.Marks
	}
	return d, nil
}

func (s *SQLStore) SetExamActive(ctx context.Context, examID, teacherID int64, active bool) (Exam, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE exams SET is_active=$1, updated_at=$2 WHERE id=$3 AND teacher_id=$4`,
		active, time.Now().Unix(), examID, teacherID)
	if err != nil {
		return Exam{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Exam{}, ErrNotFound
	}
	return ownedExam(ctx, s.db, examID, teacherID)
}

// ToggleExamActive flips is_active in one statement and returns the exam row.
func (s *SQLStore) ToggleExamActive(ctx context.Context, examID, teacherID int64) (Exam, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE exams SET is_active = NOT is_active, updated_at=$1 WHERE id=$2 AND teacher_id=$3`,
		time.Now().Unix(), examID, teacherID)
	if err != nil {
		return Exam{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Exam{}, ErrNotFound
	}
	return ownedExam(ctx, s.db, examID, teacherID)
}

// DeleteExam removes an owned exam; questions, attempts and answers go with
// it through ON DELETE CASCADE.
func (s *SQLStore) DeleteExam(ctx context.Context, examID, teacherID int64) (Exam, error) {
	var e Exam
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if e, err = ownedExam(ctx, tx, examID, teacherID); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM exams WHERE id=$1`, examID); err != nil {
			return err
		}
		return s.events.AppendTx(ctx, tx, syncx.TypeExamDeleted, strconv.FormatInt(examID, 10),
			map[string]any{"exam_id": examID, "teacher_id": teacherID, "title": e.Title})
	})
	if err != nil {
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) AddQuestion(ctx context.Context, examID, teacherID int64, d QuestionDraft) (Question, error) {
	if _, err := ownedExam(ctx, s.db, examID, teacherID); err != nil {
		return Question{}, err
	}
	q := Question{
		ExamID:        examID,
		Text:          d.Text,
		Type:          d.Type,
		OptionA:       d.OptionA,
		OptionB:       d.OptionB,
		OptionC:       d.OptionC,
		OptionD:       d.OptionD,
		CorrectAnswer: d.CorrectAnswer,
		Marks:         d.Marks,
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO questions (exam_id, question_text, question_type, option_a, option_b, option_c, option_d, correct_answer, marks)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		q.ExamID, q.Text, string(q.Type), q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer, q.Marks).Scan(&q.ID)
	if err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

// DeleteQuestion removes a question whose exam belongs to teacherID.
func (s *SQLStore) DeleteQuestion(ctx context.Context, questionID, teacherID int64) (Question, error) {
	var q Question
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := scanQuestion(tx.QueryRowContext(ctx,
			`SELECT `+questionCols+` FROM questions q JOIN exams e ON e.id = q.exam_id
			  WHERE q.id=$1 AND e.teacher_id=$2`, questionID, teacherID), &q)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, questionID)
		return err
	})
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

const questionCols = `q.id, q.exam_id, q.question_text, q.question_type, q.option_a, q.option_b, q.option_c, q.option_d, q.correct_answer, q.marks`

func scanQuestion(sc interface{ Scan(...any) error }, q *Question) error {
	var typ string
	if err := sc.Scan(&q.ID, &q.ExamID, &q.Text, &typ, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer, &q.Marks); err != nil {
		return err
	}
	q.Type = QuestionType(typ)
	return nil
}

func listQuestions(ctx context.Context, qr queryer, examID int64) ([]Question, error) {
	rows, err := qr.QueryContext(ctx, `SELECT `+questionCols+` FROM questions q WHERE q.exam_id=$1 ORDER BY q.id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		var q Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// attempts

// StartAttempt moves (student, exam) from not-started to in-progress. The
// exam must be active and have questions; a second start is rejected.
func (s *SQLStore) StartAttempt(ctx context.Context, studentID, examID int64) (Sitting, error) {
	var e Exam
	err := scanExam(s.db.QueryRowContext(ctx,
		`SELECT `+examCols+` FROM exams e WHERE e.id=$1 AND e.is_active=$2`, examID, true), &e)
	if errors.Is(err, sql.ErrNoRows) {
		return Sitting{}, ErrNotFound
	}
	if err != nil {
		return Sitting{}, err
	}

	var one int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM attempts WHERE student_id=$1 AND exam_id=$2`, studentID, examID).Scan(&one)
	switch {
	case err == nil:
		return Sitting{}, ErrAlreadyAttempted
	case !errors.Is(err, sql.ErrNoRows):
		return Sitting{}, err
	}

	qs, err := listQuestions(ctx, s.db, examID)
	if err != nil {
		return Sitting{}, err
	}
	if len(qs) == 0 {
		return Sitting{}, ErrNoQuestions
	}

	a := Attempt{StudentID: studentID, ExamID: examID, StartedAt: time.Now().Unix()}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO attempts (student_id, exam_id, started_at, is_graded) VALUES ($1,$2,$3,$4) RETURNING id`,
		a.StudentID, a.ExamID, a.StartedAt, false).Scan(&a.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Sitting{}, ErrAlreadyAttempted
		}
		return Sitting{}, fmt.Errorf("insert attempt: %w", err)
	}

	for i := range qs {
		qs[i].CorrectAnswer = ""
	}
	return Sitting{Attempt: a, Exam: e, Questions: qs}, nil
}

// SubmitAttempt grades an in-progress attempt owned by studentID. Answers,
// the score and the audit event are written in one transaction; a graded
// attempt is never re-graded.
func (s *SQLStore) SubmitAttempt(ctx context.Context, attemptID, studentID int64, responses map[int64]string) (AttemptRow, error) {
	var row AttemptRow
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := s.queryAttempts(ctx, tx, `WHERE a.id=$1 AND a.student_id=$2`, `a.id`, attemptID, studentID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return ErrNotFound
		}
		row = rows[0]
		if row.IsGraded {
			return ErrAlreadySubmitted
		}

		qs, err := listQuestions(ctx, tx, row.ExamID)
		if err != nil {
			return err
		}
		keys := make([]grading.Q, len(qs))
		for i, q := range qs {
			keys[i] = grading.Q{ID: q.ID, CorrectAnswer: q.CorrectAnswer, Marks: q.Marks}
		}
		sheet := grading.Grade(keys, responses)

		now := time.Now().Unix()
		res, err := tx.ExecContext(ctx,
			`UPDATE attempts SET score=$1, completed_at=$2, is_graded=$3 WHERE id=$4 AND is_graded=$5`,
			sheet.Score, now, true, attemptID, false)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrAlreadySubmitted
		}

		for _, r := range sheet.Results {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO answers (attempt_id, question_id, selected_answer, is_correct) VALUES ($1,$2,$3,$4)`,
				attemptID, r.QuestionID, r.Selected, r.Correct); err != nil {
				if db.IsUniqueViolation(err) {
					return ErrAlreadySubmitted
				}
				return fmt.Errorf("insert answer: %w", err)
			}
		}

		score := sheet.Score
		row.Score = &score
		row.CompletedAt = &now
		row.IsGraded = true
		row.Percentage = grading.Percentage(score, row.TotalMarks)

		return s.events.AppendTx(ctx, tx, syncx.TypeAttemptSubmitted, strconv.FormatInt(attemptID, 10),
			map[string]any{
				"attempt_id": attemptID,
				"exam_id":    row.ExamID,
				"student_id": studentID,
				"score":      score,
				"answered":   len(sheet.Results),
			})
	})
	if err != nil {
		return AttemptRow{}, err
	}
	return row, nil
}

const attemptSelect = `
	SELECT a.id, a.student_id, a.exam_id, a.started_at, a.completed_at, a.score, a.is_graded,
	       e.title, e.total_marks, u.username
	  FROM attempts a
	  JOIN exams e ON e.id = a.exam_id
	  JOIN users u ON u.id = a.student_id
	`

func (s *SQLStore) queryAttempts(ctx context.Context, qr queryer, where, order string, args ...any) ([]AttemptRow, error) {
	rows, err := qr.QueryContext(ctx, attemptSelect+where+` ORDER BY `+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AttemptRow{}
	for rows.Next() {
		var (
			r         AttemptRow
			completed sql.NullInt64
			score     sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.StudentID, &r.ExamID, &r.StartedAt, &completed, &score, &r.IsGraded,
			&r.ExamTitle, &r.TotalMarks, &r.StudentUsername); err != nil {
			return nil, err
		}
		if completed.Valid {
			v := completed.Int64
			r.CompletedAt = &v
		}
		if score.Valid {
			v := int(score.Int64)
			r.Score = &v
			r.Percentage = grading.Percentage(v, r.TotalMarks)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) listAttempts(ctx context.Context, where, order string, args ...any) ([]AttemptRow, error) {
	return s.queryAttempts(ctx, s.db, where, order, args...)
}

// ---------------------------------------------------------------------------
// reporting

func (s *SQLStore) listExamSummaries(ctx context.Context, where string, args ...any) ([]ExamSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+examCols+`, u.username,
		       (SELECT COUNT(*) FROM questions q WHERE q.exam_id = e.id),
		       (SELECT COUNT(*) FROM attempts a WHERE a.exam_id = e.id)
		  FROM exams e
		  JOIN users u ON u.id = e.teacher_id
		 `+where+`
		 ORDER BY e.created_at DESC, e.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ExamSummary{}
	for rows.Next() {
		var x ExamSummary
		if err := rows.Scan(&x.ID, &x.TeacherID, &x.Title, &x.Description, &x.DurationMin, &x.TotalMarks,
			&x.IsActive, &x.CreatedAt, &x.UpdatedAt, &x.TeacherName, &x.QuestionCount, &x.AttemptCount); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListActiveExams(ctx context.Context) ([]ExamSummary, error) {
	return s.listExamSummaries(ctx, `WHERE e.is_active=$1`, true)
}

func (s *SQLStore) AttemptedExamIDs(ctx context.Context, studentID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT exam_id FROM attempts WHERE student_id=$1 ORDER BY exam_id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLStore) StudentResults(ctx context.Context, studentID int64) ([]AttemptRow, error) {
	return s.listAttempts(ctx, `WHERE a.student_id=$1 AND a.is_graded=$2`, `a.completed_at DESC, a.id DESC`, studentID, true)
}

// StudentProgress aggregates all graded attempts: total score over total
// possible marks as a percentage.
func (s *SQLStore) StudentProgress(ctx context.Context, studentID int64) (Progress, error) {
	rows, err := s.StudentResults(ctx, studentID)
	if err != nil {
		return Progress{}, err
	}
	p := Progress{Attempts: rows, TotalExams: len(rows)}
	for _, r := range rows {
		if r.Score != nil {
			p.TotalScore += *r.Score
		}
		p.TotalPossible += r.TotalMarks
	}
	p.AveragePercentage = grading.Percentage(p.TotalScore, p.TotalPossible)
	return p, nil
}

func (s *SQLStore) TeacherStats(ctx context.Context, teacherID int64) (TeacherStats, error) {
	exams, err := s.listExamSummaries(ctx, `WHERE e.teacher_id=$1`, teacherID)
	if err != nil {
		return TeacherStats{}, err
	}
	st := TeacherStats{Exams: exams}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT a.student_id), COUNT(*)
		  FROM attempts a
		  JOIN exams e ON e.id = a.exam_id
		 WHERE e.teacher_id=$1`, teacherID).Scan(&st.TotalStudents, &st.TotalAttempts)
	if err != nil {
		return TeacherStats{}, err
	}
	return st, nil
}

func (s *SQLStore) ListTeacherAttempts(ctx context.Context, teacherID int64) ([]AttemptRow, error) {
	return s.listAttempts(ctx, `WHERE e.teacher_id=$1`, `a.started_at DESC, a.id DESC`, teacherID)
}

// GetOwnedAttempt returns an attempt on one of teacherID's exams with its
// recorded answers.
func (s *SQLStore) GetOwnedAttempt(ctx context.Context, attemptID, teacherID int64) (AttemptRow, []AnswerRow, error) {
	rows, err := s.listAttempts(ctx, `WHERE a.id=$1 AND e.teacher_id=$2`, `a.id`, attemptID, teacherID)
	if err != nil {
		return AttemptRow{}, nil, err
	}
	if len(rows) == 0 {
		return AttemptRow{}, nil, ErrNotFound
	}

	ar, err := s.db.QueryContext(ctx, `
		SELECT ans.id, ans.attempt_id, ans.question_id, ans.selected_answer, ans.is_correct, `+questionCols+`
		  FROM answers ans
		  JOIN questions q ON q.id = ans.question_id
		 WHERE ans.attempt_id=$1
		 ORDER BY q.id`, attemptID)
	if err != nil {
		return AttemptRow{}, nil, err
	}
	defer ar.Close()
	answers := []AnswerRow{}
	for ar.Next() {
		var (
			x   AnswerRow
			typ string
		)
		if err := ar.Scan(&x.ID, &x.AttemptID, &x.QuestionID, &x.SelectedAnswer, &x.IsCorrect,
			&x.Question.ID, &x.Question.ExamID, &x.Question.Text, &typ, &x.Question.OptionA, &x.Question.OptionB,
			&x.Question.OptionC, &x.Question.OptionD, &x.Question.CorrectAnswer, &x.Question.Marks); err != nil {
			return AttemptRow{}, nil, err
		}
		x.Question.Type = QuestionType(typ)
		answers = append(answers, x)
	}
	if err := ar.Err(); err != nil {
		return AttemptRow{}, nil, err
	}
	return rows[0], answers, nil
}
