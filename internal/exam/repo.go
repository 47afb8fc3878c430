package exam

import "context"

type Store interface {
	// authoring (teacher-owned)
	CreateExam(ctx context.Context, teacherID int64, d ExamDraft) (Exam, error)
	GetOwnedExam(ctx context.Context, examID, teacherID int64) (ExamDetail, error)
	SetExamActive(ctx context.Context, examID, teacherID int64, active bool) (Exam, error)
	ToggleExamActive(ctx context.Context, examID, teacherID int64) (Exam, error)
	DeleteExam(ctx context.Context, examID, teacherID int64) (Exam, error)
	AddQuestion(ctx context.Context, examID, teacherID int64, d QuestionDraft) (Question, error)
	DeleteQuestion(ctx context.Context, questionID, teacherID int64) (Question, error)

	// attempt lifecycle (student-owned)
	StartAttempt(ctx context.Context, studentID, examID int64) (Sitting, error)
	SubmitAttempt(ctx context.Context, attemptID, studentID int64, responses map[int64]string) (AttemptRow, error)

	// reporting
	ListActiveExams(ctx context.Context) ([]ExamSummary, error)
	AttemptedExamIDs(ctx context.Context, studentID int64) ([]int64, error)
	StudentResults(ctx context.Context, studentID int64) ([]AttemptRow, error)
	StudentProgress(ctx context.Context, studentID int64) (Progress, error)
	TeacherStats(ctx context.Context, teacherID int64) (TeacherStats, error)
	ListTeacherAttempts(ctx context.Context, teacherID int64) ([]AttemptRow, error)
	GetOwnedAttempt(ctx context.Context, attemptID, teacherID int64) (AttemptRow, []AnswerRow, error)
}
