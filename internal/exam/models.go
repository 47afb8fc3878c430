package exam

type QuestionType string

const (
	TypeMCQ       QuestionType = "mcq"
	TypeTrueFalse QuestionType = "true_false"
)

type Exam struct {
	ID          int64  `json:"id"`
	TeacherID   int64  `json:"teacher_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DurationMin int    `json:"duration"` // minutes
	TotalMarks  int    `json:"total_marks"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type Question struct {
	ID            int64        `json:"id"`
	ExamID        int64        `json:"exam_id"`
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"question_type"`
	OptionA       string       `json:"option_a"`
	OptionB       string       `json:"option_b"`
	OptionC       string       `json:"option_c,omitempty"`
	OptionD       string       `json:"option_d,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"` // stripped for students
	Marks         int          `json:"marks"`
}

type Attempt struct {
	ID          int64  `json:"id"`
	StudentID   int64  `json:"student_id"`
	ExamID      int64  `json:"exam_id"`
	StartedAt   int64  `json:"started_at"`
	CompletedAt *int64 `json:"completed_at"`
	Score       *int   `json:"score"`
	IsGraded    bool   `json:"is_graded"`
}

type Answer struct {
	ID             int64  `json:"id"`
	AttemptID      int64  `json:"attempt_id"`
	QuestionID     int64  `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

// ---- read models ----

type ExamSummary struct {
	Exam
	TeacherName   string `json:"teacher_name,omitempty"`
	QuestionCount int    `json:"question_count"`
	AttemptCount  int    `json:"attempt_count"`
}

// AttemptRow is an attempt joined with its exam and student.
type AttemptRow struct {
	Attempt
	ExamTitle       string  `json:"exam_title"`
	TotalMarks      int     `json:"total_marks"`
	StudentUsername string  `json:"student_username"`
	Percentage      float64 `json:"percentage"`
}

type AnswerRow struct {
	Answer
	Question Question `json:"question"`
}

// Sitting is what a student sees after starting an exam.
type Sitting struct {
	Attempt   Attempt    `json:"attempt"`
	Exam      Exam       `json:"exam"`
	Questions []Question `json:"questions"`
}

type Progress struct {
	Attempts          []AttemptRow `json:"attempts"`
	TotalExams        int          `json:"total_exams"`
	TotalScore        int          `json:"total_score"`
	TotalPossible     int          `json:"total_possible"`
	AveragePercentage float64      `json:"average_percentage"`
}

type TeacherStats struct {
	Exams         []ExamSummary `json:"exams"`
	TotalStudents int           `json:"total_students"`
	TotalAttempts int           `json:"total_attempts"`
}

// ExamDetail is the owner's view of one exam.
type ExamDetail struct {
	Exam             Exam         `json:"exam"`
	Questions        []Question   `json:"questions"`
	Attempts         []AttemptRow `json:"attempts"`
	QuestionMarksSum int          `json:"question_marks_sum"`
}
