package exam

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ExamForm holds the raw create-exam fields.
type ExamForm struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"required"`
	Duration    string `validate:"required"`
	TotalMarks  string `validate:"required"`
}

type ExamDraft struct {
	Title       string
	Description string
	DurationMin int
	TotalMarks  int
}

func (f ExamForm) Parse() (ExamDraft, error) {
	f.Title = strings.TrimSpace(f.Title)
	if err := validate.Struct(f); err != nil {
		if hasTag(err, "max") {
			return ExamDraft{}, invalid("Error creating exam: title is too long")
		}
		return ExamDraft{}, invalid("All fields are required!")
	}
	d := ExamDraft{Title: f.Title, Description: f.Description}
	var err error
	if d.DurationMin, err = strconv.Atoi(strings.TrimSpace(f.Duration)); err != nil || d.DurationMin <= 0 {
		return ExamDraft{}, invalid("Error creating exam: duration must be a positive whole number of minutes")
	}
	if d.TotalMarks, err = strconv.Atoi(strings.TrimSpace(f.TotalMarks)); err != nil || d.TotalMarks < 0 {
		return ExamDraft{}, invalid("Error creating exam: total marks must be a whole number")
	}
	return d, nil
}

// QuestionForm holds the raw add-question fields. Options C and D are optional.
type QuestionForm struct {
	Text          string `validate:"required"`
	Type          string
	OptionA       string `validate:"required,max=200"`
	OptionB       string `validate:"required,max=200"`
	OptionC       string `validate:"max=200"`
	OptionD       string `validate:"max=200"`
	CorrectAnswer string `validate:"required"`
	Marks         string `validate:"required"`
}

type QuestionDraft struct {
	Text          string
	Type          QuestionType
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectAnswer string
	Marks         int
}

func (f QuestionForm) Parse() (QuestionDraft, error) {
	if err := validate.Struct(f); err != nil {
		if hasTag(err, "max") {
			return QuestionDraft{}, invalid("Error adding question: options must be at most 200 characters")
		}
		return QuestionDraft{}, invalid("Please fill all required fields!")
	}
	d := QuestionDraft{
		Text:          f.Text,
		Type:          QuestionType(f.Type),
		OptionA:       f.OptionA,
		OptionB:       f.OptionB,
		OptionC:       f.OptionC,
		OptionD:       f.OptionD,
		CorrectAnswer: strings.ToUpper(strings.TrimSpace(f.CorrectAnswer)),
	}
	switch d.Type {
	case "":
		d.Type = TypeMCQ
	case TypeMCQ, TypeTrueFalse:
	default:
		return QuestionDraft{}, invalid("Please select a valid question type!")
	}
	switch d.CorrectAnswer {
	case "A", "B", "C", "D":
	default:
		return QuestionDraft{}, invalid("Correct answer must be A, B, C, or D!")
	}
	var err error
	if d.Marks, err = strconv.Atoi(strings.TrimSpace(f.Marks)); err != nil || d.Marks < 0 {
		return QuestionDraft{}, invalid("Error adding question: marks must be a whole number")
	}
	return d, nil
}

func hasTag(err error, tag string) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	for _, fe := range ve {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}
