package exam

import (
	"errors"
	"fmt"
)

// ValidationError is a business-rule violation whose Message is safe to show users.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is matches on Code so detailed copies still satisfy errors.Is against the sentinels.
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *ValidationError) withDetail(format string, args ...any) *ValidationError {
	return &ValidationError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidCourse         = &ValidationError{"invalid_course", "Course name is invalid or does not exist."}
	ErrInvalidDate           = &ValidationError{"invalid_date", "Exam date must be formatted as YYYY-MM-DD."}
	ErrInvalidTime           = &ValidationError{"invalid_time", "Exam times must be formatted as HH:MM or HH:MM:SS."}
	ErrPastDate              = &ValidationError{"past_date", "Exam date cannot be in the past."}
	ErrPastStartTime         = &ValidationError{"past_start_time", "Exam start time cannot be in the past for today's date."}
	ErrInvalidTimeRange      = &ValidationError{"invalid_time_range", "Exam end time must be after its start time."}
	ErrDurationExceeded      = &ValidationError{"duration_exceeded", "Exam duration cannot exceed the allowed maximum."}
	ErrInvalidQuestionCount  = &ValidationError{"invalid_question_count", "Question counts must be non-negative and request at least one question."}
	ErrTooManyQuestions      = &ValidationError{"too_many_questions", "Total number of questions exceeds the allowed maximum."}
	ErrInsufficientQuestions = &ValidationError{"insufficient_questions", "The course does not have enough questions of the requested type."}
	ErrInvalidQuestion       = &ValidationError{"invalid_question", "Question is invalid."}
)

var (
	// ErrNotAvailable covers unknown exams and exams that do not apply to the caller right now.
	ErrNotAvailable = errors.New("exam not found or not available")
	// ErrAlreadySubmitted is the integrity conflict for a second attempt.
	ErrAlreadySubmitted = errors.New("exam already submitted")
	// ErrStorage wraps persistence failures that must not reach users verbatim.
	ErrStorage = errors.New("storage failure")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
