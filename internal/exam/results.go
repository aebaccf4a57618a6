package exam

import (
	"context"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-exams/internal/db"
)

// ExamResults returns the student's graded attempt with every exam question,
// answered or not. Students without an attempt get ErrNotAvailable.
func (s *Service) ExamResults(ctx context.Context, studentID, examID int64) (ExamResult, error) {
	e, err := loadExam(ctx, s.gw, examID)
	if errors.Is(err, db.ErrNoRows) {
		return ExamResult{}, ErrNotAvailable
	}
	if err != nil {
		return ExamResult{}, storageErr("exam results", err)
	}
	attempt, ok, err := findAttempt(ctx, s.gw, studentID, examID)
	if err != nil {
		return ExamResult{}, storageErr("exam results", err)
	}
	if !ok {
		return ExamResult{}, ErrNotAvailable
	}

	recs, err := s.gw.Call(ctx, procResultQuestions, examID, studentID)
	if err != nil {
		return ExamResult{}, storageErr("exam results", err)
	}
	choices, err := loadChoices(ctx, s.gw, examID)
	if err != nil {
		return ExamResult{}, storageErr("exam results", err)
	}

	out := ExamResult{
		Exam:        e.Summary(),
		Questions:   make([]QuestionResult, 0, len(recs)),
		TotalMarks:  e.TotalMarks,
		Status:      attempt.Status,
		SubmittedAt: attempt.SubmittedAt,
	}
	for _, r := range recs {
		id := r.Int64("id")
		qr := QuestionResult{
			QuestionID:       id,
			Text:             r.String("text"),
			Type:             QuestionType(r.String("type")),
			Choices:          choices[id],
			SelectedChoiceID: r.NullInt64("selected_choice_id"),
			CorrectChoiceID:  r.Int64("correct_choice_id"),
			Mark:             r.Float64("mark"),
			Weight:           r.Float64("weight"),
		}
		out.TotalScore += qr.Mark
		out.Questions = append(out.Questions, qr)
	}
	return out, nil
}

// InstructorResults lists every attempt of an exam, best score first; ties go
// to the earlier submission, then the lower student id.
func (s *Service) InstructorResults(ctx context.Context, examID int64) ([]StudentResult, error) {
	if _, err := loadExam(ctx, s.gw, examID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, ErrNotAvailable
		}
		return nil, storageErr("instructor results", err)
	}
	recs, err := s.gw.Call(ctx, procResultsByExam, examID)
	if err != nil {
		return nil, storageErr("instructor results", err)
	}
	out := make([]StudentResult, 0, len(recs))
	for _, r := range recs {
		out = append(out, StudentResult{
			StudentID:   r.Int64("student_id"),
			StudentName: r.String("student_name"),
			Score:       r.Float64("score"),
			TotalMarks:  r.Float64("total_marks"),
			SubmittedAt: time.Unix(r.Int64("submission_time"), 0).UTC(),
			Status:      r.String("status"),
		})
	}
	return out, nil
}

// InstructorCourses lists the instructor's courses with enrolled-student counts.
func (s *Service) InstructorCourses(ctx context.Context, instructorID int64) ([]InstructorCourse, error) {
	recs, err := s.gw.Call(ctx, procInstructorCourses, instructorID)
	if err != nil {
		return nil, storageErr("instructor courses", err)
	}
	out := make([]InstructorCourse, 0, len(recs))
	for _, r := range recs {
		out = append(out, InstructorCourse{
			CourseID:     r.Int64("id"),
			CourseName:   r.String("name"),
			StudentCount: int(r.Int64("student_count")),
		})
	}
	return out, nil
}

// InstructorExams lists exams of the instructor's courses, newest date first.
func (s *Service) InstructorExams(ctx context.Context, instructorID int64) ([]InstructorExam, error) {
	recs, err := s.gw.Call(ctx, procInstructorExams, instructorID)
	if err != nil {
		return nil, storageErr("instructor exams", err)
	}
	out := make([]InstructorExam, 0, len(recs))
	for _, r := range recs {
		out = append(out, InstructorExam{
			ExamSummary:   summaryFrom(r),
			StudentsTaken: int(r.Int64("students_taken")),
		})
	}
	return out, nil
}
