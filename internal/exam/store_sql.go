package exam

import (
	"context"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-exams/internal/db"
)

// Row mapping shared by the service operations. Every helper takes a Querier so
// it runs the same way on the pool or inside a transaction.

func findCourse(ctx context.Context, q db.Querier, name string) (Course, error) {
	rec, err := q.CallOne(ctx, procCourseByName, name)
	if err != nil {
		return Course{}, err
	}
	return Course{
		ID:            rec.Int64("id"),
		Name:          rec.String("name"),
		QuestionCount: int(rec.Int64("question_count")),
	}, nil
}

func loadExam(ctx context.Context, q db.Querier, examID int64) (Exam, error) {
	rec, err := q.CallOne(ctx, procExamByID, examID)
	if err != nil {
		return Exam{}, err
	}
	return Exam{
		ID:         rec.Int64("id"),
		CourseID:   rec.Int64("course_id"),
		CourseName: rec.String("course_name"),
		Title:      rec.String("title"),
		Date:       rec.String("exam_date"),
		StartTime:  rec.String("start_time"),
		EndTime:    rec.String("end_time"),
		TotalMarks: rec.Float64("total_marks"),
		CreatedBy:  rec.NullInt64("created_by"),
		CreatedAt:  time.Unix(rec.Int64("created_at"), 0).UTC(),
	}, nil
}

// loadExamQuestions returns the linked questions in position order with their
// choices and correct choice populated.
func loadExamQuestions(ctx context.Context, q db.Querier, examID int64) ([]Question, error) {
	recs, err := q.Call(ctx, procExamQuestions, examID)
	if err != nil {
		return nil, err
	}
	choices, err := loadChoices(ctx, q, examID)
	if err != nil {
		return nil, err
	}
	out := make([]Question, 0, len(recs))
	for _, r := range recs {
		id := r.Int64("id")
		out = append(out, Question{
			ID:              id,
			CourseID:        r.Int64("course_id"),
			Type:            QuestionType(r.String("type")),
			Text:            r.String("text"),
			Weight:          r.Float64("weight"),
			Choices:         choices[id],
			CorrectChoiceID: r.Int64("correct_choice_id"),
		})
	}
	return out, nil
}

func loadChoices(ctx context.Context, q db.Querier, examID int64) (map[int64][]Choice, error) {
	recs, err := q.Call(ctx, procExamChoices, examID)
	if err != nil {
		return nil, err
	}
	out := map[int64][]Choice{}
	for _, r := range recs {
		qid := r.Int64("question_id")
		out[qid] = append(out[qid], Choice{ID: r.Int64("id"), Text: r.String("text")})
	}
	return out, nil
}

// findAttempt returns ok=false when the student has no attempt for the exam.
func findAttempt(ctx context.Context, q db.Querier, studentID, examID int64) (Attempt, bool, error) {
	rec, err := q.CallOne(ctx, procAttemptGet, studentID, examID)
	if errors.Is(err, db.ErrNoRows) {
		return Attempt{}, false, nil
	}
	if err != nil {
		return Attempt{}, false, err
	}
	return Attempt{
		StudentID:   rec.Int64("student_id"),
		ExamID:      rec.Int64("exam_id"),
		Score:       rec.Float64("score"),
		SubmittedAt: time.Unix(rec.Int64("submission_time"), 0).UTC(),
		Status:      rec.String("status"),
	}, true, nil
}

func summaryFrom(r db.Record) ExamSummary {
	return ExamSummary{
		ID:         r.Int64("id"),
		Title:      r.String("title"),
		CourseName: r.String("course_name"),
		Date:       r.String("exam_date"),
		StartTime:  r.String("start_time"),
		EndTime:    r.String("end_time"),
		TotalMarks: r.Float64("total_marks"),
	}
}
