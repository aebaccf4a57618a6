package exam

import (
	"context"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-exams/internal/db"
)

// ListAvailable returns the exams whose window contains now and which the
// student has not attempted, ordered by start time.
func (s *Service) ListAvailable(ctx context.Context, studentID int64, now time.Time) ([]ExamSummary, error) {
	now = now.In(s.loc)
	clock := now.Format(clockLayout)
	recs, err := s.gw.Call(ctx, procExamsAvailable, now.Format(dateLayout), clock, clock, studentID)
	if err != nil {
		return nil, storageErr("list available", err)
	}
	out := make([]ExamSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, summaryFrom(r))
	}
	return out, nil
}

// ListCompleted returns every attempt of the student, newest first, regardless of window.
func (s *Service) ListCompleted(ctx context.Context, studentID int64) ([]CompletedExam, error) {
	recs, err := s.gw.Call(ctx, procExamsCompleted, studentID)
	if err != nil {
		return nil, storageErr("list completed", err)
	}
	out := make([]CompletedExam, 0, len(recs))
	for _, r := range recs {
		out = append(out, CompletedExam{
			ExamSummary: summaryFrom(r),
			Score:       r.Float64("score"),
			Status:      r.String("status"),
			SubmittedAt: time.Unix(r.Int64("submission_time"), 0).UTC(),
		})
	}
	return out, nil
}

// Status materializes the state of one exam for one student at now.
func (s *Service) Status(ctx context.Context, studentID, examID int64, now time.Time) (Status, error) {
	e, err := loadExam(ctx, s.gw, examID)
	if errors.Is(err, db.ErrNoRows) {
		return "", ErrNotAvailable
	}
	if err != nil {
		return "", storageErr("exam status", err)
	}
	_, attempted, err := findAttempt(ctx, s.gw, studentID, examID)
	if err != nil {
		return "", storageErr("exam status", err)
	}
	return StatusAt(e.Window(), now.In(s.loc), attempted), nil
}

// ListSchedule lists the exams of the student's enrolled courses plus any exam
// they attempted, each with its materialized status.
func (s *Service) ListSchedule(ctx context.Context, studentID int64, now time.Time) ([]ScheduledExam, error) {
	now = now.In(s.loc)
	recs, err := s.gw.Call(ctx, procExamsSchedule, studentID, studentID)
	if err != nil {
		return nil, storageErr("list schedule", err)
	}
	out := make([]ScheduledExam, 0, len(recs))
	for _, r := range recs {
		sum := summaryFrom(r)
		attempted := !r.IsNull("attempt_status")
		item := ScheduledExam{ExamSummary: sum, Status: StatusAt(sum.Window(), now, attempted)}
		if attempted {
			score := r.Float64("score")
			item.Score = &score
		}
		out = append(out, item)
	}
	return out, nil
}
