package exam

import (
	"context"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-exams/internal/db"
	"github.com/mind-engage/mindengage-exams/internal/grading"
	"github.com/mind-engage/mindengage-exams/internal/metrics"
)

// LoadForAttempt returns the exam sheet for a student whose window is open and
// who has not submitted yet. Correct choices are never included.
func (s *Service) LoadForAttempt(ctx context.Context, examID, studentID int64) (AttemptSheet, error) {
	now := s.Now()
	e, err := s.openExam(ctx, examID, studentID, now)
	if errors.Is(err, ErrAlreadySubmitted) {
		return AttemptSheet{}, ErrNotAvailable
	}
	if err != nil {
		return AttemptSheet{}, err
	}
	qs, err := loadExamQuestions(ctx, s.gw, examID)
	if err != nil {
		return AttemptSheet{}, storageErr("load exam", err)
	}
	for i := range qs {
		qs[i].CorrectChoiceID = 0
	}
	closes, err := e.Window().Closes(s.loc)
	if err != nil {
		return AttemptSheet{}, storageErr("load exam", err)
	}
	return AttemptSheet{Exam: e.Summary(), Questions: qs, ClosesAt: closes}, nil
}

// openExam loads the exam and checks that studentID may still submit at now.
func (s *Service) openExam(ctx context.Context, examID, studentID int64, now time.Time) (Exam, error) {
	e, err := loadExam(ctx, s.gw, examID)
	if errors.Is(err, db.ErrNoRows) {
		return Exam{}, ErrNotAvailable
	}
	if err != nil {
		return Exam{}, storageErr("load exam", err)
	}
	if !e.Window().Contains(now) {
		return Exam{}, ErrNotAvailable
	}
	_, attempted, err := findAttempt(ctx, s.gw, studentID, examID)
	if err != nil {
		return Exam{}, storageErr("load attempt", err)
	}
	if attempted {
		return Exam{}, ErrAlreadySubmitted
	}
	return e, nil
}

// Submit records the student's answers and grades them. answers maps question
// id to the selected choice id; questions not on the exam and choices that do
// not belong to their question are ignored.
//
// The raw submission commits before grading starts. If grading fails the
// submission stands with score 0 and the result reports Graded=false.
func (s *Service) Submit(ctx context.Context, studentID, examID int64, answers map[int64]int64) (GradingResult, error) {
	res, err := s.submit(ctx, studentID, examID, answers)
	label := outcome(err)
	if err == nil && !res.Graded {
		label = "ungraded"
	}
	metrics.Submissions.WithLabelValues(label).Inc()
	return res, err
}

func (s *Service) submit(ctx context.Context, studentID, examID int64, answers map[int64]int64) (GradingResult, error) {
	now := s.Now()
	e, err := s.openExam(ctx, examID, studentID, now)
	if err != nil {
		return GradingResult{}, err
	}
	qs, err := loadExamQuestions(ctx, s.gw, examID)
	if err != nil {
		return GradingResult{}, storageErr("submit", err)
	}
	selected := filterAnswers(qs, answers)

	attempt := Attempt{StudentID: studentID, ExamID: examID, SubmittedAt: now.Truncate(time.Second).UTC(), Status: AttemptSubmitted}
	err = s.gw.InTx(ctx, func(q db.Querier) error {
		if _, err := q.CallExec(ctx, procAttemptInsert, studentID, examID, attempt.SubmittedAt.Unix(), AttemptSubmitted); err != nil {
			return err
		}
		for _, qu := range qs {
			choiceID, ok := selected[qu.ID]
			if !ok {
				continue
			}
			if _, err := q.CallExec(ctx, procAnswerInsert, studentID, examID, qu.ID, choiceID); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, db.ErrConflict) {
		return GradingResult{}, ErrAlreadySubmitted
	}
	if err != nil {
		return GradingResult{}, storageErr("submit", err)
	}
	s.log.Info("submission recorded", "student_id", studentID, "exam_id", examID, "answered", len(selected))

	res, err := s.grade(ctx, studentID, examID)
	if err != nil {
		s.log.Error("grading failed; submission kept ungraded", "student_id", studentID, "exam_id", examID, "err", err)
		return GradingResult{Attempt: attempt, TotalMarks: e.TotalMarks}, nil
	}
	res.TotalMarks = e.TotalMarks
	return res, nil
}

// filterAnswers keeps only answers whose question is on the exam and whose
// choice belongs to that question.
func filterAnswers(qs []Question, answers map[int64]int64) map[int64]int64 {
	out := make(map[int64]int64, len(answers))
	for _, q := range qs {
		choiceID, ok := answers[q.ID]
		if !ok {
			continue
		}
		for _, c := range q.Choices {
			if c.ID == choiceID {
				out[q.ID] = choiceID
				break
			}
		}
	}
	return out
}

// Regrade recomputes every mark and the total score of an existing attempt.
// Running it twice yields the same result.
func (s *Service) Regrade(ctx context.Context, examID, studentID int64) (GradingResult, error) {
	e, err := loadExam(ctx, s.gw, examID)
	if errors.Is(err, db.ErrNoRows) {
		return GradingResult{}, ErrNotAvailable
	}
	if err != nil {
		return GradingResult{}, storageErr("regrade", err)
	}
	res, err := s.grade(ctx, studentID, examID)
	if err != nil {
		return GradingResult{}, err
	}
	res.TotalMarks = e.TotalMarks
	s.log.Info("attempt regraded", "student_id", studentID, "exam_id", examID, "score", res.TotalScore)
	return res, nil
}

// grade writes a mark for every stored answer and the summed score in one transaction.
func (s *Service) grade(ctx context.Context, studentID, examID int64) (GradingResult, error) {
	started := time.Now()
	defer func() { metrics.GradingDuration.Observe(time.Since(started).Seconds()) }()

	var res GradingResult
	err := s.gw.InTx(ctx, func(q db.Querier) error {
		attempt, ok, err := findAttempt(ctx, q, studentID, examID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotAvailable
		}
		recs, err := q.Call(ctx, procAnswersForGrading, studentID, examID)
		if err != nil {
			return err
		}
		results := make([]grading.Result, 0, len(recs))
		res.Answers = make([]AnswerResult, 0, len(recs))
		for _, r := range recs {
			gq := grading.Q{
				ID:              r.Int64("question_id"),
				Type:            r.String("type"),
				Weight:          r.Float64("weight"),
				CorrectChoiceID: r.Int64("correct_choice_id"),
			}
			selected := r.NullInt64("selected_choice_id")
			gr, err := s.grader.Grade(ctx, gq, grading.Response{SelectedChoiceID: selected})
			if err != nil {
				return err
			}
			if _, err := q.CallExec(ctx, procAnswerSetMark, gr.Points, studentID, examID, gq.ID); err != nil {
				return err
			}
			results = append(results, gr)
			res.Answers = append(res.Answers, AnswerResult{
				QuestionID:       gq.ID,
				SelectedChoiceID: selected,
				CorrectChoiceID:  gq.CorrectChoiceID,
				Mark:             gr.Points,
				Weight:           gr.MaxPoints,
				Correct:          gr.Correct,
			})
		}
		score := grading.Total(results)
		if _, err := q.CallExec(ctx, procAttemptSetScore, score, studentID, examID); err != nil {
			return err
		}
		attempt.Score = score
		res.Attempt = attempt
		res.TotalScore = score
		res.Graded = true
		return nil
	})
	if errors.Is(err, ErrNotAvailable) {
		return GradingResult{}, err
	}
	if err != nil {
		return GradingResult{}, storageErr("grade", err)
	}
	return res, nil
}
