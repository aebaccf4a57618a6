package exam

import (
	"context"
	"errors"
	"strings"

	"github.com/mind-engage/mindengage-exams/internal/db"
)

// CoursesWithQuestions lists the courses an exam can be assembled from.
func (s *Service) CoursesWithQuestions(ctx context.Context) ([]Course, error) {
	recs, err := s.gw.Call(ctx, procCoursesWithQuestions)
	if err != nil {
		return nil, storageErr("courses with questions", err)
	}
	out := make([]Course, 0, len(recs))
	for _, r := range recs {
		out = append(out, Course{
			ID:            r.Int64("id"),
			Name:          r.String("name"),
			QuestionCount: int(r.Int64("question_count")),
		})
	}
	return out, nil
}

// AddQuestion stores a question and its choices. True/false questions always
// get the choices "True" and "False"; CorrectIndex selects among them.
//
// With ExamID set the question is also appended to that exam and the exam's
// total marks recomputed, all in one transaction. CourseName may then be
// empty; if given it must be the exam's course.
func (s *Service) AddQuestion(ctx context.Context, in NewQuestionInput) (Question, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Question{}, ErrInvalidQuestion.withDetail("Question text is required.")
	}
	var choices []string
	switch in.Type {
	case TrueFalse:
		choices = []string{"True", "False"}
	case MultipleChoice:
		for _, c := range in.Choices {
			if c = strings.TrimSpace(c); c != "" {
				choices = append(choices, c)
			}
		}
		if len(choices) < 2 {
			return Question{}, ErrInvalidQuestion.withDetail("A multiple choice question needs at least two choices.")
		}
		if len(choices) != len(in.Choices) {
			return Question{}, ErrInvalidQuestion.withDetail("Choices cannot be blank.")
		}
	default:
		return Question{}, ErrInvalidQuestion.withDetail("Question type must be true_false or multiple_choice.")
	}
	if in.CorrectIndex < 0 || in.CorrectIndex >= len(choices) {
		return Question{}, ErrInvalidQuestion.withDetail("The correct choice must be one of the listed choices.")
	}
	weight := in.Weight
	if weight == 0 {
		weight = 1
	}
	if weight < 0 {
		return Question{}, ErrInvalidQuestion.withDetail("Question weight must be positive.")
	}

	var (
		out   Question
		total float64
	)
	err := s.gw.InTx(ctx, func(q db.Querier) error {
		name := strings.TrimSpace(in.CourseName)
		var target Exam
		if in.ExamID != nil {
			e, err := loadExam(ctx, q, *in.ExamID)
			if errors.Is(err, db.ErrNoRows) {
				return ErrNotAvailable
			}
			if err != nil {
				return err
			}
			if name == "" {
				name = e.CourseName
			}
			target = e
		}
		course, err := findCourse(ctx, q, name)
		if errors.Is(err, db.ErrNoRows) {
			return ErrInvalidCourse
		}
		if err != nil {
			return err
		}
		if in.ExamID != nil && target.CourseID != course.ID {
			return ErrInvalidCourse.withDetail("Exam %d belongs to course %s, not %s.", target.ID, target.CourseName, course.Name)
		}

		out = Question{CourseID: course.ID, Type: in.Type, Text: text, Weight: weight}
		rec, err := q.CallOne(ctx, procQuestionInsert, course.ID, string(in.Type), text, weight)
		if err != nil {
			return err
		}
		out.ID = rec.Int64("id")
		for i, c := range choices {
			correct := 0
			if i == in.CorrectIndex {
				correct = 1
			}
			rec, err := q.CallOne(ctx, procChoiceInsert, out.ID, c, correct, i+1)
			if err != nil {
				return err
			}
			id := rec.Int64("id")
			out.Choices = append(out.Choices, Choice{ID: id, Text: c})
			if correct == 1 {
				out.CorrectChoiceID = id
			}
		}
		if in.ExamID == nil {
			return nil
		}

		// total_marks stays the sum of the linked weights
		if _, err := q.CallExec(ctx, procExamAppendQuestion, target.ID, out.ID, target.ID); err != nil {
			return err
		}
		rec, err = q.CallOne(ctx, procExamRecomputeTotal, target.ID, target.ID)
		if err != nil {
			return err
		}
		total = rec.Float64("total_marks")
		return nil
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) || errors.Is(err, ErrNotAvailable) {
			return Question{}, err
		}
		return Question{}, storageErr("add question", err)
	}
	if in.ExamID != nil {
		s.log.Info("question added to exam", "question_id", out.ID, "exam_id", *in.ExamID, "total_marks", total)
	} else {
		s.log.Info("question added", "question_id", out.ID, "course_id", out.CourseID, "type", out.Type)
	}
	return out, nil
}
