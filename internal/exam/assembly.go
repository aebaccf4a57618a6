package exam

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-exams/internal/db"
	"github.com/mind-engage/mindengage-exams/internal/metrics"
)

type poolEntry struct {
	id     int64
	weight float64
}

// CreateExam validates in, draws the requested questions at random from the
// course pool and persists the exam with its question links in one transaction.
func (s *Service) CreateExam(ctx context.Context, in CreateExamInput) (Exam, error) {
	e, err := s.createExam(ctx, in)
	metrics.ExamsCreated.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			s.log.Error("create exam failed", "course", in.CourseName, "err", err)
		}
		return Exam{}, err
	}
	s.log.Info("exam created", "exam_id", e.ID, "course", e.CourseName, "questions", len(e.Questions))
	return e, nil
}

func (s *Service) createExam(ctx context.Context, in CreateExamInput) (Exam, error) {
	name := strings.TrimSpace(in.CourseName)
	if name == "" {
		return Exam{}, ErrInvalidCourse
	}
	course, err := findCourse(ctx, s.gw, name)
	switch {
	case errors.Is(err, db.ErrNoRows):
		return Exam{}, ErrInvalidCourse
	case err != nil:
		return Exam{}, storageErr("create exam", err)
	case course.QuestionCount == 0:
		return Exam{}, ErrInvalidCourse
	}

	now := s.Now()
	d, err := parseDate(in.Date)
	if err != nil {
		return Exam{}, err
	}
	start, startOff, err := parseClock(in.StartTime)
	if err != nil {
		return Exam{}, err
	}
	end, endOff, err := parseClock(in.EndTime)
	if err != nil {
		return Exam{}, err
	}
	date, today := d.Format(dateLayout), now.Format(dateLayout)
	if date < today {
		return Exam{}, ErrPastDate
	}
	if date == today && start < now.Format(clockLayout) {
		return Exam{}, ErrPastStartTime
	}

	if endOff <= startOff {
		return Exam{}, ErrInvalidTimeRange
	}
	if endOff-startOff > s.limits.MaxDuration {
		return Exam{}, ErrDurationExceeded.withDetail("Exam duration cannot exceed %s.", shortDuration(s.limits.MaxDuration))
	}

	if in.TrueFalse < 0 || in.MultipleChoice < 0 || in.TrueFalse+in.MultipleChoice == 0 {
		return Exam{}, ErrInvalidQuestionCount
	}
	if total := in.TrueFalse + in.MultipleChoice; total > s.limits.MaxQuestions {
		return Exam{}, ErrTooManyQuestions.withDetail("Total number of questions cannot exceed %d (requested %d).", s.limits.MaxQuestions, total)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = fmt.Sprintf("%s Exam %s", course.Name, date)
	}

	var out Exam
	err = s.gw.InTx(ctx, func(q db.Querier) error {
		var picked []poolEntry
		for _, want := range []struct {
			typ QuestionType
			n   int
		}{{TrueFalse, in.TrueFalse}, {MultipleChoice, in.MultipleChoice}} {
			if want.n == 0 {
				continue
			}
			pool, err := questionPool(ctx, q, course.ID, want.typ)
			if err != nil {
				return err
			}
			if len(pool) < want.n {
				return ErrInsufficientQuestions.withDetail(
					"Course %s has %d %s questions; %d requested.", course.Name, len(pool), want.typ, want.n)
			}
			picked = append(picked, s.draw(pool, want.n)...)
		}

		total := 0.0
		for _, p := range picked {
			total += p.weight
		}
		rec, err := q.CallOne(ctx, procExamInsert,
			course.ID, title, date, start, end, total, in.CreatedBy, now.Unix())
		if err != nil {
			return err
		}
		examID := rec.Int64("id")
		for i, p := range picked {
			if _, err := q.CallExec(ctx, procExamLinkQuestion, examID, p.id, i+1); err != nil {
				return err
			}
		}

		if out, err = loadExam(ctx, q, examID); err != nil {
			return err
		}
		out.Questions, err = loadExamQuestions(ctx, q, examID)
		return err
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return Exam{}, err
		}
		return Exam{}, storageErr("create exam", err)
	}
	return out, nil
}

func questionPool(ctx context.Context, q db.Querier, courseID int64, typ QuestionType) ([]poolEntry, error) {
	recs, err := q.Call(ctx, procQuestionPool, courseID, string(typ))
	if err != nil {
		return nil, err
	}
	pool := make([]poolEntry, 0, len(recs))
	for _, r := range recs {
		pool = append(pool, poolEntry{id: r.Int64("id"), weight: r.Float64("weight")})
	}
	return pool, nil
}

// draw picks n distinct entries uniformly at random.
func (s *Service) draw(pool []poolEntry, n int) []poolEntry {
	cp := append([]poolEntry(nil), pool...)
	s.shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	return cp[:n]
}

// shortDuration renders 2h0m0s as 2h and 1h30m0s as 1h30m.
func shortDuration(d time.Duration) string {
	out := d.String()
	if strings.HasSuffix(out, "m0s") {
		out = strings.TrimSuffix(out, "0s")
	}
	if strings.HasSuffix(out, "h0m") {
		out = strings.TrimSuffix(out, "0m")
	}
	return out
}

// outcome labels a result for metrics.
func outcome(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return "rejected"
	case errors.Is(err, ErrNotAvailable):
		return "unavailable"
	case errors.Is(err, ErrAlreadySubmitted):
		return "conflict"
	default:
		return "error"
	}
}
