package exam_test

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-exams/internal/db"
	"github.com/mind-engage/mindengage-exams/internal/db/dbtest"
	"github.com/mind-engage/mindengage-exams/internal/exam"
)

// base is "now" for every fixture unless a test moves the clock.
var base = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

const (
	today     = "2026-03-10"
	tomorrow  = "2026-03-11"
	yesterday = "2026-03-09"
)

type fixture struct {
	t   *testing.T
	ctx context.Context
	gw  *db.Gateway
	svc *exam.Service
	now time.Time
}

func newFixture(t *testing.T, opts ...exam.Option) *fixture {
	t.Helper()
	f := &fixture{t: t, ctx: context.Background(), gw: dbtest.Open(t), now: base}
	f.svc = f.service(opts...)
	return f
}

// service builds another Service over the same database and clock.
func (f *fixture) service(opts ...exam.Option) *exam.Service {
	all := []exam.Option{
		exam.WithClock(func() time.Time { return f.now }),
		exam.WithLocation(time.UTC),
		exam.WithShuffle(rand.New(rand.NewPCG(1, 2)).Shuffle),
		exam.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return exam.NewService(f.gw, append(all, opts...)...)
}

// at moves the clock to hh:mm:ss on the base date.
func (f *fixture) at(hour, minute, sec int) {
	f.now = time.Date(base.Year(), base.Month(), base.Day(), hour, minute, sec, 0, time.UTC)
}

func (f *fixture) exec(stmt string, args ...any) {
	f.t.Helper()
	_, err := f.gw.Exec(f.ctx, stmt, args...)
	require.NoError(f.t, err)
}

func (f *fixture) insertID(stmt string, args ...any) int64 {
	f.t.Helper()
	rec, err := f.gw.QueryOne(f.ctx, stmt+" RETURNING id", args...)
	require.NoError(f.t, err)
	return rec.Int64("id")
}

func (f *fixture) count(stmt string, args ...any) int {
	f.t.Helper()
	rec, err := f.gw.QueryOne(f.ctx, stmt, args...)
	require.NoError(f.t, err)
	return int(rec.Int64("n"))
}

func (f *fixture) course(name string) int64 {
	return f.insertID(`INSERT INTO courses (name) VALUES ($1)`, name)
}

func (f *fixture) student(id int64, name string) {
	f.exec(`INSERT INTO students (id, name) VALUES ($1, $2)`, id, name)
}

func (f *fixture) instructor(id int64, name string) {
	f.exec(`INSERT INTO instructors (id, name) VALUES ($1, $2)`, id, name)
}

func (f *fixture) enrol(studentID, courseID int64) {
	f.exec(`INSERT INTO student_courses (student_id, course_id) VALUES ($1, $2)`, studentID, courseID)
}

func (f *fixture) teach(instructorID, courseID int64) {
	f.exec(`INSERT INTO instructor_courses (instructor_id, course_id) VALUES ($1, $2)`, instructorID, courseID)
}

// question inserts a question whose choice at index correct is marked correct.
func (f *fixture) question(courseID int64, typ exam.QuestionType, weight float64, correct int, choices ...string) (int64, []int64) {
	qid := f.insertID(`INSERT INTO questions (course_id, type, text, weight) VALUES ($1, $2, $3, $4)`,
		courseID, string(typ), "question for "+string(typ), weight)
	ids := make([]int64, 0, len(choices))
	for i, c := range choices {
		isCorrect := 0
		if i == correct {
			isCorrect = 1
		}
		ids = append(ids, f.insertID(
			`INSERT INTO choices (question_id, text, is_correct, position) VALUES ($1, $2, $3, $4)`,
			qid, c, isCorrect, i+1))
	}
	return qid, ids
}

// bank fills a course with tf true/false and mcq multiple choice questions of weight 1.
func (f *fixture) bank(courseID int64, tf, mcq int) {
	for i := 0; i < tf; i++ {
		f.question(courseID, exam.TrueFalse, 1, 0, "True", "False")
	}
	for i := 0; i < mcq; i++ {
		f.question(courseID, exam.MultipleChoice, 1, 0, "A", "B", "C", "D")
	}
}

// scheduleExam inserts an exam directly, bypassing assembly validation.
func (f *fixture) scheduleExam(courseID int64, date, start, end string, questionIDs ...int64) int64 {
	id := f.insertID(`INSERT INTO exams (course_id, title, exam_date, start_time, end_time, total_marks, created_at)
VALUES ($1, $2, $3, $4, $5, 0, $6)`, courseID, "Exam "+date+" "+start, date, start, end, base.Unix())
	for i, qid := range questionIDs {
		f.exec(`INSERT INTO exam_questions (exam_id, question_id, position) VALUES ($1, $2, $3)`, id, qid, i+1)
	}
	f.exec(`UPDATE exams SET total_marks = (
  SELECT COALESCE(SUM(q.weight), 0) FROM exam_questions eq JOIN questions q ON q.id = eq.question_id
  WHERE eq.exam_id = $1) WHERE id = $2`, id, id)
	return id
}

func choiceOf(id int64) *int64 { return &id }
