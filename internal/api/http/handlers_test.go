package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	api "github.com/mind-engage/mindengage-exams/internal/api/http"
	"github.com/mind-engage/mindengage-exams/internal/auth"
	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/config"
	"github.com/mind-engage/mindengage-exams/internal/db/dbtest"
	"github.com/mind-engage/mindengage-exams/internal/exam"
)

const (
	studentID    = 100
	otherStudent = 101
	instructorID = 9
	password     = "pw"
)

type env struct {
	t   *testing.T
	srv *httptest.Server
	svc *exam.Service
	now time.Time
}

// newEnv wires the real router over an in-memory database seeded with one
// course of 2 true/false and 3 multiple choice questions, all correct at choice 0.
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	e := &env{t: t, now: time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)}

	gw := dbtest.Open(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e.svc = exam.NewService(gw,
		exam.WithClock(func() time.Time { return e.now }),
		exam.WithLocation(time.UTC),
		exam.WithShuffle(rand.New(rand.NewPCG(7, 7)).Shuffle),
		exam.WithLogger(log),
	)
	accounts := auth.NewAccounts(gw).WithCost(bcrypt.MinCost)

	require.NoError(t, accounts.Save(ctx, authmw.KindStudent, studentID, "Ada", password))
	require.NoError(t, accounts.Save(ctx, authmw.KindStudent, otherStudent, "Grace", password))
	require.NoError(t, accounts.Save(ctx, authmw.KindInstructor, instructorID, "Prof", password))
	require.NoError(t, accounts.EnsureCourse(ctx, "Biology"))
	require.NoError(t, accounts.Enrol(ctx, authmw.KindStudent, studentID, "Biology"))
	require.NoError(t, accounts.Enrol(ctx, authmw.KindStudent, otherStudent, "Biology"))
	require.NoError(t, accounts.Enrol(ctx, authmw.KindInstructor, instructorID, "Biology"))
	for i := 0; i < 2; i++ {
		_, err := e.svc.AddQuestion(ctx, exam.NewQuestionInput{CourseName: "Biology", Type: exam.TrueFalse, Text: "tf " + strconv.Itoa(i)})
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := e.svc.AddQuestion(ctx, exam.NewQuestionInput{
			CourseName: "Biology", Type: exam.MultipleChoice, Text: "mcq " + strconv.Itoa(i),
			Choices: []string{"right", "wrong", "also wrong"},
		})
		require.NoError(t, err)
	}

	cfg := config.Config{
		Mode:               config.ModeOffline,
		RequestTimeout:     5 * time.Second,
		EnableMetrics:      true,
		CORSOriginsOffline: []string{"http://localhost:3000"},
	}
	e.srv = httptest.NewServer(api.NewRouter(api.Deps{
		Config:   cfg,
		Exams:    e.svc,
		Auth:     authmw.NewAuthService("test-secret", time.Hour),
		Accounts: accounts,
		Store:    gw,
		Logger:   log,
	}))
	t.Cleanup(e.srv.Close)
	return e
}

func (e *env) login(kind authmw.Kind, id int64) string {
	e.t.Helper()
	res, body := e.do(http.MethodPost, "/auth/login", "", map[string]any{"kind": kind, "id": id, "password": password})
	require.Equal(e.t, http.StatusOK, res.StatusCode, string(body))
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(e.t, json.Unmarshal(body, &out))
	return out.AccessToken
}

func (e *env) do(method, path, token string, payload any) (*http.Response, []byte) {
	e.t.Helper()
	var rd io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(e.t, err)
	return res, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

type items[T any] struct {
	Items []T `json:"items"`
}

func (e *env) createExam(token string) exam.Exam {
	e.t.Helper()
	res, body := e.do(http.MethodPost, "/instructor/exams", token, map[string]any{
		"course_name": "Biology",
		"exam_date":   "2026-03-10",
		"start_time":  "09:00",
		"end_time":    "10:00",
		"no_tf":       1,
		"no_mcq":      2,
	})
	require.Equal(e.t, http.StatusCreated, res.StatusCode, string(body))
	return decode[exam.Exam](e.t, body)
}

func TestExamLifecycle(t *testing.T) {
	e := newEnv(t)
	prof := e.login(authmw.KindInstructor, instructorID)
	ada := e.login(authmw.KindStudent, studentID)

	created := e.createExam(prof)
	assert.Equal(t, "Biology Exam 2026-03-10", created.Title)
	assert.Equal(t, 3.0, created.TotalMarks)
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, int64(instructorID), *created.CreatedBy)
	path := "/student/exams/" + strconv.FormatInt(created.ID, 10)

	// before the window opens the exam is only on the schedule
	_, body := e.do(http.MethodGet, "/student/exams/available", ada, nil)
	assert.Empty(t, decode[items[exam.ExamSummary]](t, body).Items)
	_, body = e.do(http.MethodGet, "/student/exams/schedule", ada, nil)
	sched := decode[items[exam.ScheduledExam]](t, body).Items
	require.Len(t, sched, 1)
	assert.Equal(t, exam.StatusNotStarted, sched[0].Status)
	res, _ := e.do(http.MethodGet, path, ada, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	e.now = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	_, body = e.do(http.MethodGet, "/student/exams/available", ada, nil)
	avail := decode[items[exam.ExamSummary]](t, body).Items
	require.Len(t, avail, 1)
	assert.Equal(t, created.ID, avail[0].ID)

	res, body = e.do(http.MethodGet, path, ada, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.NotContains(t, string(body), "correct_choice_id")
	sheet := decode[exam.AttemptSheet](t, body)
	require.Len(t, sheet.Questions, 3)
	assert.Equal(t, time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC), sheet.ClosesAt)

	// first question right, second wrong, third skipped; keys in both forms
	answers := map[string]int64{
		strconv.FormatInt(sheet.Questions[0].ID, 10):               sheet.Questions[0].Choices[0].ID,
		"question_" + strconv.FormatInt(sheet.Questions[1].ID, 10): sheet.Questions[1].Choices[1].ID,
	}
	res, body = e.do(http.MethodPost, path+"/submit", ada, map[string]any{"answers": answers})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	graded := decode[exam.GradingResult](t, body)
	assert.True(t, graded.Graded)
	assert.Equal(t, 1.0, graded.TotalScore)
	assert.Equal(t, 3.0, graded.TotalMarks)

	res, _ = e.do(http.MethodPost, path+"/submit", ada, map[string]any{"answers": answers})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	res, _ = e.do(http.MethodGet, path, ada, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode, "closed to the student once submitted")

	res, body = e.do(http.MethodGet, path+"/results", ada, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	result := decode[exam.ExamResult](t, body)
	assert.Equal(t, 1.0, result.TotalScore)
	require.Len(t, result.Questions, 3)
	assert.Nil(t, result.Questions[2].SelectedChoiceID)

	_, body = e.do(http.MethodGet, "/student/exams/completed", ada, nil)
	done := decode[items[exam.CompletedExam]](t, body).Items
	require.Len(t, done, 1)
	assert.Equal(t, 1.0, done[0].Score)

	res, body = e.do(http.MethodGet, "/instructor/exams/"+strconv.FormatInt(created.ID, 10)+"/results", prof, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	rows := decode[items[exam.StudentResult]](t, body).Items
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada", rows[0].StudentName)

	res, body = e.do(http.MethodPost,
		"/instructor/exams/"+strconv.FormatInt(created.ID, 10)+"/regrade/"+strconv.Itoa(studentID), prof, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.Equal(t, 1.0, decode[exam.GradingResult](t, body).TotalScore)

	_, body = e.do(http.MethodGet, "/instructor/exams", prof, nil)
	exams := decode[items[exam.InstructorExam]](t, body).Items
	require.Len(t, exams, 1)
	assert.Equal(t, 1, exams[0].StudentsTaken)

	_, body = e.do(http.MethodGet, "/instructor/courses", prof, nil)
	courses := decode[items[exam.InstructorCourse]](t, body).Items
	require.Len(t, courses, 1)
	assert.Equal(t, 2, courses[0].StudentCount)
}

func TestCreateExam_ValidationIs422(t *testing.T) {
	e := newEnv(t)
	prof := e.login(authmw.KindInstructor, instructorID)

	res, body := e.do(http.MethodPost, "/instructor/exams", prof, map[string]any{
		"course_name": "Biology", "exam_date": "2026-03-10",
		"start_time": "09:00", "end_time": "10:00", "no_tf": 5, "no_mcq": 0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	out := decode[map[string]string](t, body)
	assert.Equal(t, exam.ErrInsufficientQuestions.Code, out["code"])

	res, _ = e.do(http.MethodPost, "/instructor/exams", prof, map[string]any{
		"course_name": "Chemistry", "exam_date": "2026-03-10",
		"start_time": "09:00", "end_time": "10:00", "no_tf": 1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	res, _ = e.do(http.MethodPost, "/instructor/exams", prof, "not an object")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestQuestionCourses(t *testing.T) {
	e := newEnv(t)
	prof := e.login(authmw.KindInstructor, instructorID)

	res, body := e.do(http.MethodGet, "/instructor/question-courses", prof, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var out struct {
		Items        []exam.Course `json:"items"`
		MaxQuestions int           `json:"max_questions"`
		MaxMinutes   int           `json:"max_duration_minutes"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, 5, out.Items[0].QuestionCount)
	assert.Equal(t, 25, out.MaxQuestions)
	assert.Equal(t, 120, out.MaxMinutes)

	res, body = e.do(http.MethodPost, "/instructor/questions", prof, map[string]any{
		"course_name": "Biology", "type": "true_false", "text": "Cells have walls", "correct_index": 1,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	q := decode[exam.Question](t, body)
	require.Len(t, q.Choices, 2)
	assert.Equal(t, q.Choices[1].ID, q.CorrectChoiceID)
}

func TestAddExamQuestion(t *testing.T) {
	e := newEnv(t)
	prof := e.login(authmw.KindInstructor, instructorID)
	ada := e.login(authmw.KindStudent, studentID)
	created := e.createExam(prof)
	path := "/instructor/exams/" + strconv.FormatInt(created.ID, 10) + "/questions"

	res, body := e.do(http.MethodPost, path, prof, map[string]any{
		"type": "multiple_choice", "text": "Powerhouse of the cell?",
		"choices": []string{"Nucleus", "Mitochondria"}, "correct_index": 1, "weight": 2,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	q := decode[exam.Question](t, body)
	assert.Equal(t, q.Choices[1].ID, q.CorrectChoiceID)

	_, body = e.do(http.MethodGet, "/instructor/exams", prof, nil)
	exams := decode[items[exam.InstructorExam]](t, body).Items
	require.Len(t, exams, 1)
	assert.Equal(t, 5.0, exams[0].TotalMarks)

	res, _ = e.do(http.MethodPost, path, prof, map[string]any{"course_name": "Chemistry", "type": "true_false", "text": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	res, _ = e.do(http.MethodPost, "/instructor/exams/999/questions", prof, map[string]any{"type": "true_false", "text": "x"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res, _ = e.do(http.MethodPost, path, ada, map[string]any{"type": "true_false", "text": "x"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	e := newEnv(t)
	h := api.AddQuestionHandler(e.svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	big := `{"type":"true_false","text":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/instructor/questions", strings.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRolesAreEnforced(t *testing.T) {
	e := newEnv(t)
	prof := e.login(authmw.KindInstructor, instructorID)
	ada := e.login(authmw.KindStudent, studentID)

	res, _ := e.do(http.MethodGet, "/student/exams/available", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	res, _ = e.do(http.MethodGet, "/student/exams/available", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = e.do(http.MethodGet, "/student/exams/available", prof, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res, _ = e.do(http.MethodPost, "/instructor/exams", ada, map[string]any{})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res, _ = e.do(http.MethodGet, "/instructor/exams/1/results", ada, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res, _ = e.do(http.MethodGet, "/instructor/exams", ada, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = e.do(http.MethodPost, "/auth/login", "", map[string]any{"kind": "student", "id": studentID, "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestSubmit_BadInput(t *testing.T) {
	e := newEnv(t)
	ada := e.login(authmw.KindStudent, studentID)

	res, _ := e.do(http.MethodPost, "/student/exams/abc/submit", ada, map[string]any{"answers": map[string]int64{}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res, _ = e.do(http.MethodPost, "/student/exams/1/submit", ada, map[string]any{"answers": map[string]int64{"q1": 1}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res, _ = e.do(http.MethodPost, "/student/exams/999/submit", ada, map[string]any{"answers": map[string]int64{"1": 1}})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSubmit_ConcurrentDuplicateIsConflictOrClosed(t *testing.T) {
	e := newEnv(t)
	prof := e.login(authmw.KindInstructor, instructorID)
	grace := e.login(authmw.KindStudent, otherStudent)
	created := e.createExam(prof)
	e.now = time.Date(2026, time.March, 10, 9, 15, 0, 0, time.UTC)

	path := "/student/exams/" + strconv.FormatInt(created.ID, 10) + "/submit"
	codes := make(chan int, 4)
	for i := 0; i < 4; i++ {
		go func() {
			res, _ := e.do(http.MethodPost, path, grace, map[string]any{"answers": map[string]int64{}})
			codes <- res.StatusCode
		}()
	}
	ok := 0
	for i := 0; i < 4; i++ {
		switch c := <-codes; c {
		case http.StatusOK:
			ok++
		case http.StatusConflict, http.StatusNotFound:
		default:
			t.Errorf("unexpected status %d", c)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)

	res, _ := e.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = e.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, body := e.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "exams_http_requests_total")
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func TestReadyz_StoreDown(t *testing.T) {
	h := api.NewRouter(api.Deps{
		Config: config.Config{RequestTimeout: time.Second},
		Auth:   authmw.NewAuthService("x", time.Hour),
		Store:  failingPinger{},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
