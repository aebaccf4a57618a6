package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-exams/internal/exam"
)

// GET /student/exams/available
func ListAvailableHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		list, err := svc.ListAvailable(r.Context(), me.ID, svc.Now())
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

// GET /student/exams/completed
func ListCompletedHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		list, err := svc.ListCompleted(r.Context(), me.ID)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

// GET /student/exams/schedule
func ScheduleHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		list, err := svc.ListSchedule(r.Context(), me.ID, svc.Now())
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

// GET /student/exams/{examID}
func LoadExamHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		examID, ok := idParam(r, "examID")
		if !ok {
			badRequest(w, "invalid exam id")
			return
		}
		sheet, err := svc.LoadForAttempt(r.Context(), examID, me.ID)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, sheet)
	}
}

// POST /student/exams/{examID}/submit  { "answers": { "<question id>": <choice id> } }
// Keys may also use the form field style "question_<id>".
func SubmitHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		examID, ok := idParam(r, "examID")
		if !ok {
			badRequest(w, "invalid exam id")
			return
		}
		var req struct {
			Answers map[string]int64 `json:"answers"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		answers, err := parseAnswers(req.Answers)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		res, err := svc.Submit(r.Context(), me.ID, examID, answers)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

type answerKeyError string

func (e answerKeyError) Error() string { return "invalid question id " + strconv.Quote(string(e)) }

func parseAnswers(in map[string]int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(in))
	for k, choiceID := range in {
		qid, err := strconv.ParseInt(strings.TrimPrefix(k, "question_"), 10, 64)
		if err != nil || qid <= 0 {
			return nil, answerKeyError(k)
		}
		out[qid] = choiceID
	}
	return out, nil
}

// GET /student/exams/{examID}/results
func StudentResultsHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		examID, ok := idParam(r, "examID")
		if !ok {
			badRequest(w, "invalid exam id")
			return
		}
		res, err := svc.ExamResults(r.Context(), me.ID, examID)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}
