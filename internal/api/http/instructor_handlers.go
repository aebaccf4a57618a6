package http

import (
	"log/slog"
	"net/http"

	"github.com/mind-engage/mindengage-exams/internal/exam"
)

// GET /instructor/courses
func InstructorCoursesHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		list, err := svc.InstructorCourses(r.Context(), me.ID)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

// GET /instructor/exams
func InstructorExamsHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		list, err := svc.InstructorExams(r.Context(), me.ID)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

// GET /instructor/question-courses
// Feeds the course picker of the create-exam form, with the current limits.
func QuestionCoursesHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.CoursesWithQuestions(r.Context())
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		lim := svc.Limits()
		respondJSON(w, http.StatusOK, map[string]any{
			"items":                list,
			"max_questions":        lim.MaxQuestions,
			"max_duration_minutes": int(lim.MaxDuration.Minutes()),
		})
	}
}

// POST /instructor/exams
func CreateExamHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, ok := caller(w, r)
		if !ok {
			return
		}
		var in exam.CreateExamInput
		if !decodeBody(w, r, &in) {
			return
		}
		in.CreatedBy = &me.ID
		e, err := svc.CreateExam(r.Context(), in)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusCreated, e)
	}
}

// POST /instructor/questions
func AddQuestionHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in exam.NewQuestionInput
		if !decodeBody(w, r, &in) {
			return
		}
		q, err := svc.AddQuestion(r.Context(), in)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusCreated, q)
	}
}

// POST /instructor/exams/{examID}/questions
// Adds a question to the exam's course bank and appends it to the exam.
func AddExamQuestionHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, ok := idParam(r, "examID")
		if !ok {
			badRequest(w, "invalid exam id")
			return
		}
		var in exam.NewQuestionInput
		if !decodeBody(w, r, &in) {
			return
		}
		in.ExamID = &examID
		q, err := svc.AddQuestion(r.Context(), in)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusCreated, q)
	}
}

// GET /instructor/exams/{examID}/results
func ExamResultsHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, ok := idParam(r, "examID")
		if !ok {
			badRequest(w, "invalid exam id")
			return
		}
		list, err := svc.InstructorResults(r.Context(), examID)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"exam_id": examID, "items": list})
	}
}

// POST /instructor/exams/{examID}/regrade/{studentID}
func RegradeHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, ok := idParam(r, "examID")
		if !ok {
			badRequest(w, "invalid exam id")
			return
		}
		studentID, ok := idParam(r, "studentID")
		if !ok {
			badRequest(w, "invalid student id")
			return
		}
		res, err := svc.Regrade(r.Context(), examID, studentID)
		if err != nil {
			respondError(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}
