// Package http exposes the exam service over a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/config"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/metrics"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

// Pinger reports whether the store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Config   config.Config
	Exams    *exam.Service
	Auth     *authmw.AuthService
	Accounts interface {
		authmw.Authenticator
		authmw.AccountLookup
	}
	Store  Pinger
	Logger *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	timeout := d.Config.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	if d.Config.LogLevel == "debug" {
		r.Use(middleware.Logger)
	}
	if d.Config.EnableMetrics {
		r.Use(metrics.Middleware)
	}
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.Ping(r.Context()); err != nil {
			log.Warn("readiness check failed", "err", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	if d.Config.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.Accounts, log))

	svc := d.Exams
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth), authmw.AttachAccountFromDB(d.Accounts, log))

		pr.Route("/student/exams", func(sr chi.Router) {
			sr.With(rbac.Require(rbac.PermExamTake)).Get("/available", ListAvailableHandler(svc, log))
			sr.With(rbac.Require(rbac.PermResultsOwn)).Get("/completed", ListCompletedHandler(svc, log))
			sr.With(rbac.Require(rbac.PermScheduleView)).Get("/schedule", ScheduleHandler(svc, log))
			sr.With(rbac.Require(rbac.PermExamTake)).Get("/{examID}", LoadExamHandler(svc, log))
			sr.With(rbac.Require(rbac.PermExamTake)).Post("/{examID}/submit", SubmitHandler(svc, log))
			sr.With(rbac.Require(rbac.PermResultsOwn)).Get("/{examID}/results", StudentResultsHandler(svc, log))
		})

		pr.Route("/instructor", func(ir chi.Router) {
			ir.With(rbac.Require(rbac.PermCourseView)).Get("/courses", InstructorCoursesHandler(svc, log))
			ir.With(rbac.RequireAny(rbac.PermCourseView, rbac.PermResultsAll)).Get("/exams", InstructorExamsHandler(svc, log))
			ir.With(rbac.Require(rbac.PermExamCreate)).Get("/question-courses", QuestionCoursesHandler(svc, log))
			ir.With(rbac.Require(rbac.PermExamCreate)).Post("/exams", CreateExamHandler(svc, log))
			ir.With(rbac.Require(rbac.PermQuestionCreate)).Post("/questions", AddQuestionHandler(svc, log))
			ir.With(rbac.Require(rbac.PermQuestionCreate)).Post("/exams/{examID}/questions", AddExamQuestionHandler(svc, log))
			ir.With(rbac.Require(rbac.PermResultsAll)).Get("/exams/{examID}/results", ExamResultsHandler(svc, log))
			ir.With(rbac.Require(rbac.PermAttemptRegrade)).
				Post("/exams/{examID}/regrade/{studentID}", RegradeHandler(svc, log))
		})
	})

	return r
}
