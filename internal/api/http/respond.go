package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/db"
	"github.com/mind-engage/mindengage-exams/internal/exam"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps service errors onto status codes. Only validation messages
// reach the client verbatim; everything else is logged and replaced.
func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verr *exam.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Message, Code: verr.Code})
	case errors.Is(err, exam.ErrNotAvailable):
		respondJSON(w, http.StatusNotFound, errorBody{Error: "exam not found or not available", Code: "not_available"})
	case errors.Is(err, exam.ErrAlreadySubmitted):
		respondJSON(w, http.StatusConflict, errorBody{Error: "exam already submitted", Code: "already_submitted"})
	case errors.Is(err, db.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		log.Error("store unavailable", "req_id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "err", err)
		respondJSON(w, http.StatusServiceUnavailable, errorBody{Error: "service temporarily unavailable"})
	default:
		log.Error("request failed", "req_id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "err", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body into v. On failure it has already written a
// 400, or a 413 when the body exceeds maxBodyBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		respondJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large", Code: "too_large"})
		return false
	}
	badRequest(w, "bad json")
	return false
}

func badRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: msg, Code: "bad_request"})
}

// idParam reads a positive integer URL parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// caller returns the identity put in context by the auth middleware.
func caller(w http.ResponseWriter, r *http.Request) (authmw.Identity, bool) {
	id, ok := authmw.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
	}
	return id, ok
}
