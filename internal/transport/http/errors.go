package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pkg/errors"

	"course-quiz-service/internal/app"
	"course-quiz-service/internal/domain"
)

type errorPayload struct {
	Message string           `json:"message"`
	Session *app.SessionView `json:"session,omitempty"`
}

// knownErrors maps domain errors to HTTP statuses; the sentinel's own text is what clients see.
var knownErrors = []struct {
	err    error
	status int
}{
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrCourseNotFound, http.StatusNotFound},
	{domain.ErrPOAPNotFound, http.StatusNotFound},
	{domain.ErrSubmissionNotFound, http.StatusNotFound},
	{domain.ErrSessionNotFound, http.StatusNotFound},
	{domain.ErrInvalidInput, http.StatusBadRequest},
	{domain.ErrOptionNotFound, http.StatusBadRequest},
	{domain.ErrNotCurrentQuestion, http.StatusBadRequest},
	{domain.ErrAnswerRequired, http.StatusBadRequest},
	{domain.ErrVerificationFailed, http.StatusBadRequest},
	{domain.ErrQuizUnavailable, http.StatusConflict},
	{domain.ErrNoNextQuestion, http.StatusConflict},
	{domain.ErrNoPreviousQuestion, http.StatusConflict},
	{domain.ErrVerificationUnavailable, http.StatusConflict},
	{domain.ErrNotVerified, http.StatusConflict},
	{domain.ErrSessionSubmitted, http.StatusConflict},
	{domain.ErrSubmissionFailed, http.StatusInternalServerError},
}

// classify returns the status and client-safe message for err.
func classify(err error) (int, string) {
	for _, known := range knownErrors {
		if errors.Is(err, known.err) {
			return known.status, known.err.Error()
		}
	}
	return http.StatusInternalServerError, "something went wrong"
}

func writeError(w http.ResponseWriter, err error, session *app.SessionView) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, errorPayload{Message: message, Session: session})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
