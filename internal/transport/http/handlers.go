package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"course-quiz-service/internal/app"
	"course-quiz-service/internal/domain"
)

// Handler serves the REST surface of the quiz and roster use cases.
type Handler struct {
	quizzes     *app.QuizService
	submissions *app.SubmissionWriter
	roster      *app.RosterService
	verifier    app.Verifier
	validate    *validator.Validate
}

func NewHandler(quizzes *app.QuizService, submissions *app.SubmissionWriter, roster *app.RosterService, verifier app.Verifier) *Handler {
	return &Handler{
		quizzes:     quizzes,
		submissions: submissions,
		roster:      roster,
		verifier:    verifier,
		validate:    validator.New(),
	}
}

type captchaRequest struct {
	Captcha string `json:"captcha" validate:"required"`
}

type answerRequest struct {
	Index  *int   `json:"index" validate:"required,min=0"`
	Answer string `json:"answer" validate:"required"`
}

type assignRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

type quizResponse struct {
	CourseID  string            `json:"courseId"`
	Questions []domain.Question `json:"questions"`
}

// ValidateCaptcha checks a challenge token: 200 when verified, 400 otherwise.
func (h *Handler) ValidateCaptcha(w http.ResponseWriter, r *http.Request) {
	var req captchaRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]bool{"success": false})
		return
	}
	if err := h.verifier.Verify(r.Context(), req.Captcha); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]bool{"success": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	courseID := mux.Vars(r)["courseId"]
	writeJSON(w, http.StatusOK, quizResponse{CourseID: courseID, Questions: h.quizzes.LoadQuiz(r.Context(), courseID)})
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.quizzes.Start(r.Context(), UserFromContext(r.Context()), mux.Vars(r)["courseId"])
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.quizzes.Get(r.Context(), UserFromContext(r.Context()), mux.Vars(r)["sessionId"])
	h.writeSession(w, view, err)
}

func (h *Handler) SelectAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err, nil)
		return
	}
	view, err := h.quizzes.SelectAnswer(r.Context(), UserFromContext(r.Context()), mux.Vars(r)["sessionId"], *req.Index, req.Answer)
	h.writeSession(w, view, err)
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	view, err := h.quizzes.Next(r.Context(), UserFromContext(r.Context()), mux.Vars(r)["sessionId"])
	h.writeSession(w, view, err)
}

func (h *Handler) Prev(w http.ResponseWriter, r *http.Request) {
	view, err := h.quizzes.Prev(r.Context(), UserFromContext(r.Context()), mux.Vars(r)["sessionId"])
	h.writeSession(w, view, err)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req captchaRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err, nil)
		return
	}
	view, err := h.quizzes.Verify(r.Context(), UserFromContext(r.Context()), mux.Vars(r)["sessionId"], req.Captcha)
	h.writeSession(w, view, err)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	view, err := h.quizzes.Submit(r.Context(), UserFromContext(r.Context()), mux.Vars(r)["sessionId"])
	h.writeSession(w, view, err)
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	submission, err := h.submissions.GetSubmission(r.Context(), UserFromContext(r.Context()), vars["courseId"], vars["submissionId"])
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, submission)
}

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.roster.Courses(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *Handler) ListPOAPs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.roster.List(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) ImportPOAP(w http.ResponseWriter, r *http.Request) {
	var poap domain.POAP
	if err := json.NewDecoder(r.Body).Decode(&poap); err != nil {
		writeError(w, errors.Wrap(domain.ErrInvalidInput, err.Error()), nil)
		return
	}
	created, err := h.roster.Import(r.Context(), poap)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) AssignPOAP(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err, nil)
		return
	}
	entries, err := h.roster.Reassign(r.Context(), mux.Vars(r)["poapId"], req.CourseID)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(domain.ErrInvalidInput, err.Error())
	}
	if err := h.validate.Struct(dst); err != nil {
		return errors.Wrap(domain.ErrInvalidInput, err.Error())
	}
	return nil
}

// writeSession answers with the session view, attaching it to the error body on a rejected transition.
func (h *Handler) writeSession(w http.ResponseWriter, view app.SessionView, err error) {
	if err != nil {
		if view.ID == "" {
			writeError(w, err, nil)
			return
		}
		writeError(w, err, &view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
