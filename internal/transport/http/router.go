package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the REST endpoints, the captcha endpoint and the quiz websocket.
func NewRouter(h *Handler, ws *WSHandler, authMW *AuthMiddleware) http.Handler {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/validateCaptcha", h.ValidateCaptcha).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/ws", authMW.RequireUser(http.HandlerFunc(ws.ServeWS))).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	users := v1.NewRoute().Subrouter()
	users.Use(authMW.RequireUser)
	users.HandleFunc("/courses/{courseId}/quiz", h.GetQuiz).Methods(http.MethodGet, http.MethodOptions)
	users.HandleFunc("/courses/{courseId}/sessions", h.StartSession).Methods(http.MethodPost, http.MethodOptions)
	users.HandleFunc("/courses/{courseId}/responses/{submissionId}", h.GetSubmission).Methods(http.MethodGet, http.MethodOptions)
	users.HandleFunc("/sessions/{sessionId}", h.GetSession).Methods(http.MethodGet, http.MethodOptions)
	users.HandleFunc("/sessions/{sessionId}/answer", h.SelectAnswer).Methods(http.MethodPut, http.MethodOptions)
	users.HandleFunc("/sessions/{sessionId}/next", h.Next).Methods(http.MethodPost, http.MethodOptions)
	users.HandleFunc("/sessions/{sessionId}/prev", h.Prev).Methods(http.MethodPost, http.MethodOptions)
	users.HandleFunc("/sessions/{sessionId}/verify", h.Verify).Methods(http.MethodPost, http.MethodOptions)
	users.HandleFunc("/sessions/{sessionId}/submit", h.Submit).Methods(http.MethodPost, http.MethodOptions)

	admins := v1.NewRoute().Subrouter()
	admins.Use(authMW.RequireAdmin)
	admins.HandleFunc("/courses", h.ListCourses).Methods(http.MethodGet, http.MethodOptions)
	admins.HandleFunc("/poaps", h.ListPOAPs).Methods(http.MethodGet, http.MethodOptions)
	admins.HandleFunc("/poaps", h.ImportPOAP).Methods(http.MethodPost, http.MethodOptions)
	admins.HandleFunc("/poaps/{poapId}/course", h.AssignPOAP).Methods(http.MethodPut, http.MethodOptions)

	return r
}
