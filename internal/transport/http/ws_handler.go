package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"course-quiz-service/internal/app"
)

// WSHandler drives a single quiz session over a websocket.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsAnswerPayload struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

type wsVerifyPayload struct {
	Captcha string `json:"captcha"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades the request and either starts a session for courseId or resumes sessionId.
// Every inbound command is answered with the resulting session, or an error carrying the unchanged one.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("courseId")
	sessionID := r.URL.Query().Get("sessionId")
	if courseID == "" && sessionID == "" {
		http.Error(w, "missing courseId or sessionId", http.StatusBadRequest)
		return
	}
	user := UserFromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var view app.SessionView
	if sessionID != "" {
		view, err = h.service.Get(ctx, user, sessionID)
	} else {
		view, err = h.service.Start(ctx, user, courseID)
	}
	if err != nil {
		_, message := classify(err)
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: message}})
		return
	}
	sessionID = view.ID

	if err := conn.WriteJSON(outboundMessage{Type: "session", Payload: view}); err != nil {
		log.Printf("ws write error: %v", err)
		return
	}

	// Commands are handled one at a time, so replies are written in order from this goroutine.
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		if err := conn.WriteJSON(h.dispatch(ctx, sessionID, inbound)); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, sessionID string, inbound inboundMessage) outboundMessage {
	user := UserFromContext(ctx)
	var (
		view app.SessionView
		err  error
	)
	switch inbound.Type {
	case "get":
		view, err = h.service.Get(ctx, user, sessionID)
	case "answer":
		var payload wsAnswerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
		}
		view, err = h.service.SelectAnswer(ctx, user, sessionID, payload.Index, payload.Answer)
	case "next":
		view, err = h.service.Next(ctx, user, sessionID)
	case "prev":
		view, err = h.service.Prev(ctx, user, sessionID)
	case "verify":
		var payload wsVerifyPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid verify payload"}}
		}
		view, err = h.service.Verify(ctx, user, sessionID, payload.Captcha)
	case "submit":
		view, err = h.service.Submit(ctx, user, sessionID)
	default:
		return outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
	if err != nil {
		status, message := classify(err)
		if status == http.StatusInternalServerError {
			log.Printf("ws %s on session %s: %v", inbound.Type, sessionID, err)
		}
		payload := errorPayload{Message: message}
		if view.ID != "" {
			payload.Session = &view
		}
		return outboundMessage{Type: "error", Payload: payload}
	}
	return outboundMessage{Type: "session", Payload: view}
}
