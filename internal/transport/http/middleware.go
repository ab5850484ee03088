package http

import (
	"context"
	"net/http"
	"os"
	"strings"

	"course-quiz-service/internal/auth"
	"course-quiz-service/internal/domain"
)

type contextKey string

const userKey contextKey = "user"

// AuthMiddleware resolves bearer tokens into a domain.UserSession on the request context.
type AuthMiddleware struct {
	auth *auth.Authenticator
}

func NewAuthMiddleware(a *auth.Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: a}
}

// RequireUser validates the JWT from the Authorization header or the token query param.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAdmin is RequireUser restricted to tokens carrying the admin claim.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		if !user.Admin {
			writeError(w, domain.ErrForbidden, nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (domain.UserSession, bool) {
	token := extractBearerToken(r)
	if token == "" {
		// WebSocket clients cannot set headers from the browser.
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeError(w, domain.ErrUnauthenticated, nil)
		return domain.UserSession{}, false
	}
	user, err := m.auth.Parse(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorPayload{Message: err.Error()})
		return domain.UserSession{}, false
	}
	return user, true
}

// WithUser stores the caller on ctx.
func WithUser(ctx context.Context, user domain.UserSession) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the caller stored by the auth middleware.
func UserFromContext(ctx context.Context) domain.UserSession {
	if user, ok := ctx.Value(userKey).(domain.UserSession); ok {
		return user
	}
	return domain.UserSession{}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
