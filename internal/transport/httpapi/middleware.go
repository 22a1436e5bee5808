package httpapi

import (
	"context"
	"net/http"
	"strings"

	"sentinela/internal/usecase/session"
)

type sessionKey struct{}

// sessionToken reads the client token, preferring the Authorization bearer
// form and falling back to the explicit header the panel uses.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Session-Token"))
}

// requireSession resolves the token and stashes the session on the request
// context. Unknown or missing tokens get 401.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing session token"})
			return
		}
		sess, err := s.svc.Sessions().Get(token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}
