package api

import (
	"context"
	"net/http"
	"strings"

	"cloudbox/internal/auth"
)

type contextKey string

const userContextKey = contextKey("user")

// AuthMiddleware resolves the request to an acting user. Basic
// credentials are checked against the account registry; Bearer tokens are
// the JWTs issued by the login endpoint. Either way the handler below
// sees only a username.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := s.authenticate(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="cloudbox"`)
			http.Error(w, "Invalid or missing credentials", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) authenticate(r *http.Request) (string, bool) {
	if username, password, ok := r.BasicAuth(); ok {
		if err := s.core.Authenticate(username, password); err != nil {
			return "", false
		}
		return username, true
	}

	authHeader := r.Header.Get("Authorization")
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" {
		return "", false
	}
	claims, err := auth.VerifyJWT(headerParts[1], s.config.JWT.Secret)
	if err != nil {
		return "", false
	}
	// The account may have been deleted after the token was issued.
	if !s.core.UserExists(claims.Username) {
		return "", false
	}
	return claims.Username, true
}

func GetUserFromContext(ctx context.Context) string {
	if username, ok := ctx.Value(userContextKey).(string); ok {
		return username
	}
	return ""
}
