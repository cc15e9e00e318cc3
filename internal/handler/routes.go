package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lumina/internal/domain"
)

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// Routes assembles the API router. Everything under /api/entries and the
// logout endpoint require a live session; signup, login and the health
// check do not.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.signUp)
		r.Post("/auth/login", s.signIn)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Post("/auth/logout", s.signOut)

			r.Route("/entries", func(r chi.Router) {
				r.Get("/", s.listEntries)
				r.Post("/", s.saveEntry)
				r.Get("/{id}", s.getEntry)
				r.Put("/{id}", s.saveEntry)
				r.Delete("/{id}", s.deleteEntry)
				r.Post("/{id}/reflect", s.reflect)
			})
		})
	})

	return r
}

// requireSession resolves the bearer token through the session manager and
// injects the identity into the request context. Missing or unresolvable
// tokens are rejected with 401 before any handler runs.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "not_authenticated", "missing bearer token")
			return
		}
		user := s.sessions.CurrentUser(r.Context(), token)
		if user == nil {
			writeError(w, http.StatusUnauthorized, "not_authenticated", "invalid or expired session")
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authz, "Bearer ")
}

// sessionUser returns the identity placed on the context by requireSession.
func sessionUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

func sessionToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
