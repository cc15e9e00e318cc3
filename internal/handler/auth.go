package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"lumina/internal/auth"
	"lumina/internal/domain"
)

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is returned by signup and login: the bearer token plus the
// identity it resolves to.
type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// signUp handles POST /api/auth/signup.
func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be valid JSON")
		return
	}

	user, token, err := s.auth.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeError(w, http.StatusConflict, "conflict", "an account with this email already exists")
			return
		}
		s.writeDomainError(w, err)
		return
	}

	s.sessions.NotifyLogin(user)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// signIn handles POST /api/auth/login.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be valid JSON")
		return
	}

	user, token, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
			return
		}
		s.writeDomainError(w, err)
		return
	}

	s.sessions.NotifyLogin(user)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// signOut handles POST /api/auth/logout. The session manager only reports
// success after the provider confirmed the session is gone; a store failure
// here means the caller is still logged in and must retry.
func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context(), sessionToken(r.Context())); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
