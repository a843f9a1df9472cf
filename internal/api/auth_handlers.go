package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/careloop/clinic-booking/internal/auth"
	"github.com/careloop/clinic-booking/internal/booking"
)

func signUpHandler(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.Email == "" || req.Password == "" || req.Name == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "email, password and name are required")
			return
		}

		role := booking.Role(strings.ToLower(req.Role))
		if role != booking.RoleDoctor && role != booking.RolePatient {
			writeError(w, http.StatusBadRequest, "invalid_role", "role must be doctor or patient")
			return
		}

		user, err := authSvc.SignUp(r.Context(), req.Email, req.Password, role, req.Name)
		if err != nil {
			if errors.Is(err, auth.ErrEmailTaken) {
				writeError(w, http.StatusConflict, "email_taken", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toUserResponse(user))
	}
}

func signInHandler(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		token, user, err := authSvc.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, SignInResponse{
			Token: token,
			User:  toUserResponse(user),
		})
	}
}

func signOutHandler(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token != "" {
			if err := authSvc.SignOut(r.Context(), token); err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func currentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := SessionUser(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid_session", "no session identity")
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(user))
	}
}
