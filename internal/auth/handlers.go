package auth

import (
	"errors"
	"net/http"

	"log/slog"

	"rentalcore/internal/httpx"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role"`
}

// LoginHandler serves POST /login.
func LoginHandler(svc *Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := httpx.Decode(r, &req); err != nil {
			status, msg, _ := Describe(ErrUnauthenticated)
			httpx.WriteError(w, status, msg)
			return
		}
		token, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			status, msg, _ := Describe(err)
			if status >= http.StatusInternalServerError {
				logger.Error("login", "err", err)
			}
			httpx.WriteError(w, status, msg)
			return
		}
		logger.Info("user logged in", "username", req.Username)
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
	})
}

// RegisterHandler serves POST /register.
func RegisterHandler(svc *Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := httpx.Decode(r, &req); err != nil {
			_, msg, _ := Describe(ErrInvalidInput)
			if errors.Is(err, httpx.ErrBadBody) {
				msg = err.Error()
			}
			httpx.WriteError(w, http.StatusBadRequest, msg)
			return
		}
		_, err := svc.Register(r.Context(), req.Username, req.Password, req.Role)
		if err != nil {
			status, msg, _ := Describe(err)
			if status >= http.StatusInternalServerError {
				logger.Error("register", "err", err)
			}
			httpx.WriteError(w, status, msg)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
	})
}
