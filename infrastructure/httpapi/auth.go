// Package httpapi hosts the small HTTP surface next to the WebSocket
// endpoint: account registration and login. It exists so the service
// runs standalone; the product's main CRUD API lives elsewhere.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"collab-hub/auth"
	"collab-hub/errors"
	"collab-hub/repositories"
)

type AuthHandler struct {
	users  repositories.IUserRepository
	tokens *auth.TokenManager
	log    *slog.Logger
}

func NewAuthHandler(log *slog.Logger, users repositories.IUserRepository, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, log: log}
}

func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/login", h.login)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := auth.ValidateRegister(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("password hashing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	userID, err := h.users.CreateUser(req.Email, req.Name, hash)
	if err != nil {
		if errors.Is(err, errors.ErrUserAlreadyExists) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.log.Error("user creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"userId": userID})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := auth.ValidateLogin(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetUserByEmail(req.Email)
	if err != nil {
		// Same answer for unknown account and wrong password.
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.Active {
		writeError(w, http.StatusUnauthorized, errors.ErrInactiveAccount.Error())
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Name, user.Email, user.Role)
	if err != nil {
		h.log.Error("token generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
