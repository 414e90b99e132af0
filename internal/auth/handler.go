package auth

import (
	"encoding/json"
	"io"
	"net/http"
)

// Handler handles token endpoints.
type Handler struct {
	tokenSvc *TokenService
}

func NewHandler(tokenSvc *TokenService) *Handler {
	return &Handler{tokenSvc: tokenSvc}
}

// RegisterRoutes registers auth routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/token/refresh", h.HandleRefresh)
}

// RegisterDevRoutes registers the unauthenticated token minting route. Only
// mount it in dev mode.
func (h *Handler) RegisterDevRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/dev/token", h.HandleDevToken)
}

// HandleRefresh exchanges a refresh token for new access + refresh tokens.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
		return
	}

	identity, err := h.tokenSvc.ValidateToken(req.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "invalid refresh token",
		})
		return
	}

	if identity.TokenType != TokenTypeRefresh {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "refresh token required",
		})
		return
	}

	h.issue(w, identity)
}

// HandleDevToken mints tokens for the posted identity. The user field is the
// raw record the dashboard backend would return, role included.
func (h *Handler) HandleDevToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string         `json:"user_id"`
		Email  string         `json:"email"`
		User   map[string]any `json:"user"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "user_id is required",
		})
		return
	}

	h.issue(w, &Identity{UserID: req.UserID, Email: req.Email, User: req.User})
}

func (h *Handler) issue(w http.ResponseWriter, identity *Identity) {
	accessToken, err := h.tokenSvc.CreateAccessToken(identity)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "token creation failed",
		})
		return
	}

	refreshToken, err := h.tokenSvc.CreateRefreshToken(identity)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "token creation failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
