package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/maheswari8074/3d-transformations/internal/typeid"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionLookup returns the passphrase hash of a session, or
// ErrSessionNotFound.
type SessionLookup interface {
	PassphraseHash(ctx context.Context, sessionID string) (string, error)
}

type Handler struct {
	service  *Service
	sessions SessionLookup
}

func NewHandler(service *Service, sessions SessionLookup) *Handler {
	return &Handler{service: service, sessions: sessions}
}

type joinRequest struct {
	DisplayName string `json:"displayName"`
	Passphrase  string `json:"passphrase"`
}

type JoinResult struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	User      User   `json:"user"`
}

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Join checks the session passphrase and issues a token for that session.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "displayName is required"})
		return
	}

	hash, err := h.sessions.PassphraseHash(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		slog.Error("join lookup failed", "error", err, "session", sessionID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if err := h.service.CheckPassphrase(hash, req.Passphrase); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid passphrase"})
		return
	}

	userID := typeid.NewUserID()
	token, err := h.service.IssueToken(userID, sessionID, req.DisplayName)
	if err != nil {
		slog.Error("issue token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	slog.Info("user joined session", "user", userID, "session", sessionID)
	writeJSON(w, http.StatusOK, JoinResult{
		Token:     token,
		SessionID: sessionID,
		User:      User{ID: userID, DisplayName: req.DisplayName},
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
