package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/maheswari8074/3d-transformations/internal/auth"
	"github.com/maheswari8074/3d-transformations/internal/collab"
	"github.com/maheswari8074/3d-transformations/internal/script"
	"github.com/maheswari8074/3d-transformations/internal/transform"
)

const maxBodySize = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name       string `json:"name"`
	Passphrase string `json:"passphrase"`
}

type transformsRequest struct {
	Requests []transform.Request `json:"requests"`
}

type scriptRequest struct {
	Source string `json:"source"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.service.Create(r.Context(), req.Name, req.Passphrase)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["sessionId"]); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.State(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Transforms(w http.ResponseWriter, r *http.Request) {
	var req transformsRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Apply(r.Context(), mux.Vars(r)["sessionId"], auth.UserIDFromContext(r.Context()), req.Requests)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Reset(r.Context(), mux.Vars(r)["sessionId"], auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Script(w http.ResponseWriter, r *http.Request) {
	var req scriptRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.RunScript(r.Context(), mux.Vars(r)["sessionId"], auth.UserIDFromContext(r.Context()), req.Source)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, collab.ErrSessionClosed):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrNoRequests),
		errors.Is(err, transform.ErrUnknownKind), errors.Is(err, transform.ErrInvalidAxis),
		errors.Is(err, transform.ErrInvalidShear), errors.Is(err, script.ErrInvalidScript):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, script.ErrTimeout):
		writeJSON(w, http.StatusRequestTimeout, map[string]string{"error": err.Error()})
	case errors.Is(err, script.ErrBusy):
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
