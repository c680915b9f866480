// Package api provides the HTTP handlers for the session query protocol.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fedsql/internal/domain"
	"fedsql/internal/middleware"
	"fedsql/internal/session"
)

// Handler serves the session lifecycle and query endpoints.
type Handler struct {
	sessions *session.Registry
	logger   *slog.Logger
}

// NewHandler creates a Handler around the session registry.
func NewHandler(sessions *session.Registry, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, logger: logger}
}

// Routes returns the session protocol router, intended to be mounted under
// an authenticated prefix.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sessions", h.openSession)
	r.Post("/sessions/{id}/query", h.query)
	r.Post("/sessions/{id}/fetch", h.fetch)
	r.Post("/sessions/{id}/cancel", h.cancel)
	r.Delete("/sessions/{id}", h.closeSession)
	return r
}

type openSessionRequest struct {
	Database string `json:"database,omitempty"`
}

type openSessionResponse struct {
	SessionID string `json:"session_id"`
	User      string `json:"user"`
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no authenticated user")
		return
	}

	var req openSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	s := h.sessions.Open(user, req.Database)
	h.logger.Info("session opened", "session_id", s.ID(), "user", user)
	writeJSON(w, http.StatusCreated, openSessionResponse{SessionID: s.ID(), User: user})
}

type queryRequest struct {
	Statements []string `json:"statements"`
	FetchSize  int      `json:"fetch_size"`
	MaxRows    int      `json:"max_rows"`
}

type queryResponse struct {
	SessionID string        `json:"session_id"`
	Kind      string        `json:"kind"`
	Schema    domain.Schema `json:"schema"`
	Rows      []domain.Row  `json:"rows,omitempty"`
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.Query(r.Context(), req.Statements, req.FetchSize, req.MaxRows)
	if err != nil {
		h.logger.Warn("query failed", "session_id", s.ID(), "error", err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		SessionID: s.ID(),
		Kind:      string(result.Kind),
		Schema:    result.Schema,
		Rows:      result.Rows,
	})
}

type fetchResponse struct {
	SessionID string        `json:"session_id"`
	Schema    domain.Schema `json:"schema"`
	Rows      []domain.Row  `json:"rows"`
	HasMore   bool          `json:"has_more"`
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	batch, err := s.Fetch(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rows := batch.Rows
	if rows == nil {
		rows = []domain.Row{}
	}
	writeJSON(w, http.StatusOK, fetchResponse{
		SessionID: s.ID(),
		Schema:    batch.Schema,
		Rows:      rows,
		HasMore:   batch.HasMore,
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.Cancel()
	h.logger.Info("session canceled", "session_id", s.ID())
	writeJSON(w, http.StatusAccepted, map[string]string{"session_id": s.ID(), "status": "canceling"})
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Close(id); err != nil {
		writeDomainError(w, err)
		return
	}
	h.logger.Info("session closed", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness. Mounted outside the authenticated prefix.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"code": status, "message": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, httpStatusFromDomainError(err), err.Error())
}
