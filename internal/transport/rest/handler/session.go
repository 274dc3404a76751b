package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"codeinterview/internal/model"
	"codeinterview/internal/repository"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SessionHandler handles the session CRUD endpoints
type SessionHandler struct {
	sessions repository.SessionRepo
	logger   *zap.SugaredLogger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions repository.SessionRepo, logger *zap.SugaredLogger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// SessionListResponse is the body of GET /api/sessions
type SessionListResponse struct {
	Sessions []*model.Session `json:"sessions"`
	Count    int              `json:"count"`
}

// ParticipantListResponse is the body of GET /api/sessions/{id}/participants
type ParticipantListResponse struct {
	Participants []*model.Participant `json:"participants"`
	Count        int                  `json:"count"`
}

// DeleteSessionResponse is the body of DELETE /api/sessions/{id}
type DeleteSessionResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Create handles POST /api/sessions. An empty body creates a session with
// every default.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	lang, err := model.ParseLanguage(string(req.Language))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidLanguage, "Unsupported language: "+string(req.Language))
		return
	}
	req.Language = lang

	session := h.sessions.Create(r.Context(), req)
	h.logger.Infow("session created", "session", session.ID, "language", session.Language)
	writeJSON(w, http.StatusCreated, session)
}

// List handles GET /api/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List(r.Context())
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: sessions, Count: len(sessions)})
}

// Get handles GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.notFound(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Delete handles DELETE /api/sessions/{id}. Connected participants are
// not notified.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.notFound(w, err)
		return
	}
	h.logger.Infow("session deleted", "session", id)
	writeJSON(w, http.StatusOK, DeleteSessionResponse{Message: "Session deleted successfully", SessionID: id})
}

// Participants handles GET /api/sessions/{id}/participants
func (h *SessionHandler) Participants(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.sessions.Exists(r.Context(), id) {
		h.notFound(w, model.ErrSessionNotFound)
		return
	}
	participants := h.sessions.Participants(r.Context(), id)
	writeJSON(w, http.StatusOK, ParticipantListResponse{Participants: participants, Count: len(participants)})
}

// Code handles GET /api/sessions/{id}/code
func (h *SessionHandler) Code(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.notFound(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SessionCode{Code: session.Code, Language: session.Language})
}

func (h *SessionHandler) notFound(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, model.ErrCodeSessionNotFound, "Session not found")
		return
	}
	h.logger.Errorw("session lookup failed", "error", err)
	writeError(w, http.StatusInternalServerError, "", "Internal server error")
}
