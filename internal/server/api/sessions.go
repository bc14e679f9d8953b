package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/session"
)

// Sessions is the part of the app the session endpoints drive.
type Sessions interface {
	StartSession(userID, slug string) (session.Snapshot, error)
	Snapshot() (session.Snapshot, error)
	OfferFrame(f *pose.Frame) (bool, error)
	ResetSession(ctx context.Context) error
	FinishSession(ctx context.Context) (session.Summary, bool, error)
}

// SessionHandler handles the /api/session endpoints.
type SessionHandler struct {
	sessions Sessions
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(s Sessions) *SessionHandler {
	return &SessionHandler{sessions: s}
}

type startSessionRequest struct {
	Exercise string `json:"exercise"`
	UserID   string `json:"user_id"`
}

type frameResponse struct {
	Accepted bool `json:"accepted"`
	// Replaced is set when the frame displaced one not processed yet.
	Replaced bool `json:"replaced"`
}

type finishResponse struct {
	Summary session.Summary `json:"summary"`
	Saved   bool            `json:"saved"`
}

// writeSessionError maps session sentinels to status codes.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrNoSession):
		writeError(w, http.StatusNotFound, "No active session")
	case errors.Is(err, exercise.ErrUnknownExercise):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrNoUser):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrStopped):
		writeError(w, http.StatusConflict, "Session already finished")
	default:
		log.Error().Err(err).Msg("session request failed")
		writeError(w, http.StatusInternalServerError, "Session request failed")
	}
}

// Start handles POST /api/session.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Exercise == "" {
		writeError(w, http.StatusBadRequest, "Exercise is required")
		return
	}

	snap, err := h.sessions.StartSession(req.UserID, req.Exercise)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// Get handles GET /api/session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Snapshot()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Frame handles POST /api/session/frames. The body is a landmark frame:
// {"timestamp": ms, "joints": {"left_wrist": {"x": 1, "y": 2}, ...}}.
func (h *SessionHandler) Frame(w http.ResponseWriter, r *http.Request) {
	var f pose.Frame
	if err := decodeJSON(w, r, &f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Timestamp < 0 {
		writeError(w, http.StatusBadRequest, "Timestamp must not be negative")
		return
	}

	fresh, err := h.sessions.OfferFrame(&f)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, frameResponse{Accepted: true, Replaced: !fresh})
}

// Reset handles POST /api/session/reset.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.ResetSession(r.Context()); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Finish handles DELETE /api/session.
func (h *SessionHandler) Finish(w http.ResponseWriter, r *http.Request) {
	sum, saved, err := h.sessions.FinishSession(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, finishResponse{Summary: sum, Saved: saved})
}
