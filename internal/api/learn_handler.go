package api

import (
	"errors"
	"net/http"

	"github.com/learnloop/backend/internal/domain/learnsession"
	"github.com/learnloop/backend/internal/domain/progress"
	"github.com/learnloop/backend/internal/service"
	"github.com/learnloop/backend/internal/store"
)

// ── Request / Response types ────────────────────────────────────────────────

type StartSessionRequest struct {
	DeckID string `json:"deck_id"`
	UserID string `json:"user_id,omitempty"` // resolved server-side when empty
}

type SessionResponse struct {
	ID           string               `json:"id"`
	State        string               `json:"state"`
	UserID       string               `json:"user_id"`
	DeckID       string               `json:"deck_id"`
	DeckTitle    string               `json:"deck_title"`
	TotalCards   int                  `json:"total_cards"`
	CurrentIndex int                  `json:"current_index"`
	QuestionType string               `json:"question_type"`
	Card         *SessionCard         `json:"card,omitempty"`
	MasteredIDs  []string             `json:"mastered_ids"`
	IncorrectIDs []string             `json:"incorrect_ids"`
	HintLevel    int                  `json:"hint_level"`
	Hint         string               `json:"hint,omitempty"`
	Preferences  progress.Preferences `json:"preferences"`
}

// SessionCard is the current card as shown to the learner: the answer is
// hidden, options are included only when relevant.
type SessionCard struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

type AnswerResponse struct {
	Feedback       *learnsession.Feedback `json:"feedback"`
	AdvanceAfterMS int64                  `json:"advance_after_ms"`
}

type HintResponse struct {
	Hint      string `json:"hint"`
	HintLevel int    `json:"hint_level"`
}

type RandomResponse struct {
	Moved   bool            `json:"moved"`
	Session SessionResponse `json:"session"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /learn/sessions
func (h *Handler) startLearnSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.DeckID == "" {
		http.Error(w, "deck_id is required", http.StatusBadRequest)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = h.identity.Resolve(r.Context())
	}

	session := h.learn.StartSession(r.Context(), userID, req.DeckID)

	if session.State() == learnsession.StateError {
		if errors.Is(session.Err(), store.ErrNotFound) {
			http.Error(w, "deck not found", http.StatusNotFound)
			return
		}
		h.logger.Error("session load failed", "deck_id", req.DeckID, "error", session.Err())
		respondJSON(w, http.StatusBadGateway, map[string]string{
			"state": string(learnsession.StateError),
			"error": session.Err().Error(),
		})
		return
	}

	respondJSON(w, http.StatusCreated, sessionResponse(session))
}

// GET /learn/sessions/{sessionID}
func (h *Handler) getLearnSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.learn.Get(r.PathValue("sessionID"))
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse(session))
}

// POST /learn/sessions/{sessionID}/answers
func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	var req AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	feedback, err := h.learn.SubmitAnswer(sessionID, req.Answer)
	if h.handleSessionError(w, err) {
		return
	}

	respondJSON(w, http.StatusOK, AnswerResponse{
		Feedback:       feedback,
		AdvanceAfterMS: learnsession.FeedbackDuration.Milliseconds(),
	})
}

// POST /learn/sessions/{sessionID}/advance
func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	if h.handleSessionError(w, h.learn.Advance(sessionID)) {
		return
	}
	h.respondWithSession(w, sessionID)
}

// POST /learn/sessions/{sessionID}/skip
func (h *Handler) skip(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	if h.handleSessionError(w, h.learn.Skip(sessionID)) {
		return
	}
	h.respondWithSession(w, sessionID)
}

// POST /learn/sessions/{sessionID}/random
func (h *Handler) jumpToRandom(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	moved, err := h.learn.JumpToRandom(sessionID)
	if h.handleSessionError(w, err) {
		return
	}

	session, err := h.learn.Get(sessionID)
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, RandomResponse{
		Moved:   moved,
		Session: sessionResponse(session),
	})
}

// POST /learn/sessions/{sessionID}/hint
func (h *Handler) showHint(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	hint, err := h.learn.ShowHint(sessionID)
	if h.handleSessionError(w, err) {
		return
	}

	session, err := h.learn.Get(sessionID)
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, HintResponse{
		Hint:      hint,
		HintLevel: session.HintLevel,
	})
}

// PATCH /learn/sessions/{sessionID}/preferences
func (h *Handler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	var prefs progress.Preferences
	if !decodeJSON(w, r, &prefs) {
		return
	}

	if h.handleSessionError(w, h.learn.UpdatePreferences(sessionID, prefs)) {
		return
	}
	h.respondWithSession(w, sessionID)
}

// DELETE /learn/sessions/{sessionID}
func (h *Handler) endLearnSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	err := h.learn.EndSession(r.Context(), sessionID)
	if errors.Is(err, service.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("session flush failed", "session_id", sessionID, "error", err)
		http.Error(w, "failed to flush session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Helpers ─────────────────────────────────────────────────────────────────

func (h *Handler) handleSessionError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, service.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return true
	}
	if errors.Is(err, learnsession.ErrNotReady) {
		http.Error(w, "session is not ready", http.StatusConflict)
		return true
	}
	h.logger.Error("session operation failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
	return true
}

func (h *Handler) respondWithSession(w http.ResponseWriter, sessionID string) {
	session, err := h.learn.Get(sessionID)
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse(session))
}

func sessionResponse(s *learnsession.Session) SessionResponse {
	snapshot := s.Snapshot()

	resp := SessionResponse{
		ID:           s.ID,
		State:        string(s.State()),
		UserID:       s.UserID,
		DeckID:       s.Deck.ID,
		DeckTitle:    s.Deck.Title,
		TotalCards:   len(s.Deck.Cards),
		CurrentIndex: s.CurrentIndex,
		QuestionType: string(s.QuestionType()),
		MasteredIDs:  snapshot.MasteredIDs,
		IncorrectIDs: snapshot.IncorrectIDs,
		HintLevel:    s.HintLevel,
		Hint:         s.Hint,
		Preferences:  s.Prefs,
	}

	if card := s.Card(); card != nil {
		sc := &SessionCard{
			ID:       card.ID,
			Question: card.Question,
		}
		if s.QuestionType() == learnsession.TypeMultipleChoice && s.Prefs.ShowOptions {
			sc.Options = card.Options
		}
		resp.Card = sc
	}
	return resp
}
