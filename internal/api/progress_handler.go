package api

import (
	"errors"
	"net/http"

	"github.com/learnloop/backend/internal/domain/progress"
	"github.com/learnloop/backend/internal/store"
)

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /users/{userID}/decks/{deckID}/progress
//
// Absence of prior progress is not an error: the body is null so clients
// can treat "no record" and "empty record" the same way.
func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	deckID := r.PathValue("deckID")

	rec, err := h.store.LoadProgress(r.Context(), userID, deckID)
	if errors.Is(err, store.ErrNotFound) {
		respondJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		h.logger.Error("progress load failed", "error", err, "user_id", userID, "deck_id", deckID)
		http.Error(w, "failed to load progress", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// PATCH /users/{userID}/decks/{deckID}/progress
//
// The body is a partial patch; only the top-level groups present are
// merged into the stored record.
func (h *Handler) patchProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	deckID := r.PathValue("deckID")

	var patch progress.Patch
	if !decodeJSON(w, r, &patch) {
		return
	}

	if patch.IsEmpty() {
		http.Error(w, "patch is empty", http.StatusBadRequest)
		return
	}

	if err := h.store.SaveProgressPatch(r.Context(), userID, deckID, patch); err != nil {
		h.logger.Error("progress patch failed", "error", err, "user_id", userID, "deck_id", deckID)
		http.Error(w, "failed to save progress", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
