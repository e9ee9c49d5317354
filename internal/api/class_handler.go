package api

import (
	"net/http"

	"github.com/learnloop/backend/internal/domain/class"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateClassRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ClassResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /classes
func (h *Handler) createClass(w http.ResponseWriter, r *http.Request) {
	var req CreateClassRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	c := class.New(req.Name, req.Description)
	if err := h.store.SaveClass(c); err != nil {
		http.Error(w, "failed to save class", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, ClassResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	})
}

// GET /classes
func (h *Handler) listClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.store.ListClasses()
	if err != nil {
		http.Error(w, "failed to load classes", http.StatusInternalServerError)
		return
	}

	response := make([]ClassResponse, len(classes))
	for i, c := range classes {
		response[i] = ClassResponse{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
		}
	}
	respondJSON(w, http.StatusOK, response)
}

// GET /classes/{classID}
func (h *Handler) getClass(w http.ResponseWriter, r *http.Request) {
	classID := r.PathValue("classID")

	c, err := h.store.GetClass(classID)
	if h.handleStoreError(w, err, "class") {
		return
	}

	respondJSON(w, http.StatusOK, ClassResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	})
}

// PUT /classes/{classID}
func (h *Handler) updateClass(w http.ResponseWriter, r *http.Request) {
	classID := r.PathValue("classID")

	var req CreateClassRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	c := &class.Class{
		ID:          classID,
		Name:        req.Name,
		Description: req.Description,
	}
	if h.handleStoreError(w, h.store.UpdateClass(c), "class") {
		return
	}

	respondJSON(w, http.StatusOK, ClassResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	})
}

// DELETE /classes/{classID}
func (h *Handler) deleteClass(w http.ResponseWriter, r *http.Request) {
	classID := r.PathValue("classID")

	if h.handleStoreError(w, h.store.DeleteClass(classID), "class") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /classes/{classID}/decks
func (h *Handler) listDecksByClass(w http.ResponseWriter, r *http.Request) {
	classID := r.PathValue("classID")

	if _, err := h.store.GetClass(classID); h.handleStoreError(w, err, "class") {
		return
	}

	decks, err := h.store.ListDecksByClass(classID)
	if err != nil {
		http.Error(w, "failed to load decks", http.StatusInternalServerError)
		return
	}

	response := make([]DeckResponse, len(decks))
	for i, d := range decks {
		response[i] = DeckResponse{
			ID:      d.ID,
			Title:   d.Title,
			ClassID: d.ClassID,
		}
	}
	respondJSON(w, http.StatusOK, response)
}
