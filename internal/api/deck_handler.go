package api

import (
	"net/http"

	"github.com/learnloop/backend/internal/domain/deck"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateDeckRequest struct {
	Title   string      `json:"title"`
	ClassID *string     `json:"class_id,omitempty"`
	Cards   []CardInput `json:"cards,omitempty"`
}

type CardInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type DeckResponse struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	ClassID   *string        `json:"class_id,omitempty"`
	CardCount int            `json:"card_count"`
	Cards     []CardResponse `json:"cards,omitempty"`
}

type CardResponse struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /decks
func (h *Handler) createDeck(w http.ResponseWriter, r *http.Request) {
	var req CreateDeckRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	if req.ClassID != nil && *req.ClassID != "" {
		if _, err := h.store.GetClass(*req.ClassID); h.handleStoreError(w, err, "class") {
			return
		}
	} else {
		req.ClassID = nil
	}

	d := deck.NewWithClass(req.Title, req.ClassID)
	for _, c := range req.Cards {
		if err := d.AddCard(c.Question, c.Answer); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := h.store.SaveDeck(d); err != nil {
		http.Error(w, "failed to save deck", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, deckResponse(d, true))
}

// GET /decks
func (h *Handler) listDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.store.ListDecks()
	if err != nil {
		http.Error(w, "failed to load decks", http.StatusInternalServerError)
		return
	}

	response := make([]DeckResponse, len(decks))
	for i, d := range decks {
		response[i] = deckResponse(d, false)
	}
	respondJSON(w, http.StatusOK, response)
}

// GET /decks/{deckID}
func (h *Handler) getDeck(w http.ResponseWriter, r *http.Request) {
	deckID := r.PathValue("deckID")

	d, err := h.store.GetDeck(deckID)
	if h.handleStoreError(w, err, "deck") {
		return
	}

	respondJSON(w, http.StatusOK, deckResponse(d, true))
}

// DELETE /decks/{deckID}
func (h *Handler) deleteDeck(w http.ResponseWriter, r *http.Request) {
	deckID := r.PathValue("deckID")

	if h.handleStoreError(w, h.store.DeleteDeck(deckID), "deck") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PATCH /decks/{deckID}/class
type UpdateDeckClassRequest struct {
	ClassID *string `json:"class_id"`
}

func (h *Handler) updateDeckClass(w http.ResponseWriter, r *http.Request) {
	deckID := r.PathValue("deckID")

	var req UpdateDeckClassRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := h.store.GetDeck(deckID)
	if h.handleStoreError(w, err, "deck") {
		return
	}

	if req.ClassID != nil {
		if _, err := h.store.GetClass(*req.ClassID); h.handleStoreError(w, err, "class") {
			return
		}
	}

	d.SetClass(req.ClassID)
	if h.handleStoreError(w, h.store.UpdateDeckClass(deckID, req.ClassID), "deck") {
		return
	}

	respondJSON(w, http.StatusOK, deckResponse(d, false))
}

// POST /decks/{deckID}/cards
func (h *Handler) addCard(w http.ResponseWriter, r *http.Request) {
	deckID := r.PathValue("deckID")

	d, err := h.store.GetDeck(deckID)
	if h.handleStoreError(w, err, "deck") {
		return
	}

	var req CardInput
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := d.AddCard(req.Question, req.Answer); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	newCard := d.Cards[len(d.Cards)-1]
	if err := h.store.AddCard(deckID, newCard); err != nil {
		http.Error(w, "failed to save card", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, CardResponse{
		ID:       newCard.ID,
		Question: newCard.Question,
		Answer:   newCard.Answer,
	})
}

// DELETE /decks/{deckID}/cards/{cardID}
func (h *Handler) deleteCard(w http.ResponseWriter, r *http.Request) {
	deckID := r.PathValue("deckID")
	cardID := r.PathValue("cardID")

	d, err := h.store.GetDeck(deckID)
	if h.handleStoreError(w, err, "deck") {
		return
	}

	// The card must belong to the deck in the path.
	if d.CardIndex(cardID) < 0 {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}

	if h.handleStoreError(w, h.store.DeleteCard(cardID), "card") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func deckResponse(d *deck.Deck, includeCards bool) DeckResponse {
	resp := DeckResponse{
		ID:        d.ID,
		Title:     d.Title,
		ClassID:   d.ClassID,
		CardCount: len(d.Cards),
	}
	if includeCards {
		resp.Cards = make([]CardResponse, len(d.Cards))
		for i, c := range d.Cards {
			resp.Cards[i] = CardResponse{
				ID:       c.ID,
				Question: c.Question,
				Answer:   c.Answer,
			}
		}
	}
	return resp
}
