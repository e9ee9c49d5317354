// internal/api/router.go
package api

import "net/http"

// RegisterRoutes wires every endpoint onto the mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Classes
	mux.HandleFunc("POST /classes", h.createClass)
	mux.HandleFunc("GET /classes", h.listClasses)
	mux.HandleFunc("GET /classes/{classID}", h.getClass)
	mux.HandleFunc("PUT /classes/{classID}", h.updateClass)
	mux.HandleFunc("DELETE /classes/{classID}", h.deleteClass)
	mux.HandleFunc("GET /classes/{classID}/decks", h.listDecksByClass)

	// Decks
	mux.HandleFunc("POST /decks", h.createDeck)
	mux.HandleFunc("GET /decks", h.listDecks)
	mux.HandleFunc("GET /decks/{deckID}", h.getDeck)
	mux.HandleFunc("DELETE /decks/{deckID}", h.deleteDeck)
	mux.HandleFunc("PATCH /decks/{deckID}/class", h.updateDeckClass)
	mux.HandleFunc("POST /decks/import", h.importDeck)

	// Cards
	mux.HandleFunc("POST /decks/{deckID}/cards", h.addCard)
	mux.HandleFunc("DELETE /decks/{deckID}/cards/{cardID}", h.deleteCard)

	// Progress
	mux.HandleFunc("GET /users/{userID}/decks/{deckID}/progress", h.getProgress)
	mux.HandleFunc("PATCH /users/{userID}/decks/{deckID}/progress", h.patchProgress)

	// Learn sessions
	mux.HandleFunc("POST /learn/sessions", h.startLearnSession)
	mux.HandleFunc("GET /learn/sessions/{sessionID}", h.getLearnSession)
	mux.HandleFunc("POST /learn/sessions/{sessionID}/answers", h.submitAnswer)
	mux.HandleFunc("POST /learn/sessions/{sessionID}/advance", h.advance)
	mux.HandleFunc("POST /learn/sessions/{sessionID}/skip", h.skip)
	mux.HandleFunc("POST /learn/sessions/{sessionID}/random", h.jumpToRandom)
	mux.HandleFunc("POST /learn/sessions/{sessionID}/hint", h.showHint)
	mux.HandleFunc("PATCH /learn/sessions/{sessionID}/preferences", h.updatePreferences)
	mux.HandleFunc("DELETE /learn/sessions/{sessionID}", h.endLearnSession)
}
