package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/learnloop/backend/internal/importer"
)

const maxImportSize = 10 << 20 // 10 MiB

type ImportResponse struct {
	Deck    DeckResponse `json:"deck"`
	Skipped int          `json:"skipped"`
}

// POST /decks/import
//
// Multipart form: "file" is a .csv or .xlsx export, "title" overrides the
// deck title (defaults to the file name without extension).
func (h *Handler) importDeck(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	var result *importer.Result
	switch ext {
	case ".csv":
		result, err = importer.FromCSV(file, title)
	case ".xlsx":
		result, err = importer.FromXLSX(file, title)
	default:
		http.Error(w, "unsupported file type, expected .csv or .xlsx", http.StatusBadRequest)
		return
	}
	if errors.Is(err, importer.ErrNoCards) {
		http.Error(w, "file contains no usable cards", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("deck import failed", "filename", header.Filename, "error", err)
		http.Error(w, "failed to parse file", http.StatusBadRequest)
		return
	}

	if err := h.store.SaveDeck(result.Deck); err != nil {
		http.Error(w, "failed to save deck", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, ImportResponse{
		Deck:    deckResponse(result.Deck, true),
		Skipped: result.Skipped,
	})
}
