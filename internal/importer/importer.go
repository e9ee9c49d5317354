// Package importer builds decks from uploaded CSV or XLSX files.
// Rows are question,answer pairs; a leading header row is detected and
// skipped, and rows without both fields are counted but ignored.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/learnloop/backend/internal/domain/deck"
)

var ErrNoCards = errors.New("import: no usable rows")

// Result reports what an import produced.
type Result struct {
	Deck    *deck.Deck
	Skipped int // rows missing a question or answer
}

// FromCSV reads question,answer rows into a new deck.
func FromCSV(r io.Reader, title string) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, skip them below

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("import: read csv: %w", err)
		}
		rows = append(rows, record)
	}

	return buildDeck(rows, title)
}

// FromXLSX reads the first sheet of a workbook into a new deck.
func FromXLSX(r io.Reader, title string) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("import: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoCards
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("import: read sheet %q: %w", sheets[0], err)
	}

	return buildDeck(rows, title)
}

func buildDeck(rows [][]string, title string) (*Result, error) {
	d := deck.New(title)
	skipped := 0

	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) < 2 {
			skipped++
			continue
		}

		question := strings.TrimSpace(row[0])
		answer := strings.TrimSpace(row[1])
		if question == "" || answer == "" {
			skipped++
			continue
		}

		if err := d.AddCard(question, answer); err != nil {
			skipped++
		}
	}

	if len(d.Cards) == 0 {
		return nil, ErrNoCards
	}
	return &Result{Deck: d, Skipped: skipped}, nil
}

// isHeader detects a "question,answer" style first row.
func isHeader(row []string) bool {
	if len(row) < 2 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	second := strings.ToLower(strings.TrimSpace(row[1]))
	return (first == "question" || first == "term" || first == "front") &&
		(second == "answer" || second == "definition" || second == "back")
}
