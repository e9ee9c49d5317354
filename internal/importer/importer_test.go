package importer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestFromCSV(t *testing.T) {
	in := strings.Join([]string{
		"question,answer",
		"Capital of France?,Paris",
		"Capital of Italy?,Rome",
		"orphan-question,",
		"lonely-cell",
		", Madrid ",
	}, "\n")

	res, err := FromCSV(strings.NewReader(in), "Capitals")
	if err != nil {
		t.Fatalf("FromCSV: %v", err)
	}

	if res.Deck.Title != "Capitals" {
		t.Errorf("Title = %q, want Capitals", res.Deck.Title)
	}
	if len(res.Deck.Cards) != 2 {
		t.Fatalf("got %d cards, want 2: %+v", len(res.Deck.Cards), res.Deck.Cards)
	}
	if res.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", res.Skipped)
	}
	if res.Deck.Cards[0].Question != "Capital of France?" || res.Deck.Cards[0].Answer != "Paris" {
		t.Errorf("first card = %+v", res.Deck.Cards[0])
	}
}

func TestFromCSVHeaderVariants(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cards  int
	}{
		{"term/definition", "term,definition", 1},
		{"front/back", "Front,Back", 1},
		{"not a header", "What is Go?,A language", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.header + "\nq1,a1"
			res, err := FromCSV(strings.NewReader(in), "T")
			if err != nil {
				t.Fatalf("FromCSV: %v", err)
			}
			if len(res.Deck.Cards) != tt.cards {
				t.Errorf("got %d cards, want %d", len(res.Deck.Cards), tt.cards)
			}
		})
	}
}

func TestFromCSVNoUsableRows(t *testing.T) {
	_, err := FromCSV(strings.NewReader("question,answer\n,\n"), "Empty")
	if !errors.Is(err, ErrNoCards) {
		t.Errorf("err = %v, want ErrNoCards", err)
	}
}

func TestFromXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]string{
		{"question", "answer"},
		{"Capital of Spain?", "Madrid"},
		{"Capital of Japan?", "Tokyo"},
		{"", "orphan"},
	}
	for i, row := range rows {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue(sheet, name, cell); err != nil {
				t.Fatal(err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	res, err := FromXLSX(&buf, "Capitals")
	if err != nil {
		t.Fatalf("FromXLSX: %v", err)
	}
	if len(res.Deck.Cards) != 2 {
		t.Fatalf("got %d cards, want 2: %+v", len(res.Deck.Cards), res.Deck.Cards)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if res.Deck.Cards[1].Answer != "Tokyo" {
		t.Errorf("second card = %+v", res.Deck.Cards[1])
	}
}

func TestFromXLSXNotAWorkbook(t *testing.T) {
	_, err := FromXLSX(strings.NewReader("this is not a zip archive"), "T")
	if err == nil {
		t.Fatal("expected an error for a non-xlsx payload")
	}
}
