package deck

import (
	"errors"

	"github.com/learnloop/backend/internal/id"
)

// Card is a single flashcard. Question and Answer are authored server-side
// and read-only within a learn session; Options is the presented answer set
// and is only ever populated by the option generator.
type Card struct {
	ID       string
	Question string
	Answer   string
	Options  []string
}

// Deck is a named collection of flashcards.
type Deck struct {
	ID      string
	Title   string
	ClassID *string // optional - nil for decks outside any class
	Cards   []Card
}

func New(title string) *Deck {
	return &Deck{
		ID:      id.GenerateID(),
		Title:   title,
		ClassID: nil,
		Cards:   []Card{},
	}
}

func NewWithClass(title string, classID *string) *Deck {
	d := New(title)
	d.ClassID = classID
	return d
}

func (d *Deck) SetClass(classID *string) {
	d.ClassID = classID
}

// AddCard appends a new card with a generated ID.
func (d *Deck) AddCard(question, answer string) error {
	if question == "" {
		return errors.New("card question cannot be empty")
	}
	if answer == "" {
		return errors.New("card answer cannot be empty")
	}

	d.Cards = append(d.Cards, Card{
		ID:       id.GenerateID(),
		Question: question,
		Answer:   answer,
	})
	return nil
}

// CardIndex returns the position of the card with the given ID, or -1.
func (d *Deck) CardIndex(cardID string) int {
	for i, c := range d.Cards {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
