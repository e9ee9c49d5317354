package store

import (
	"context"
	"errors"

	"github.com/learnloop/backend/internal/domain/class"
	"github.com/learnloop/backend/internal/domain/deck"
	"github.com/learnloop/backend/internal/domain/progress"
)

var ErrNotFound = errors.New("not found")

// Store is the persistence boundary. LoadProgress returns ErrNotFound when
// a user has no prior state for a deck; SaveProgressPatch merges only the
// groups present in the patch and is idempotent.
type Store interface {
	SaveClass(c *class.Class) error
	GetClass(id string) (*class.Class, error)
	ListClasses() ([]*class.Class, error)
	UpdateClass(c *class.Class) error
	DeleteClass(id string) error

	SaveDeck(d *deck.Deck) error
	GetDeck(id string) (*deck.Deck, error)
	ListDecks() ([]*deck.Deck, error)
	ListDecksByClass(classID string) ([]*deck.Deck, error)
	UpdateDeckClass(deckID string, classID *string) error
	DeleteDeck(id string) error
	AddCard(deckID string, c deck.Card) error
	DeleteCard(cardID string) error

	LoadProgress(ctx context.Context, userID, deckID string) (*progress.Record, error)
	SaveProgressPatch(ctx context.Context, userID, deckID string, p progress.Patch) error

	Close() error
}
