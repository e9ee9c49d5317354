package class

import "github.com/learnloop/backend/internal/id"

// Class groups related decks together, e.g. "Biology 101".
// Hierarchy: Class → Decks → Cards.
type Class struct {
	ID          string
	Name        string
	Description string
}

// New creates a Class with a generated ID.
func New(name, description string) *Class {
	return &Class{
		ID:          id.GenerateID(),
		Name:        name,
		Description: description,
	}
}
