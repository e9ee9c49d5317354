// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "modernc.org/sqlite"

	"github.com/learnloop/backend/internal/domain/class"
	"github.com/learnloop/backend/internal/domain/deck"
	"github.com/learnloop/backend/internal/domain/progress"
)

const schema = `
CREATE TABLE IF NOT EXISTS classes (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    class_id TEXT,
    FOREIGN KEY (class_id) REFERENCES classes(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    deck_id TEXT NOT NULL,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    position INTEGER NOT NULL,
    FOREIGN KEY (deck_id) REFERENCES decks(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS learn_progress (
    user_id TEXT NOT NULL,
    deck_id TEXT NOT NULL,
    mastered TEXT NOT NULL,
    incorrect TEXT NOT NULL,
    current_index INTEGER NOT NULL,
    hint_level INTEGER NOT NULL,
    hint TEXT NOT NULL,
    preferences TEXT NOT NULL,
    PRIMARY KEY (user_id, deck_id)
);

CREATE TABLE IF NOT EXISTS card_options (
    user_id TEXT NOT NULL,
    deck_id TEXT NOT NULL,
    card_id TEXT NOT NULL,
    distractors TEXT NOT NULL,
    PRIMARY KEY (user_id, deck_id, card_id)
);
`

// Compile-time check: *SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Classes
// ============================================================================

func (s *SQLiteStore) SaveClass(c *class.Class) error {
	_, err := s.db.Exec("INSERT INTO classes (id, name, description) VALUES (?, ?, ?)", c.ID, c.Name, c.Description)
	return err
}

func (s *SQLiteStore) GetClass(id string) (*class.Class, error) {
	var c class.Class
	err := s.db.QueryRow("SELECT id, name, description FROM classes WHERE id = ?", id).Scan(&c.ID, &c.Name, &c.Description)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) ListClasses() ([]*class.Class, error) {
	rows, err := s.db.Query("SELECT id, name, description FROM classes")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []*class.Class
	for rows.Next() {
		var c class.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		classes = append(classes, &c)
	}
	return classes, rows.Err()
}

func (s *SQLiteStore) UpdateClass(c *class.Class) error {
	result, err := s.db.Exec("UPDATE classes SET name = ?, description = ? WHERE id = ?", c.Name, c.Description, c.ID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteClass(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Decks survive class deletion, they just become unassigned.
	if _, err := tx.Exec("UPDATE decks SET class_id = NULL WHERE class_id = ?", id); err != nil {
		return err
	}

	result, err := tx.Exec("DELETE FROM classes WHERE id = ?", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// ============================================================================
// Decks
// ============================================================================

func (s *SQLiteStore) SaveDeck(d *deck.Deck) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT INTO decks (id, title, class_id) VALUES (?, ?, ?)", d.ID, d.Title, d.ClassID); err != nil {
		return err
	}

	for i, c := range d.Cards {
		_, err := tx.Exec(
			"INSERT INTO cards (id, deck_id, question, answer, position) VALUES (?, ?, ?, ?, ?)",
			c.ID, d.ID, c.Question, c.Answer, i,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetDeck(id string) (*deck.Deck, error) {
	var d deck.Deck
	var classID sql.NullString

	err := s.db.QueryRow("SELECT id, title, class_id FROM decks WHERE id = ?", id).Scan(&d.ID, &d.Title, &classID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if classID.Valid {
		d.ClassID = &classID.String
	}

	rows, err := s.db.Query("SELECT id, question, answer FROM cards WHERE deck_id = ? ORDER BY position", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c deck.Card
		if err := rows.Scan(&c.ID, &c.Question, &c.Answer); err != nil {
			return nil, err
		}
		d.Cards = append(d.Cards, c)
	}

	return &d, rows.Err()
}

func (s *SQLiteStore) ListDecks() ([]*deck.Deck, error) {
	return s.listDecks("SELECT id, title, class_id FROM decks")
}

func (s *SQLiteStore) ListDecksByClass(classID string) ([]*deck.Deck, error) {
	return s.listDecks("SELECT id, title, class_id FROM decks WHERE class_id = ?", classID)
}

// listDecks returns deck headers only; cards are loaded by GetDeck.
func (s *SQLiteStore) listDecks(query string, args ...any) ([]*deck.Deck, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []*deck.Deck
	for rows.Next() {
		var d deck.Deck
		var classID sql.NullString
		if err := rows.Scan(&d.ID, &d.Title, &classID); err != nil {
			return nil, err
		}
		if classID.Valid {
			d.ClassID = &classID.String
		}
		decks = append(decks, &d)
	}
	return decks, rows.Err()
}

func (s *SQLiteStore) UpdateDeckClass(deckID string, classID *string) error {
	result, err := s.db.Exec("UPDATE decks SET class_id = ? WHERE id = ?", classID, deckID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteDeck(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cards WHERE deck_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM learn_progress WHERE deck_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM card_options WHERE deck_id = ?", id); err != nil {
		return err
	}

	result, err := tx.Exec("DELETE FROM decks WHERE id = ?", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (s *SQLiteStore) AddCard(deckID string, c deck.Card) error {
	var next int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(position), -1) + 1 FROM cards WHERE deck_id = ?", deckID).Scan(&next); err != nil {
		return err
	}
	_, err := s.db.Exec(
		"INSERT INTO cards (id, deck_id, question, answer, position) VALUES (?, ?, ?, ?, ?)",
		c.ID, deckID, c.Question, c.Answer, next,
	)
	return err
}

func (s *SQLiteStore) DeleteCard(cardID string) error {
	result, err := s.db.Exec("DELETE FROM cards WHERE id = ?", cardID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================================
// Learn progress
// ============================================================================

// LoadProgress returns the full record for a (user, deck) pair, including
// cached distractors. Distractor payloads are normalized here, at the
// storage boundary — rows written by older clients may hold a bare scalar
// or a double-encoded array.
func (s *SQLiteStore) LoadProgress(ctx context.Context, userID, deckID string) (*progress.Record, error) {
	rec := progress.NewRecord()

	var mastered, incorrect, prefs string
	err := s.db.QueryRowContext(ctx,
		"SELECT mastered, incorrect, current_index, hint_level, hint, preferences FROM learn_progress WHERE user_id = ? AND deck_id = ?",
		userID, deckID,
	).Scan(&mastered, &incorrect, &rec.CurrentIndex, &rec.HintLevel, &rec.Hint, &prefs)

	haveRow := err == nil
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	if haveRow {
		if err := json.Unmarshal([]byte(mastered), &rec.MasteredIDs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(incorrect), &rec.IncorrectIDs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(prefs), &rec.Preferences); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT card_id, distractors FROM card_options WHERE user_id = ? AND deck_id = ?",
		userID, deckID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	haveOptions := false
	for rows.Next() {
		var cardID, raw string
		if err := rows.Scan(&cardID, &raw); err != nil {
			return nil, err
		}
		if d := progress.ParseDistractors(raw); len(d) > 0 {
			rec.CardOptions[cardID] = d
			haveOptions = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !haveRow && !haveOptions {
		return nil, ErrNotFound
	}
	return rec, nil
}

// SaveProgressPatch merges the patch into the stored record. Preference and
// progress groups are read-modify-write within a transaction; card options
// are upserted per card. Re-applying the same patch leaves the stored state
// unchanged.
func (s *SQLiteStore) SaveProgressPatch(ctx context.Context, userID, deckID string, p progress.Patch) error {
	if p.IsEmpty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if p.Preferences != nil || p.State != nil {
		rec, err := s.loadRow(ctx, tx, userID, deckID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if rec == nil {
			rec = progress.NewRecord()
		}

		rowPatch := progress.Patch{Preferences: p.Preferences, State: p.State}
		rowPatch.Apply(rec)

		mastered, err := json.Marshal(rec.MasteredIDs)
		if err != nil {
			return err
		}
		incorrect, err := json.Marshal(rec.IncorrectIDs)
		if err != nil {
			return err
		}
		prefs, err := json.Marshal(rec.Preferences)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO learn_progress
			(user_id, deck_id, mastered, incorrect, current_index, hint_level, hint, preferences)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, userID, deckID, string(mastered), string(incorrect), rec.CurrentIndex, rec.HintLevel, rec.Hint, string(prefs))
		if err != nil {
			return err
		}
	}

	for cardID, opts := range p.CardOptions {
		data, err := json.Marshal([]string(opts))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO card_options (user_id, deck_id, card_id, distractors) VALUES (?, ?, ?, ?)",
			userID, deckID, cardID, string(data),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// loadRow reads only the learn_progress row inside a transaction.
func (s *SQLiteStore) loadRow(ctx context.Context, tx *sql.Tx, userID, deckID string) (*progress.Record, error) {
	rec := progress.NewRecord()

	var mastered, incorrect, prefs string
	err := tx.QueryRowContext(ctx,
		"SELECT mastered, incorrect, current_index, hint_level, hint, preferences FROM learn_progress WHERE user_id = ? AND deck_id = ?",
		userID, deckID,
	).Scan(&mastered, &incorrect, &rec.CurrentIndex, &rec.HintLevel, &rec.Hint, &prefs)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(mastered), &rec.MasteredIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(incorrect), &rec.IncorrectIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(prefs), &rec.Preferences); err != nil {
		return nil, err
	}
	return rec, nil
}
