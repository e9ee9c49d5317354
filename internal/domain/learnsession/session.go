package learnsession

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/learnloop/backend/internal/domain/deck"
	"github.com/learnloop/backend/internal/domain/progress"
	"github.com/learnloop/backend/internal/id"
)

// State is the lifecycle of a learn session. Transitions are
// Loading → Ready on a successful reconcile and Loading → Error when the
// deck cannot be loaded; there is no way back out of Error except starting
// a new session.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// QuestionType is how the current card is presented to the learner.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeWritten        QuestionType = "written"
)

// FeedbackDuration is how long correct/incorrect feedback stays on screen
// before the session advances to the next card.
const FeedbackDuration = 1500 * time.Millisecond

// ErrNotReady is returned by controller operations invoked before the
// session finished loading, or after it failed.
var ErrNotReady = errors.New("session is not ready")

// ErrNoProgress reports that a user has no stored record for a deck. It is
// the normal first-session case, not a failure.
var ErrNoProgress = errors.New("no stored progress")

// Feedback is the transient result of an answer submission.
type Feedback struct {
	CardID        string `json:"card_id"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
}

// Session is one user's in-memory learn-mode run over a deck. It mirrors
// the persisted progress record plus ephemeral presentation state, and is
// discarded when the user leaves.
type Session struct {
	ID     string
	UserID string
	Deck   *deck.Deck

	Mastered     map[string]bool
	Incorrect    map[string]bool
	CurrentIndex int
	HintLevel    int
	Hint         string
	Prefs        progress.Preferences

	state        State
	loadErr      error
	questionType QuestionType
	feedback     *Feedback
}

// NewSession creates a session in the Loading state.
func NewSession(userID string) *Session {
	return &Session{
		ID:        id.GenerateID(),
		UserID:    userID,
		Mastered:  make(map[string]bool),
		Incorrect: make(map[string]bool),
		Prefs:     progress.DefaultPreferences(),
		state:     StateLoading,
	}
}

func (s *Session) State() State { return s.state }

// Err returns the load failure, set only in the Error state.
func (s *Session) Err() error { return s.loadErr }

func (s *Session) QuestionType() QuestionType { return s.questionType }

// Feedback returns the pending answer feedback, or nil.
func (s *Session) Feedback() *Feedback { return s.feedback }

// Card returns the current card, or nil if the session is not ready.
func (s *Session) Card() *deck.Card {
	if s.state != StateReady || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Deck.Cards) {
		return nil
	}
	return &s.Deck.Cards[s.CurrentIndex]
}

func (s *Session) fail(err error) {
	s.state = StateError
	s.loadErr = err
}

func (s *Session) ready() {
	s.state = StateReady
}

// ============================================================================
// Reconciliation
// ============================================================================

// DeckSource fetches a deck by ID.
type DeckSource interface {
	GetDeck(deckID string) (*deck.Deck, error)
}

// ProgressSource loads the persisted record for a (user, deck) pair.
// Absence of prior progress is reported as ErrNoProgress; any other error
// is a real load failure.
type ProgressSource interface {
	LoadProgress(ctx context.Context, userID, deckID string) (*progress.Record, error)
}

// OptionSource populates card options, reusing cached distractors and
// reporting which cards needed fresh generation.
type OptionSource interface {
	EnsureOptions(ctx context.Context, cards []deck.Card, cached map[string]progress.DistractorList, shuffle bool) ([]deck.Card, map[string][]string)
}

// Sources are the collaborators reconciliation depends on.
type Sources struct {
	Decks    DeckSource
	Progress ProgressSource
	Options  OptionSource
	Logger   *slog.Logger
}

// Reconcile merges persisted progress with default session state and
// returns a ready-to-use session plus any freshly generated distractors
// the caller should persist.
//
// Only the deck fetch is fatal: a progress-load failure degrades to an
// empty record, and option generation has its own fallbacks. Preferences
// are applied before options are built because shuffling and question-type
// selection depend on them.
func Reconcile(ctx context.Context, userID, deckID string, src Sources) (*Session, map[string][]string) {
	s := NewSession(userID)

	d, err := src.Decks.GetDeck(deckID)
	if err != nil {
		s.fail(err)
		return s, nil
	}
	if len(d.Cards) == 0 {
		s.fail(errors.New("deck has no cards"))
		return s, nil
	}

	rec, err := src.Progress.LoadProgress(ctx, userID, deckID)
	if err != nil {
		if !errors.Is(err, ErrNoProgress) && src.Logger != nil {
			src.Logger.Warn("progress load failed, starting fresh",
				"user_id", userID,
				"deck_id", deckID,
				"error", err,
			)
		}
		rec = nil
	}

	if rec != nil {
		s.Prefs = rec.Preferences
	}

	var cached map[string]progress.DistractorList
	if rec != nil {
		cached = rec.CardOptions
	}
	cards, generated := src.Options.EnsureOptions(ctx, d.Cards, cached, s.Prefs.Shuffle)

	s.Deck = &deck.Deck{
		ID:      d.ID,
		Title:   d.Title,
		ClassID: d.ClassID,
		Cards:   cards,
	}

	if rec != nil {
		for _, cardID := range rec.MasteredIDs {
			s.Mastered[cardID] = true
		}
		for _, cardID := range rec.IncorrectIDs {
			s.Incorrect[cardID] = true
		}
		s.CurrentIndex = rec.CurrentIndex
		s.HintLevel = rec.HintLevel
		s.Hint = rec.Hint
	}

	// A stale index (deck changed since last save) clamps to the first
	// unmastered card, or 0 when everything is mastered.
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Deck.Cards) {
		s.CurrentIndex = firstUnmasteredIndex(s.Deck.Cards, s.Mastered)
		s.HintLevel = 0
		s.Hint = ""
	}

	s.ready()
	s.resolveQuestionType()
	return s, generated
}

// firstUnmasteredIndex scans from 0 for the first card not in mastered,
// returning 0 when every card is mastered.
func firstUnmasteredIndex(cards []deck.Card, mastered map[string]bool) int {
	for i, c := range cards {
		if !mastered[c.ID] {
			return i
		}
	}
	return 0
}
