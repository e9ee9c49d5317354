package learnsession

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/learnloop/backend/internal/domain/deck"
	"github.com/learnloop/backend/internal/domain/progress"
)

// ── Stub sources ────────────────────────────────────────────────────────────

type stubDecks struct {
	deck *deck.Deck
	err  error
}

func (s stubDecks) GetDeck(string) (*deck.Deck, error) { return s.deck, s.err }

type stubProgress struct {
	rec *progress.Record
	err error
}

func (s stubProgress) LoadProgress(context.Context, string, string) (*progress.Record, error) {
	return s.rec, s.err
}

// passthroughOptions fills every card with three fixed wrongs plus the
// answer, reporting cards that had no cache entry as generated.
type passthroughOptions struct{}

func (passthroughOptions) EnsureOptions(_ context.Context, cards []deck.Card, cached map[string]progress.DistractorList, _ bool) ([]deck.Card, map[string][]string) {
	out := make([]deck.Card, len(cards))
	copy(out, cards)
	generated := make(map[string][]string)
	for i := range out {
		wrongs := []string(cached[out[i].ID])
		if len(wrongs) == 0 {
			wrongs = []string{"w1", "w2", "w3"}
			generated[out[i].ID] = wrongs
		}
		out[i].Options = append(append([]string(nil), wrongs...), out[i].Answer)
	}
	return out, generated
}

func testDeck(n int) *deck.Deck {
	d := &deck.Deck{ID: "deck-1", Title: "Test"}
	for i := 0; i < n; i++ {
		d.Cards = append(d.Cards, deck.Card{
			ID:       string(rune('a' + i)),
			Question: "q",
			Answer:   "answer",
		})
	}
	return d
}

func testSources(d *deck.Deck, rec *progress.Record, progressErr error) Sources {
	return Sources{
		Decks:    stubDecks{deck: d},
		Progress: stubProgress{rec: rec, err: progressErr},
		Options:  passthroughOptions{},
		Logger:   slog.New(slog.DiscardHandler),
	}
}

// ── Tests ───────────────────────────────────────────────────────────────────

func TestReconcileDeckErrorEntersErrorState(t *testing.T) {
	wantErr := errors.New("boom")
	src := testSources(nil, nil, nil)
	src.Decks = stubDecks{err: wantErr}

	s, generated := Reconcile(context.Background(), "u", "d", src)

	if s.State() != StateError {
		t.Fatalf("state = %q, want %q", s.State(), StateError)
	}
	if !errors.Is(s.Err(), wantErr) {
		t.Errorf("Err() = %v, want %v", s.Err(), wantErr)
	}
	if generated != nil {
		t.Errorf("generated = %v, want nil", generated)
	}
	if s.Card() != nil {
		t.Errorf("Card() = %v, want nil in error state", s.Card())
	}
}

func TestReconcileEmptyDeckEntersErrorState(t *testing.T) {
	s, _ := Reconcile(context.Background(), "u", "d", testSources(testDeck(0), nil, nil))
	if s.State() != StateError {
		t.Fatalf("state = %q, want %q", s.State(), StateError)
	}
}

func TestReconcileFreshSession(t *testing.T) {
	s, generated := Reconcile(context.Background(), "u", "d", testSources(testDeck(3), nil, nil))

	if s.State() != StateReady {
		t.Fatalf("state = %q, want %q", s.State(), StateReady)
	}
	if s.CurrentIndex != 0 {
		t.Errorf("CurrentIndex = %d, want 0", s.CurrentIndex)
	}
	if len(s.Mastered) != 0 || len(s.Incorrect) != 0 {
		t.Errorf("fresh session has non-empty sets: %v %v", s.Mastered, s.Incorrect)
	}
	if got := s.Prefs; got != progress.DefaultPreferences() {
		t.Errorf("Prefs = %+v, want defaults", got)
	}
	if len(generated) != 3 {
		t.Errorf("generated %d entries, want 3", len(generated))
	}
	for _, c := range s.Deck.Cards {
		if len(c.Options) != 4 {
			t.Errorf("card %s has %d options, want 4", c.ID, len(c.Options))
		}
	}
}

func TestReconcileProgressLoadFailureDegradesToFresh(t *testing.T) {
	var logs bytes.Buffer
	src := testSources(testDeck(2), nil, errors.New("db down"))
	src.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	s, _ := Reconcile(context.Background(), "u", "d", src)

	if s.State() != StateReady {
		t.Fatalf("state = %q, want %q", s.State(), StateReady)
	}
	if len(s.Mastered) != 0 || s.CurrentIndex != 0 {
		t.Errorf("degraded session not fresh: mastered=%v index=%d", s.Mastered, s.CurrentIndex)
	}
	if !strings.Contains(logs.String(), "progress load failed") {
		t.Error("real load failure did not log a warning")
	}
}

func TestReconcileNoPriorProgressIsNotAFailure(t *testing.T) {
	var logs bytes.Buffer
	src := testSources(testDeck(2), nil, ErrNoProgress)
	src.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	s, _ := Reconcile(context.Background(), "u", "d", src)

	if s.State() != StateReady {
		t.Fatalf("state = %q, want %q", s.State(), StateReady)
	}
	if len(s.Mastered) != 0 || s.CurrentIndex != 0 {
		t.Errorf("first session not fresh: mastered=%v index=%d", s.Mastered, s.CurrentIndex)
	}
	if strings.Contains(logs.String(), "progress load failed") {
		t.Errorf("first session logged as a failure: %s", logs.String())
	}
}

func TestReconcileRestoresPersistedState(t *testing.T) {
	rec := progress.NewRecord()
	rec.MasteredIDs = []string{"a"}
	rec.IncorrectIDs = []string{"b"}
	rec.CurrentIndex = 2
	rec.HintLevel = 1
	rec.Hint = "a"
	rec.CardOptions = map[string]progress.DistractorList{
		"a": {"x1", "x2", "x3"},
	}

	s, generated := Reconcile(context.Background(), "u", "d", testSources(testDeck(3), rec, nil))

	if s.State() != StateReady {
		t.Fatalf("state = %q, want %q", s.State(), StateReady)
	}
	if !s.Mastered["a"] || !s.Incorrect["b"] {
		t.Errorf("sets not restored: mastered=%v incorrect=%v", s.Mastered, s.Incorrect)
	}
	if s.CurrentIndex != 2 {
		t.Errorf("CurrentIndex = %d, want 2", s.CurrentIndex)
	}
	if s.HintLevel != 1 || s.Hint != "a" {
		t.Errorf("hint not restored: level=%d hint=%q", s.HintLevel, s.Hint)
	}
	// Card "a" was cached; only "b" and "c" needed generation.
	if _, ok := generated["a"]; ok {
		t.Error("cached card reported as generated")
	}
	if len(generated) != 2 {
		t.Errorf("generated %d entries, want 2", len(generated))
	}
	if got := s.Deck.Cards[0].Options; got[0] != "x1" {
		t.Errorf("cached distractors not used: options = %v", got)
	}
}

func TestReconcileClampsStaleIndex(t *testing.T) {
	rec := progress.NewRecord()
	rec.MasteredIDs = []string{"a"}
	rec.CurrentIndex = 7 // deck shrank since last save
	rec.HintLevel = 2
	rec.Hint = "an"

	s, _ := Reconcile(context.Background(), "u", "d", testSources(testDeck(3), rec, nil))

	if s.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1 (first unmastered)", s.CurrentIndex)
	}
	if s.HintLevel != 0 || s.Hint != "" {
		t.Errorf("hint survived clamp: level=%d hint=%q", s.HintLevel, s.Hint)
	}
}

func TestReconcileClampsToZeroWhenAllMastered(t *testing.T) {
	rec := progress.NewRecord()
	rec.MasteredIDs = []string{"a", "b", "c"}
	rec.CurrentIndex = -1

	s, _ := Reconcile(context.Background(), "u", "d", testSources(testDeck(3), rec, nil))

	if s.CurrentIndex != 0 {
		t.Errorf("CurrentIndex = %d, want 0", s.CurrentIndex)
	}
}
