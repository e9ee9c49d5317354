package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/backend/internal/domain/deck"
	"github.com/learnloop/backend/internal/domain/learnsession"
	"github.com/learnloop/backend/internal/domain/progress"
	"github.com/learnloop/backend/internal/store"
)

// fixedOptions fills every card with a deterministic option set.
type fixedOptions struct{}

func (fixedOptions) EnsureOptions(_ context.Context, cards []deck.Card, cached map[string]progress.DistractorList, _ bool) ([]deck.Card, map[string][]string) {
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

func newTestService(t *testing.T) (*LearnService, *store.SQLiteStore, *deck.Deck) {
	t.Helper()

	db, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	d := deck.New("Capitals")
	require.NoError(t, d.AddCard("Capital of France?", "Paris"))
	require.NoError(t, d.AddCard("Capital of Italy?", "Rome"))
	require.NoError(t, db.SaveDeck(d))

	ls := NewLearnService(db, fixedOptions{}, slog.New(slog.DiscardHandler))
	t.Cleanup(func() { ls.Shutdown(context.Background()) })

	return ls, db, d
}

func TestStartSessionUnknownDeck(t *testing.T) {
	ls, _, _ := newTestService(t)

	session := ls.StartSession(context.Background(), "u1", "no-such-deck")

	assert.Equal(t, learnsession.StateError, session.State())
	assert.ErrorIs(t, session.Err(), store.ErrNotFound)

	// Error-state sessions are never registered.
	_, err := ls.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStartSessionRegistersReadySession(t *testing.T) {
	ls, _, d := newTestService(t)

	session := ls.StartSession(context.Background(), "u1", d.ID)
	require.Equal(t, learnsession.StateReady, session.State())

	got, err := ls.Get(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)
	assert.Len(t, session.Deck.Cards[0].Options, 4)
}

func TestEndSessionFlushesAndForgets(t *testing.T) {
	ls, db, d := newTestService(t)
	ctx := context.Background()

	session := ls.StartSession(ctx, "u1", d.ID)
	require.Equal(t, learnsession.StateReady, session.State())

	card := session.Deck.Cards[0]
	_, err := ls.SubmitAnswer(session.ID, card.Answer)
	require.NoError(t, err)

	require.NoError(t, ls.EndSession(ctx, session.ID))

	// Forgotten: further operations fail.
	assert.ErrorIs(t, ls.Advance(session.ID), ErrSessionNotFound)
	assert.ErrorIs(t, ls.EndSession(ctx, session.ID), ErrSessionNotFound)

	// Flushed: the answer is on disk despite the debounce never firing.
	rec, err := db.LoadProgress(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.Contains(t, rec.MasteredIDs, card.ID)
}

func TestSessionResumesFromPersistedProgress(t *testing.T) {
	ls, _, d := newTestService(t)
	ctx := context.Background()

	first := ls.StartSession(ctx, "u1", d.ID)
	card := first.Deck.Cards[0]
	_, err := ls.SubmitAnswer(first.ID, card.Answer)
	require.NoError(t, err)
	require.NoError(t, ls.Advance(first.ID))
	require.NoError(t, ls.EndSession(ctx, first.ID))

	second := ls.StartSession(ctx, "u1", d.ID)
	require.Equal(t, learnsession.StateReady, second.State())
	assert.True(t, second.Mastered[card.ID], "mastery must survive the restart")
	assert.Equal(t, 1, second.CurrentIndex)
}

func TestProgressWritesRespectTrackingPreference(t *testing.T) {
	ls, db, d := newTestService(t)
	ctx := context.Background()

	session := ls.StartSession(ctx, "u1", d.ID)

	prefs := progress.DefaultPreferences()
	prefs.TrackProgress = false
	require.NoError(t, ls.UpdatePreferences(session.ID, prefs))

	card := session.Deck.Cards[0]
	_, err := ls.SubmitAnswer(session.ID, card.Answer)
	require.NoError(t, err)
	require.NoError(t, ls.EndSession(ctx, session.ID))

	rec, err := db.LoadProgress(ctx, "u1", d.ID)
	require.NoError(t, err)
	// The preference change itself is saved; the answer is not.
	assert.False(t, rec.Preferences.TrackProgress)
	assert.Empty(t, rec.MasteredIDs)
}

func TestJumpToRandomGatedOnShuffle(t *testing.T) {
	ls, _, d := newTestService(t)
	ctx := context.Background()

	session := ls.StartSession(ctx, "u1", d.ID)

	prefs := session.Prefs
	prefs.Shuffle = false
	require.NoError(t, ls.UpdatePreferences(session.ID, prefs))

	moved, err := ls.JumpToRandom(session.ID)
	require.NoError(t, err)
	assert.False(t, moved)
}
