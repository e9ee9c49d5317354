// simulation/simulation.go
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/learnloop/backend/internal/distractor"
	"github.com/learnloop/backend/internal/domain/deck"
	"github.com/learnloop/backend/internal/domain/learnsession"
	"github.com/learnloop/backend/internal/service"
	"github.com/learnloop/backend/internal/store"
)

// scriptedLLM answers every distractor prompt with a fixed candidate list,
// so the simulation runs without a model server.
type scriptedLLM struct{}

func (scriptedLLM) GenerateText(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "goroutine"):
		return "1. A heavyweight OS thread\n2. A kernel process\n3. A callback queue", nil
	case strings.Contains(prompt, "channel"):
		return "- A shared global variable\n- A mutex wrapper\n- A socket connection", nil
	default:
		return "First option\nSecond option\nThird option", nil
	}
}

// SimulateWork drives one full learn session against an in-memory store:
// seed a deck, reconcile, answer, hint, and flush, printing each step.
func SimulateWork() error {
	logger := slog.Default()

	db, err := store.NewSQLite(":memory:")
	if err != nil {
		return fmt.Errorf("simulation: open store: %w", err)
	}
	defer db.Close()

	// Seed a deck
	d := deck.New("Go Fundamentals")
	d.AddCard("What is a goroutine?", "A lightweight thread managed by the Go runtime")
	d.AddCard("What is a channel?", "A typed conduit between goroutines")
	if err := db.SaveDeck(d); err != nil {
		return fmt.Errorf("simulation: save deck: %w", err)
	}

	gen := distractor.NewGenerator(scriptedLLM{}, logger)
	learn := service.NewLearnService(db, gen, logger)

	ctx := context.Background()
	session := learn.StartSession(ctx, "sim-user", d.ID)
	if session.State() != learnsession.StateReady {
		return fmt.Errorf("simulation: session failed to load: %w", session.Err())
	}
	fmt.Printf("Session started: %s (%d cards, type=%s)\n",
		session.ID, len(session.Deck.Cards), session.QuestionType())

	// Wrong answer first, then a hint, then the real one.
	card := session.Card()
	fmt.Printf("\nQ: %s\nOptions: %v\n", card.Question, card.Options)

	feedback, err := learn.SubmitAnswer(session.ID, "A kernel process")
	if err != nil {
		return err
	}
	fmt.Printf("Answered wrong: correct=%v, answer was %q\n", feedback.Correct, feedback.CorrectAnswer)

	if err := learn.Advance(session.ID); err != nil {
		return err
	}

	hint, err := learn.ShowHint(session.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Hint: %q\n", hint)

	card = session.Card()
	feedback, err = learn.SubmitAnswer(session.ID, card.Answer)
	if err != nil {
		return err
	}
	fmt.Printf("Answered right: correct=%v\n", feedback.Correct)

	if err := learn.Advance(session.ID); err != nil {
		return err
	}
	fmt.Printf("Now at index %d, mastered %d/%d\n",
		session.CurrentIndex, len(session.Mastered), len(session.Deck.Cards))

	if err := learn.EndSession(ctx, session.ID); err != nil {
		return fmt.Errorf("simulation: end session: %w", err)
	}
	learn.Shutdown(ctx)

	// Prove the flush landed: a fresh load sees the mastered card.
	rec, err := db.LoadProgress(ctx, "sim-user", d.ID)
	if err != nil {
		return fmt.Errorf("simulation: reload progress: %w", err)
	}
	fmt.Printf("\nPersisted: mastered=%v index=%d cached options for %d cards\n",
		rec.MasteredIDs, rec.CurrentIndex, len(rec.CardOptions))

	return nil
}
