// internal/service/learn.go
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/learnloop/backend/internal/domain/learnsession"
	"github.com/learnloop/backend/internal/domain/progress"
	"github.com/learnloop/backend/internal/store"
	"github.com/learnloop/backend/internal/worker"
)

// ErrSessionNotFound is returned for operations on unknown or ended
// sessions.
var ErrSessionNotFound = errors.New("session not found")

// LearnService owns the live learn sessions. It runs the reconciler,
// forwards controller operations, and schedules persistence: progress and
// preference changes go through a per-session debounced syncer, while
// freshly generated distractors are persisted fire-and-forget through a
// single background worker so writes stay ordered.
type LearnService struct {
	store    store.Store
	options  learnsession.OptionSource
	logger   *slog.Logger
	debounce time.Duration
	pool     *worker.Pool[error]

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

// liveSession pairs a session with its syncer and a lock serializing
// controller operations.
type liveSession struct {
	mu      sync.Mutex
	session *learnsession.Session
	syncer  *Syncer
}

func NewLearnService(st store.Store, options learnsession.OptionSource, logger *slog.Logger) *LearnService {
	ls := &LearnService{
		store:    st,
		options:  options,
		logger:   logger,
		debounce: DefaultDebounce,
		sessions: make(map[string]*liveSession),
		pool:     worker.NewPool[error](1, 16),
	}
	go ls.drainResults()
	return ls
}

// drainResults logs background persistence failures; they are never
// surfaced to the learner.
func (ls *LearnService) drainResults() {
	for res := range ls.pool.Results() {
		if res.Output != nil {
			ls.logger.Error("distractor persistence failed",
				"session_id", res.JobID,
				"error", res.Output,
			)
		}
	}
}

// StartSession reconciles persisted progress into a new session. The
// returned session may be in the Error state when the deck could not be
// loaded; callers inspect State and Err. Only sessions that reached Ready
// are registered for further operations.
func (ls *LearnService) StartSession(ctx context.Context, userID, deckID string) *learnsession.Session {
	session, generated := learnsession.Reconcile(ctx, userID, deckID, learnsession.Sources{
		Decks:    ls.store,
		Progress: progressSource{ls.store},
		Options:  ls.options,
		Logger:   ls.logger,
	})

	if session.State() != learnsession.StateReady {
		return session
	}

	// Persist newly generated distractors so future loads skip the LLM.
	// Fire-and-forget: a failure costs one regeneration, nothing more.
	if len(generated) > 0 {
		opts := make(map[string]progress.DistractorList, len(generated))
		for cardID, wrongs := range generated {
			opts[cardID] = wrongs
		}
		ls.pool.Submit(session.ID, func() error {
			return ls.store.SaveProgressPatch(context.Background(), userID, deckID, progress.Patch{CardOptions: opts})
		})
	}

	syncer := NewSyncer(ls.store, userID, deckID, ls.debounce, ls.logger)
	syncer.Enable() // reconciliation is done; writes are safe now

	ls.mu.Lock()
	ls.sessions[session.ID] = &liveSession{session: session, syncer: syncer}
	ls.mu.Unlock()

	return session
}

// Get returns a registered session.
func (ls *LearnService) Get(sessionID string) (*learnsession.Session, error) {
	live, err := ls.live(sessionID)
	if err != nil {
		return nil, err
	}
	return live.session, nil
}

// SubmitAnswer records a result and schedules a progress write.
func (ls *LearnService) SubmitAnswer(sessionID, answer string) (*learnsession.Feedback, error) {
	live, err := ls.live(sessionID)
	if err != nil {
		return nil, err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	feedback, err := live.session.SubmitAnswer(answer)
	if err != nil {
		return nil, err
	}
	ls.queueProgress(live)
	return feedback, nil
}

// Advance moves past the feedback window to the next unmastered card.
func (ls *LearnService) Advance(sessionID string) error {
	return ls.withSession(sessionID, func(s *learnsession.Session) error {
		return s.Advance()
	})
}

// Skip advances without recording a result.
func (ls *LearnService) Skip(sessionID string) error {
	return ls.withSession(sessionID, func(s *learnsession.Session) error {
		return s.Skip()
	})
}

// JumpToRandom moves to a random unmastered card, when the shuffle
// preference allows it.
func (ls *LearnService) JumpToRandom(sessionID string) (bool, error) {
	live, err := ls.live(sessionID)
	if err != nil {
		return false, err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	moved, err := live.session.JumpToRandom()
	if err != nil {
		return false, err
	}
	if moved {
		ls.queueProgress(live)
	}
	return moved, nil
}

// ShowHint reveals the next hint character and schedules a progress write
// so the hint survives a reload.
func (ls *LearnService) ShowHint(sessionID string) (string, error) {
	live, err := ls.live(sessionID)
	if err != nil {
		return "", err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	hint, err := live.session.ShowHint()
	if err != nil {
		return "", err
	}
	ls.queueProgress(live)
	return hint, nil
}

// UpdatePreferences applies and persists new preferences. Preference
// writes are never gated on TrackProgress — turning tracking back on must
// itself be saved.
func (ls *LearnService) UpdatePreferences(sessionID string, prefs progress.Preferences) error {
	live, err := ls.live(sessionID)
	if err != nil {
		return err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	if err := live.session.SetPreferences(prefs); err != nil {
		return err
	}
	live.syncer.Queue(progress.Patch{Preferences: &prefs})
	return nil
}

// EndSession flushes pending writes and forgets the session.
func (ls *LearnService) EndSession(ctx context.Context, sessionID string) error {
	ls.mu.Lock()
	live, ok := ls.sessions[sessionID]
	delete(ls.sessions, sessionID)
	ls.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return live.syncer.Flush(ctx)
}

// Shutdown flushes every live session.
func (ls *LearnService) Shutdown(ctx context.Context) {
	ls.mu.Lock()
	sessions := make([]*liveSession, 0, len(ls.sessions))
	for _, live := range ls.sessions {
		sessions = append(sessions, live)
	}
	ls.sessions = make(map[string]*liveSession)
	ls.mu.Unlock()

	for _, live := range sessions {
		if err := live.syncer.Flush(ctx); err != nil {
			ls.logger.Error("flush on shutdown failed", "error", err)
		}
	}
	ls.pool.Close()
}

// progressSource maps the store's not-found onto the reconciler's
// no-prior-progress sentinel, so a first session never logs as a failure.
type progressSource struct {
	store store.Store
}

func (p progressSource) LoadProgress(ctx context.Context, userID, deckID string) (*progress.Record, error) {
	rec, err := p.store.LoadProgress(ctx, userID, deckID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, learnsession.ErrNoProgress
	}
	return rec, err
}

func (ls *LearnService) live(sessionID string) (*liveSession, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	live, ok := ls.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return live, nil
}

func (ls *LearnService) withSession(sessionID string, fn func(*learnsession.Session) error) error {
	live, err := ls.live(sessionID)
	if err != nil {
		return err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	if err := fn(live.session); err != nil {
		return err
	}
	ls.queueProgress(live)
	return nil
}

// queueProgress snapshots the session into the debounced syncer. Progress
// writes respect the TrackProgress preference; preference writes do not.
func (ls *LearnService) queueProgress(live *liveSession) {
	if !live.session.Prefs.TrackProgress {
		return
	}
	snapshot := live.session.Snapshot()
	live.syncer.Queue(progress.Patch{State: &snapshot})
}
