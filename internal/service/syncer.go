// internal/service/syncer.go
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/learnloop/backend/internal/domain/progress"
)

// DefaultDebounce is how long the syncer waits after the last state change
// before writing.
const DefaultDebounce = 700 * time.Millisecond

// PatchWriter is the slice of the store the syncer needs.
type PatchWriter interface {
	SaveProgressPatch(ctx context.Context, userID, deckID string, p progress.Patch) error
}

// Syncer is a single-flight debounced writer for one (user, deck) pair.
// State changes merge into a pending patch; a flush is scheduled only if
// none is already scheduled, and at most one write is in flight at a time.
// Changes arriving during a write accumulate and trigger one follow-up
// flush. This replaces the pattern of independent timers per field group,
// which could interleave and overwrite each other.
//
// Until Enable is called, queued patches are dropped: nothing may be
// written while the initial reconciliation is still loading, or default
// in-memory values would clobber freshly loaded state.
type Syncer struct {
	store    PatchWriter
	userID   string
	deckID   string
	debounce time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	pending   progress.Patch
	dirty     bool
	scheduled bool
	inFlight  bool
	enabled   bool
	timer     *time.Timer
	done      chan struct{} // closed when the in-flight write finishes
}

func NewSyncer(store PatchWriter, userID, deckID string, debounce time.Duration, logger *slog.Logger) *Syncer {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Syncer{
		store:    store,
		userID:   userID,
		deckID:   deckID,
		debounce: debounce,
		logger:   logger,
	}
}

// Enable opens the write path. Call once reconciliation has finished.
func (s *Syncer) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
}

// Queue merges a patch into the pending state and schedules a flush if
// none is pending.
func (s *Syncer) Queue(p progress.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || p.IsEmpty() {
		return
	}

	s.pending.Merge(p)
	s.dirty = true

	if !s.scheduled && !s.inFlight {
		s.scheduled = true
		s.timer = time.AfterFunc(s.debounce, s.flush)
	}
}

func (s *Syncer) flush() {
	s.mu.Lock()
	s.scheduled = false
	if !s.dirty || s.inFlight {
		s.mu.Unlock()
		return
	}
	patch := s.beginWriteLocked()
	s.mu.Unlock()

	// Detached from any request context: the write must survive the
	// request that triggered it.
	if err := s.store.SaveProgressPatch(context.Background(), s.userID, s.deckID, patch); err != nil {
		s.logger.Error("progress save failed",
			"user_id", s.userID,
			"deck_id", s.deckID,
			"error", err,
		)
	}

	s.endWrite()
}

// beginWriteLocked drains the pending patch and marks a write in flight.
// Caller holds the lock.
func (s *Syncer) beginWriteLocked() progress.Patch {
	patch := s.pending
	s.pending = progress.Patch{}
	s.dirty = false
	s.inFlight = true
	s.done = make(chan struct{})
	return patch
}

// endWrite clears the in-flight marker, wakes any Flush waiting on it, and
// schedules a follow-up for changes that accumulated during the write.
func (s *Syncer) endWrite() {
	s.mu.Lock()
	s.inFlight = false
	close(s.done)
	if s.dirty && !s.scheduled {
		s.scheduled = true
		s.timer = time.AfterFunc(s.debounce, s.flush)
	}
	s.mu.Unlock()
}

// Flush writes any pending patch immediately. Used on session teardown and
// server shutdown. A background write already in flight carries an older
// snapshot, so Flush waits for it to finish before sending the drained
// pending patch; otherwise last-writer-wins storage could commit the older
// snapshot after the newer one.
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	for s.inFlight {
		done := s.done
		s.mu.Unlock()
		<-done
		s.mu.Lock()
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.scheduled = false
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	patch := s.beginWriteLocked()
	s.mu.Unlock()

	err := s.store.SaveProgressPatch(ctx, s.userID, s.deckID, patch)
	s.endWrite()
	return err
}
