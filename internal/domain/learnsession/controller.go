package learnsession

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/learnloop/backend/internal/domain/deck"
	"github.com/learnloop/backend/internal/domain/progress"
)

// SubmitAnswer records the result for the current card and returns the
// feedback to display. Multiple-choice answers must match exactly; written
// answers are trimmed but stay case-sensitive. A correct answer moves the
// card into the mastered set and clears any earlier miss; a wrong answer
// marks it incorrect while keeping it in the rotation.
//
// The caller shows the feedback for FeedbackDuration, then calls Advance.
func (s *Session) SubmitAnswer(answer string) (*Feedback, error) {
	card := s.Card()
	if card == nil {
		return nil, ErrNotReady
	}

	var correct bool
	if s.questionType == TypeWritten {
		correct = strings.TrimSpace(answer) == strings.TrimSpace(card.Answer)
	} else {
		correct = answer == card.Answer
	}

	if correct {
		s.Mastered[card.ID] = true
		delete(s.Incorrect, card.ID)
	} else {
		s.Incorrect[card.ID] = true
	}

	s.feedback = &Feedback{
		CardID:        card.ID,
		Correct:       correct,
		CorrectAnswer: card.Answer,
	}
	return s.feedback, nil
}

// Advance moves to the next unmastered card, scanning forward cyclically
// from the current position. With every card mastered the cursor stays
// put.
func (s *Session) Advance() error {
	if s.state != StateReady {
		return ErrNotReady
	}
	s.setIndex(findNextUnmasteredIndex(s.Deck.Cards, s.CurrentIndex, s.Mastered))
	return nil
}

// Skip advances without recording a result.
func (s *Session) Skip() error {
	return s.Advance()
}

// JumpToRandom moves to a uniformly chosen unmastered card. It reports
// whether the cursor moved: the jump is gated on the shuffle preference and
// is a no-op when no unmastered cards remain.
func (s *Session) JumpToRandom() (bool, error) {
	if s.state != StateReady {
		return false, ErrNotReady
	}
	if !s.Prefs.Shuffle {
		return false, nil
	}

	var indices []int
	for i, c := range s.Deck.Cards {
		if !s.Mastered[c.ID] {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return false, nil
	}

	s.setIndex(indices[rand.Intn(len(indices))])
	return true, nil
}

// ShowHint reveals one more character of the answer, capped at two
// characters (or the answer length for very short answers). The level only
// grows within a card; it resets when the card or its presentation type
// changes.
func (s *Session) ShowHint() (string, error) {
	card := s.Card()
	if card == nil {
		return "", ErrNotReady
	}

	runes := []rune(card.Answer)
	limit := min(2, len(runes))
	if s.HintLevel < limit {
		s.HintLevel++
	}
	s.Hint = string(runes[:s.HintLevel])
	return s.Hint, nil
}

// SetPreferences applies new preferences. The presentation type is
// re-resolved because allowed answer modes may have changed.
func (s *Session) SetPreferences(p progress.Preferences) error {
	if s.state != StateReady {
		return ErrNotReady
	}
	s.Prefs = p
	s.resolveQuestionType()
	return nil
}

// Snapshot captures the persistable progress fields, with set membership
// in sorted order so identical states always serialize identically.
func (s *Session) Snapshot() progress.StatePatch {
	return progress.StatePatch{
		MasteredIDs:  sortedKeys(s.Mastered),
		IncorrectIDs: sortedKeys(s.Incorrect),
		CurrentIndex: s.CurrentIndex,
		HintLevel:    s.HintLevel,
		Hint:         s.Hint,
	}
}

// ============================================================================
// Internals
// ============================================================================

// setIndex moves the cursor and resets per-card presentation state.
func (s *Session) setIndex(i int) {
	s.CurrentIndex = i
	s.HintLevel = 0
	s.Hint = ""
	s.feedback = nil
	s.resolveQuestionType()
}

// resolveQuestionType picks how the current card is presented: with both
// modes allowed and at least two options, the choice is random per card;
// written-only stays written; anything else is multiple-choice with a
// written fallback for cards lacking options.
func (s *Session) resolveQuestionType() {
	card := &s.Deck.Cards[s.CurrentIndex]
	hasOptions := len(card.Options) >= 2

	var next QuestionType
	switch {
	case s.Prefs.AllowMultipleChoice && s.Prefs.AllowWritten && hasOptions:
		if rand.Intn(2) == 0 {
			next = TypeMultipleChoice
		} else {
			next = TypeWritten
		}
	case s.Prefs.AllowWritten && !s.Prefs.AllowMultipleChoice:
		next = TypeWritten
	case hasOptions:
		next = TypeMultipleChoice
	default:
		next = TypeWritten
	}

	s.setQuestionType(next)
}

// setQuestionType resets the hint when the presentation type actually
// changes; the initial resolution after load keeps the restored hint.
func (s *Session) setQuestionType(t QuestionType) {
	if s.questionType != "" && s.questionType != t {
		s.HintLevel = 0
		s.Hint = ""
	}
	s.questionType = t
}

// findNextUnmasteredIndex scans forward cyclically from current+1 for the
// first card not in mastered. With every card mastered it returns current
// unchanged, so callers never loop forever.
func findNextUnmasteredIndex(cards []deck.Card, current int, mastered map[string]bool) int {
	n := len(cards)
	for step := 1; step <= n; step++ {
		i := (current + step) % n
		if !mastered[cards[i].ID] {
			return i
		}
	}
	return current
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
