package distractor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"unicode"

	"github.com/learnloop/backend/internal/domain/deck"
	"github.com/learnloop/backend/internal/domain/progress"
)

const (
	// wrongAnswerCount is how many distractors every card ends up with.
	wrongAnswerCount = 3

	// maxCandidateLen filters out lines where the model started explaining
	// itself instead of answering.
	maxCandidateLen = 50
)

// metaPhrases mark lines that are instructions or commentary rather than
// answer candidates.
var metaPhrases = []string{"would be", "such as", "correct", "wrong", "example"}

// Generator populates card options, reusing persisted distractors where
// available and asking the LLM only for cards that lack them. Generation is
// sequential, one card at a time, which bounds load latency to one round
// trip per uncached card.
type Generator struct {
	llm    TextGenerator
	logger *slog.Logger
}

func NewGenerator(llm TextGenerator, logger *slog.Logger) *Generator {
	return &Generator{
		llm:    llm,
		logger: logger,
	}
}

// EnsureOptions returns a copy of cards with Options populated, plus the
// distractors that were freshly generated (keyed by card ID) so the caller
// can persist them and skip the LLM next time.
//
// Cards whose cached distractor list is non-empty never trigger an external
// call: their options are rebuilt purely from the cache. When shuffle is
// off, cached order is preserved and the correct answer goes last.
func (g *Generator) EnsureOptions(ctx context.Context, cards []deck.Card, cached map[string]progress.DistractorList, shuffle bool) ([]deck.Card, map[string][]string) {
	out := make([]deck.Card, len(cards))
	copy(out, cards)

	generated := make(map[string][]string)

	for i := range out {
		card := &out[i]

		wrongs := []string(cached[card.ID])
		if len(wrongs) == 0 {
			wrongs = g.generateWrongAnswers(ctx, card.Question, card.Answer)
			generated[card.ID] = wrongs
		}

		card.Options = composeOptions(wrongs, card.Answer, shuffle)
	}

	return out, generated
}

// generateWrongAnswers asks the LLM for distractors, retrying once with a
// differently worded prompt if the first response yields too few usable
// lines, and padding with synthetic variants as a last resort. A transport
// or decode failure skips the retry and falls straight back to synthetics.
func (g *Generator) generateWrongAnswers(ctx context.Context, question, answer string) []string {
	text, err := g.llm.GenerateText(ctx, wrongAnswerPrompt(question, answer))
	if err != nil {
		g.logger.Warn("distractor generation failed, using synthetic fallback",
			"question", question,
			"error", err,
		)
		return syntheticWrongAnswers(answer, nil)
	}

	candidates := parseCandidates(text, answer)

	if len(candidates) < wrongAnswerCount {
		retryText, err := g.llm.GenerateText(ctx, categoryAlternativesPrompt(question, answer))
		if err == nil {
			candidates = mergeUnique(candidates, parseCandidates(retryText, answer))
		} else {
			g.logger.Warn("distractor retry failed",
				"question", question,
				"error", err,
			)
		}
	}

	if len(candidates) < wrongAnswerCount {
		candidates = syntheticWrongAnswers(answer, candidates)
	}

	return candidates
}

// composeOptions builds the presented answer set. Distractors keep their
// stored order unless shuffling is enabled; the correct answer is appended
// at presentation time and never persisted with them.
func composeOptions(wrongs []string, answer string, shuffle bool) []string {
	options := make([]string, 0, len(wrongs)+1)
	options = append(options, wrongs...)
	options = append(options, answer)

	if shuffle {
		rand.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
	}

	return options
}

// ============================================================================
// Response parsing
// ============================================================================

// parseCandidates extracts usable wrong answers from free-text LLM output.
// It keeps at most wrongAnswerCount lines, in response order.
func parseCandidates(text, answer string) []string {
	var candidates []string

	for _, line := range strings.Split(text, "\n") {
		candidate := cleanCandidate(line)
		if candidate == "" {
			continue
		}
		if len([]rune(candidate)) > maxCandidateLen {
			continue
		}
		if strings.EqualFold(candidate, answer) {
			continue
		}
		if hasMetaPhrase(candidate) {
			continue
		}

		candidates = append(candidates, candidate)
		if len(candidates) == wrongAnswerCount {
			break
		}
	}

	return candidates
}

// cleanCandidate strips list artifacts and surrounding quotes from a line.
// A line that was nothing but an artifact cleans down to "".
func cleanCandidate(line string) string {
	s := strings.TrimSpace(line)
	s = stripNumberedPrefix(s)
	s = strings.Trim(s, "-*•·")
	s = strings.Trim(s, `"'“”‘’`)
	return strings.TrimSpace(s)
}

// stripNumberedPrefix removes a leading "1. " or "1) " style prefix.
// Operates on runes for UTF-8 safety.
func stripNumberedPrefix(s string) string {
	runes := []rune(s)
	if len(runes) < 3 || !unicode.IsDigit(runes[0]) {
		return s
	}

	for i, r := range runes {
		if r == '.' || r == ')' {
			if i+1 < len(runes) && runes[i+1] == ' ' {
				return strings.TrimSpace(string(runes[i+2:]))
			}
			break
		}
		if !unicode.IsDigit(r) {
			break
		}
	}
	return s
}

func hasMetaPhrase(s string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range metaPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// mergeUnique appends items from extra that are not already present
// (case-insensitively), stopping at wrongAnswerCount.
func mergeUnique(base, extra []string) []string {
	for _, item := range extra {
		if len(base) == wrongAnswerCount {
			break
		}
		if !containsFold(base, item) {
			base = append(base, item)
		}
	}
	return base
}

func containsFold(items []string, s string) bool {
	for _, item := range items {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// ============================================================================
// Synthetic fallback
// ============================================================================

// syntheticWrongAnswers pads existing candidates up to wrongAnswerCount
// with deterministic variants of the answer, never duplicating an existing
// candidate. With a nil base it yields the full synthetic set.
func syntheticWrongAnswers(answer string, base []string) []string {
	variants := []string{
		"Not " + answer,
		answer + " (wrong)",
		"Similar to " + answer,
	}

	out := append([]string(nil), base...)
	for _, v := range variants {
		if len(out) == wrongAnswerCount {
			break
		}
		if !containsFold(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// ============================================================================
// Prompt builders — kept short and directive for small (4-8B) models.
// ============================================================================

func wrongAnswerPrompt(question, answer string) string {
	return fmt.Sprintf(`/no_think
You are writing multiple-choice distractors for a flashcard.

QUESTION:
%s

CORRECT ANSWER:
%s

Write exactly 3 plausible WRONG answers from the same category as the
correct answer. One per line. No numbering, no quotes, no explanations.`,
		question, answer)
}

func categoryAlternativesPrompt(question, answer string) string {
	return fmt.Sprintf(`/no_think
List 3 alternatives from the same category as "%s" that are NOT valid
answers to the question below. One per line, nothing else.

QUESTION:
%s`,
		answer, question)
}
