package words

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wordrush/internal/game"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	baseScore     = 100
	timeBonus     = 5
	verdictCacheN = 4096
)

type lookupKey struct {
	category string
	word     string
}

// Validator checks answers against the word store. Store lookups are cached
// for cacheTTL; the score itself is always recomputed since it depends on
// time left.
type Validator struct {
	store Store
	cache *expirable.LRU[lookupKey, bool]
}

var _ game.AnswerValidator = (*Validator)(nil)

func NewValidator(store Store, cacheTTL time.Duration) *Validator {
	v := &Validator{store: store}
	if cacheTTL > 0 {
		v.cache = expirable.NewLRU[lookupKey, bool](verdictCacheN, nil, cacheTTL)
	}
	return v
}

func (v *Validator) Validate(ctx context.Context, batch []game.AnswerInput) ([]game.AnswerVerdict, error) {
	out := make([]game.AnswerVerdict, len(batch))
	for i, in := range batch {
		verdict, err := v.check(ctx, in)
		if err != nil {
			return nil, err
		}
		out[i] = verdict
	}
	return out, nil
}

func (v *Validator) check(ctx context.Context, in game.AnswerInput) (game.AnswerVerdict, error) {
	word := Normalize(in.Word)
	if word == "" {
		return game.AnswerVerdict{Comment: "no answer"}, nil
	}
	if LetterOf(word) != strings.ToUpper(in.Letter) {
		return game.AnswerVerdict{Comment: fmt.Sprintf("does not start with %s", strings.ToUpper(in.Letter))}, nil
	}
	category, ok := game.LookupCategory(in.Category)
	if !ok {
		return game.AnswerVerdict{Comment: "unknown category"}, nil
	}
	known, err := v.known(ctx, category.ID, word)
	if err != nil {
		return game.AnswerVerdict{}, fmt.Errorf("look up %q in %s: %w", word, category.ID, err)
	}
	if !known {
		return game.AnswerVerdict{Comment: fmt.Sprintf("not a known %s", strings.ToLower(category.Label))}, nil
	}
	timeLeft := in.TimeLeft
	if timeLeft < 0 {
		timeLeft = 0
	}
	if timeLeft > category.TimeLimit {
		timeLeft = category.TimeLimit
	}
	return game.AnswerVerdict{Valid: true, Score: Score(timeLeft)}, nil
}

func (v *Validator) known(ctx context.Context, category, word string) (bool, error) {
	key := lookupKey{category: category, word: word}
	if v.cache != nil {
		if hit, ok := v.cache.Get(key); ok {
			return hit, nil
		}
	}
	found, err := v.store.HasWord(ctx, category, word)
	if err != nil {
		return false, err
	}
	if v.cache != nil {
		v.cache.Add(key, found)
	}
	return found, nil
}

// Score is the points for a valid answer given with timeLeft seconds to spare.
func Score(timeLeft int) int {
	return baseScore + timeBonus*timeLeft
}
