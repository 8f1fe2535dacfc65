package game

import (
	"math/rand/v2"
	"sync"
	"time"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CategoryOracle reports, for a letter, which of the supported categories
// have at least minCount known words. It must be cheap and side-effect free
// from the caller's point of view: it is called with the room locked.
type CategoryOracle interface {
	ValidCategories(letter string, supported []string, minCount int) []string
}

// RoundGenerator picks the letters and category sets of a game.
type RoundGenerator struct {
	oracle   CategoryOracle
	minWords int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRoundGenerator(oracle CategoryOracle, minWordsPerCategory int) *RoundGenerator {
	seed := uint64(time.Now().UnixNano())
	return newSeededGenerator(oracle, minWordsPerCategory, seed)
}

func newSeededGenerator(oracle CategoryOracle, minWordsPerCategory int, seed uint64) *RoundGenerator {
	if minWordsPerCategory < 1 {
		minWordsPerCategory = 1
	}
	return &RoundGenerator{
		oracle:   oracle,
		minWords: minWordsPerCategory,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Generate returns up to cfg.RoundsCount rounds with distinct letters. Every
// candidate letter is tried before giving up, so a short result means the
// category filter cannot support the requested game.
func (g *RoundGenerator) Generate(cfg Config) []Round {
	g.mu.Lock()
	defer g.mu.Unlock()

	excluded := make(map[byte]struct{}, len(cfg.ExcludedLetters))
	for _, l := range cfg.ExcludedLetters {
		if len(l) == 1 {
			excluded[l[0]] = struct{}{}
		}
	}
	candidates := make([]string, 0, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		if _, skip := excluded[alphabet[i]]; skip {
			continue
		}
		candidates = append(candidates, alphabet[i:i+1])
	}
	g.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	rounds := make([]Round, 0, cfg.RoundsCount)
	for _, letter := range candidates {
		if len(rounds) == cfg.RoundsCount {
			break
		}
		valid := g.oracle.ValidCategories(letter, cfg.SupportedCategories, g.minWords)
		valid = knownCategories(valid)
		if len(valid) < MinCategoriesPerRound {
			continue
		}
		rounds = append(rounds, Round{
			Number:      len(rounds) + 1,
			Letter:      letter,
			Categories:  g.sampleCategories(valid),
			Submissions: make(map[string]bool),
		})
	}
	return rounds
}

func (g *RoundGenerator) sampleCategories(valid []string) []Category {
	count := MinCategoriesPerRound + g.rng.IntN(MaxCategoriesPerRound-MinCategoriesPerRound+1)
	if count > len(valid) {
		count = len(valid)
	}
	pool := append([]string(nil), valid...)
	g.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	out := make([]Category, 0, count)
	for _, id := range pool[:count] {
		c, _ := LookupCategory(id)
		out = append(out, c)
	}
	return out
}

func knownCategories(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		c, ok := LookupCategory(id)
		if !ok {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c.ID)
	}
	return out
}
