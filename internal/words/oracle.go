package words

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const refreshTimeout = 10 * time.Second

// Oracle answers which categories have enough words for a letter. It serves
// a cached snapshot of the store's letter counts; a stale snapshot keeps
// serving while a single background refresh replaces it.
type Oracle struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu       sync.RWMutex
	counts   map[string]map[string]int
	loadedAt time.Time
}

func NewOracle(store Store, ttl time.Duration) *Oracle {
	return &Oracle{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Refresh reloads the snapshot from the store. Concurrent callers share one
// load.
func (o *Oracle) Refresh(ctx context.Context) error {
	_, err, _ := o.group.Do("refresh", func() (any, error) {
		counts, err := o.store.LetterCounts(ctx)
		if err != nil {
			return nil, err
		}
		o.mu.Lock()
		o.counts = counts
		o.loadedAt = o.now()
		o.mu.Unlock()
		return nil, nil
	})
	return err
}

// Loaded reports whether a snapshot is available.
func (o *Oracle) Loaded() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.counts != nil
}

// ValidCategories returns, sorted, the supported categories with at least
// minCount words starting with letter.
func (o *Oracle) ValidCategories(letter string, supported []string, minCount int) []string {
	o.mu.RLock()
	counts := o.counts[letter]
	stale := o.ttl > 0 && o.now().Sub(o.loadedAt) > o.ttl
	o.mu.RUnlock()

	if stale {
		go o.refreshInBackground()
	}
	if minCount < 1 {
		minCount = 1
	}
	out := make([]string, 0, len(supported))
	for _, category := range supported {
		if counts[category] >= minCount {
			out = append(out, category)
		}
	}
	sort.Strings(out)
	return out
}

func (o *Oracle) refreshInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if err := o.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("word oracle refresh failed")
	}
}
