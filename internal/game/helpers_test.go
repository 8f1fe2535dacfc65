package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// staticOracle treats every supported category as valid for the listed
// letters. An empty letters set means every letter.
type staticOracle struct {
	letters map[string]struct{}
}

func (o staticOracle) ValidCategories(letter string, supported []string, minCount int) []string {
	if len(o.letters) > 0 {
		if _, ok := o.letters[letter]; !ok {
			return nil
		}
	}
	return append([]string(nil), supported...)
}

func oracleFor(letters ...string) staticOracle {
	set := make(map[string]struct{}, len(letters))
	for _, l := range letters {
		set[l] = struct{}{}
	}
	return staticOracle{letters: set}
}

// prefixValidator accepts any word that starts with the round letter.
type prefixValidator struct {
	mu    sync.Mutex
	calls int
	err   error
	hold  chan struct{}
}

func (v *prefixValidator) Validate(ctx context.Context, batch []AnswerInput) ([]AnswerVerdict, error) {
	v.mu.Lock()
	v.calls++
	hold, err := v.hold, v.err
	v.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := make([]AnswerVerdict, len(batch))
	for i, in := range batch {
		if in.Word != "" && strings.HasPrefix(strings.ToUpper(in.Word), in.Letter) {
			out[i] = AnswerVerdict{Valid: true, Score: 100 + 5*in.TimeLeft}
			continue
		}
		out[i] = AnswerVerdict{Comment: "does not start with " + in.Letter}
	}
	return out, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingEmitter) Emit(events ...Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recordingEmitter) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type())
	}
	return out
}

func (r *recordingEmitter) count(t EventType) int {
	n := 0
	for _, got := range r.types() {
		if got == t {
			n++
		}
	}
	return n
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	svc       *Service
	emitter   *recordingEmitter
	validator *prefixValidator
	clock     *fakeClock
}

func newHarness(t *testing.T, oracle CategoryOracle) *harness {
	t.Helper()
	h := &harness{
		emitter:   &recordingEmitter{},
		validator: &prefixValidator{},
		clock:     &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.svc = NewService(NewRegistry(), oracle, h.validator, h.emitter, DefaultSettings())
	h.svc.now = h.clock.Now
	h.svc.rounds = newSeededGenerator(oracle, 1, 42)
	return h
}

// lobby creates a room hosted by the first name and joins the rest.
func (h *harness) lobby(t *testing.T, names ...string) Snapshot {
	t.Helper()
	created, err := h.svc.CreateRoom(names[0], "", false)
	require.NoError(t, err)
	for _, name := range names[1:] {
		_, err := h.svc.JoinRoom(created.Room.JoinCode, name, "", false)
		require.NoError(t, err)
	}
	snap, err := h.svc.Snapshot(created.Room.RoomID, names[0])
	require.NoError(t, err)
	return snap
}

func (h *harness) start(t *testing.T, roomID, host string, rounds int, categories ...string) Snapshot {
	t.Helper()
	cfg := Config{RoundsCount: rounds, SupportedCategories: categories}
	res, err := h.svc.StartGame(roomID, host, &cfg)
	require.NoError(t, err)
	return res.Room
}

// answersFor builds a full answer sheet for the current round, each word
// starting with the round letter when valid is true.
func answersFor(round *RoundView, valid bool, timeLeft int) []AnswerSubmission {
	out := make([]AnswerSubmission, 0, len(round.Categories))
	for _, c := range round.Categories {
		word := strings.ToLower(round.Letter) + "word"
		if !valid {
			word = "9" + word
		}
		out = append(out, AnswerSubmission{Category: c.ID, Word: word, TimeLeft: timeLeft})
	}
	return out
}

func requireCode(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	var gameErr *Error
	require.True(t, errors.As(err, &gameErr), "expected *game.Error, got %T: %v", err, err)
	require.Equal(t, code, gameErr.Code, gameErr.Message)
}
