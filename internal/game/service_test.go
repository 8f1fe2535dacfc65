package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullGameScenario(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	require.Len(t, lobby.Players, 2)
	assert.Equal(t, "alice", lobby.HostID)

	snap := h.start(t, lobby.RoomID, "alice", 2, "name", "food", "animal")
	assert.Equal(t, PhasePlaying, snap.Phase)
	assert.Equal(t, 1, snap.CurrentRound)
	assert.Equal(t, 2, snap.TotalRounds)
	require.NotNil(t, snap.Round)
	assert.Len(t, snap.Round.Categories, 3)

	first, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(snap.Round, true, 10))
	require.NoError(t, err)
	assert.Equal(t, 450, first.RoundScore)
	assert.False(t, first.RoundComplete)
	assert.Equal(t, PhasePlaying, first.Room.Phase)

	second, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "bob", answersFor(snap.Round, false, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, second.RoundScore)
	assert.True(t, second.RoundComplete)
	assert.Equal(t, PhaseRoundEnd, second.Room.Phase)

	results, err := h.svc.RoundResults(lobby.RoomID, "bob", 1)
	require.NoError(t, err)
	assert.True(t, results.Complete)
	require.Len(t, results.Results, 2)
	assert.Equal(t, 450, results.Results[0].RoundScore)
	for _, a := range results.Results[1].Answers {
		assert.False(t, a.Valid)
		assert.NotEmpty(t, a.Comment)
	}

	_, err = h.svc.Summary(lobby.RoomID, "alice")
	requireCode(t, err, CodeBadRequest)

	next, err := h.svc.NextRound(lobby.RoomID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, next.Room.CurrentRound)
	assert.NotEqual(t, snap.Round.Letter, next.Room.Round.Letter)

	for _, name := range []string{"alice", "bob"} {
		_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, name, answersFor(next.Room.Round, true, 0))
		require.NoError(t, err)
	}

	summary, err := h.svc.Summary(lobby.RoomID, "bob")
	require.NoError(t, err)
	assert.False(t, summary.Finished)
	assert.Empty(t, summary.Winner)

	done, err := h.svc.NextRound(lobby.RoomID, "alice")
	require.NoError(t, err)
	assert.Equal(t, PhaseFinished, done.Room.Phase)
	assert.Equal(t, "alice", done.Room.Winner)

	summary, err = h.svc.Summary(lobby.RoomID, "bob")
	require.NoError(t, err)
	assert.True(t, summary.Finished)
	assert.Equal(t, "alice", summary.Winner)
	assert.Len(t, summary.Rounds, 2)

	wantEvents := []EventType{
		EventRoomCreated, EventPlayerJoined, EventConfigUpdated, EventGameStarted, EventRoundStarted,
		EventAnswersSubmitted, EventAnswersSubmitted, EventRoundEnded,
		EventRoundStarted,
		EventAnswersSubmitted, EventAnswersSubmitted, EventRoundEnded,
		EventGameFinished,
	}
	if diff := cmp.Diff(wantEvents, h.emitter.types()); diff != "" {
		t.Fatalf("event sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestTieGoesToEarliestJoiner(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	snap := h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")

	round := *snap.Round
	round.Categories = round.Categories[:2]
	_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "bob", answersFor(&round, true, 10))
	require.NoError(t, err)
	_, err = h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(&round, true, 10))
	require.NoError(t, err)

	done, err := h.svc.NextRound(lobby.RoomID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", done.Room.Winner)

	summary, err := h.svc.Summary(lobby.RoomID, "alice")
	require.NoError(t, err)
	want := []Standing{{Rank: 1, Username: "alice", Score: 300}, {Rank: 2, Username: "bob", Score: 300}}
	assert.Equal(t, want, summary.Ranking)
}

func TestJoinGuards(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice")

	_, err := h.svc.JoinRoom(lobby.JoinCode, "alice", "", false)
	requireCode(t, err, CodeBadRequest)

	_, err = h.svc.JoinRoom("ZZZZZZ", "bob", "", false)
	requireCode(t, err, CodeNotFound)

	_, err = h.svc.JoinRoom(lobby.JoinCode, "   ", "", false)
	requireCode(t, err, CodeBadRequest)

	for i := 1; i < DefaultMaxPlayers; i++ {
		_, err := h.svc.JoinRoom(lobby.JoinCode, fmt.Sprintf("p%d", i), "", true)
		require.NoError(t, err)
	}
	_, err = h.svc.JoinRoom(lobby.JoinCode, "late", "", false)
	requireCode(t, err, CodeBadRequest)
}

func TestJoinRejectedOnceStarted(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice")
	h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")

	_, err := h.svc.JoinRoom(lobby.JoinCode, "bob", "", false)
	requireCode(t, err, CodeBadRequest)
	assert.Contains(t, err.Error(), "game already started")
}

func TestHostOnlyActions(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")

	_, err := h.svc.UpdateConfig(lobby.RoomID, "bob", DefaultConfig())
	requireCode(t, err, CodeUnauthorized)
	_, err = h.svc.StartGame(lobby.RoomID, "bob", nil)
	requireCode(t, err, CodeUnauthorized)
	_, err = h.svc.StartGame(lobby.RoomID, "mallory", nil)
	requireCode(t, err, CodeUnauthorized)

	h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")
	_, err = h.svc.EndGame(lobby.RoomID, "bob")
	requireCode(t, err, CodeUnauthorized)
	_, err = h.svc.NextRound(lobby.RoomID, "bob")
	requireCode(t, err, CodeUnauthorized)
}

func TestPhaseGuards(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice")

	_, err := h.svc.NextRound(lobby.RoomID, "alice")
	requireCode(t, err, CodeBadRequest)
	_, err = h.svc.EndGame(lobby.RoomID, "alice")
	requireCode(t, err, CodeBadRequest)
	_, err = h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", nil)
	requireCode(t, err, CodeBadRequest)
	_, err = h.svc.RoundResults(lobby.RoomID, "alice", 0)
	requireCode(t, err, CodeBadRequest)

	h.start(t, lobby.RoomID, "alice", 2, "name", "food", "animal")
	_, err = h.svc.UpdateConfig(lobby.RoomID, "alice", DefaultConfig())
	requireCode(t, err, CodeBadRequest)
	_, err = h.svc.StartGame(lobby.RoomID, "alice", nil)
	requireCode(t, err, CodeBadRequest)
	_, err = h.svc.NextRound(lobby.RoomID, "alice")
	requireCode(t, err, CodeBadRequest)
	_, err = h.svc.RoundResults(lobby.RoomID, "alice", 1)
	requireCode(t, err, CodeBadRequest)
}

func TestConfigValidation(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice")

	cases := []struct {
		name string
		cfg  Config
	}{
		{"too few rounds", Config{RoundsCount: 0, SupportedCategories: []string{"name"}}},
		{"too many rounds", Config{RoundsCount: 11, SupportedCategories: []string{"name"}}},
		{"no categories", Config{RoundsCount: 3}},
		{"unknown category", Config{RoundsCount: 3, SupportedCategories: []string{"colour"}}},
		{"bad letter", Config{RoundsCount: 3, SupportedCategories: []string{"name"}, ExcludedLetters: []string{"AB"}}},
		{"digit letter", Config{RoundsCount: 3, SupportedCategories: []string{"name"}, ExcludedLetters: []string{"1"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.UpdateConfig(lobby.RoomID, "alice", tc.cfg)
			requireCode(t, err, CodeBadRequest)
		})
	}

	res, err := h.svc.UpdateConfig(lobby.RoomID, "alice", Config{
		RoundsCount:         4,
		SupportedCategories: []string{"Food", "name", "food"},
		ExcludedLetters:     []string{"x", "q", "X"},
	})
	require.NoError(t, err)
	assert.Equal(t, Config{
		RoundsCount:         4,
		SupportedCategories: []string{"food", "name"},
		ExcludedLetters:     []string{"Q", "X"},
	}, res.Room.Config)
}

func TestStartRejectedWhenLettersRunOut(t *testing.T) {
	h := newHarness(t, oracleFor("A", "B"))
	lobby := h.lobby(t, "alice")

	cfg := Config{RoundsCount: 3, SupportedCategories: []string{"name", "food", "animal"}}
	_, err := h.svc.StartGame(lobby.RoomID, "alice", &cfg)
	requireCode(t, err, CodeBadRequest)

	snap, err := h.svc.Snapshot(lobby.RoomID, "alice")
	require.NoError(t, err)
	assert.Equal(t, PhaseWaiting, snap.Phase)
	assert.Equal(t, DefaultRoundsCount, snap.Config.RoundsCount, "rejected start must not apply its config")

	h2 := newHarness(t, oracleFor())
	h2.svc.rounds = newSeededGenerator(staticOracle{letters: map[string]struct{}{"-": {}}}, 1, 1)
	lobby2 := h2.lobby(t, "alice")
	_, err = h2.svc.StartGame(lobby2.RoomID, "alice", nil)
	requireCode(t, err, CodeInternal)
}

func TestDuplicateSubmissionRejected(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	snap := h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")

	_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(snap.Round, true, 5))
	require.NoError(t, err)
	_, err = h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(snap.Round, true, 5))
	requireCode(t, err, CodeBadRequest)

	view, err := h.svc.Snapshot(lobby.RoomID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 375, view.Players[0].Score)
}

func TestSubmitRejectsForeignCategories(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	snap := h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")

	_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", []AnswerSubmission{{Category: "plant", Word: "x"}})
	requireCode(t, err, CodeBadRequest)

	c := snap.Round.Categories[0].ID
	_, err = h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", []AnswerSubmission{{Category: c, Word: "a"}, {Category: c, Word: "b"}})
	requireCode(t, err, CodeBadRequest)

	_, err = h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "mallory", nil)
	requireCode(t, err, CodeUnauthorized)
}

func TestSubmitClampsTimeLeft(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	snap := h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")

	c := snap.Round.Categories[0]
	res, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", []AnswerSubmission{
		{Category: c.ID, Word: snap.Round.Letter + "x", TimeLeft: 9999},
	})
	require.NoError(t, err)
	require.Len(t, res.Answers, 1)
	assert.Equal(t, c.TimeLimit, res.Answers[0].TimeLeft)
	assert.Equal(t, 100+5*c.TimeLimit, res.RoundScore)
}

func TestConcurrentSubmissionsEndRoundOnce(t *testing.T) {
	h := newHarness(t, staticOracle{})
	names := []string{"alice", "bob", "carol", "dave", "erin", "frank"}
	lobby := h.lobby(t, names...)
	snap := h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")

	var wg sync.WaitGroup
	errs := make(chan error, len(names)*2)
	for _, name := range names {
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, name, answersFor(snap.Round, true, 1))
				errs <- err
			}(name)
		}
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		requireCode(t, err, CodeBadRequest)
	}
	assert.Equal(t, len(names), ok)
	assert.Equal(t, 1, h.emitter.count(EventRoundEnded))

	view, err := h.svc.Snapshot(lobby.RoomID, "alice")
	require.NoError(t, err)
	assert.Equal(t, PhaseRoundEnd, view.Phase)
	for _, p := range view.Players {
		assert.Equal(t, 315, p.Score, p.Username)
	}
}

func TestPendingSubmissionBlocksSecondAttempt(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	snap := h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")

	h.validator.hold = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(snap.Round, true, 0))
		done <- err
	}()

	require.Eventually(t, func() bool {
		h.validator.mu.Lock()
		defer h.validator.mu.Unlock()
		return h.validator.calls == 1
	}, time.Second, 5*time.Millisecond)

	_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(snap.Round, true, 0))
	requireCode(t, err, CodeBadRequest)

	// Other rooms and players are not held up by the in-flight validation.
	_, err = h.svc.SendChat(lobby.RoomID, "bob", "hurry up")
	require.NoError(t, err)

	close(h.validator.hold)
	require.NoError(t, <-done)
}

func TestSubmissionFromEndedGameRejected(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	snap := h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")

	h.validator.hold = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "bob", answersFor(snap.Round, true, 0))
		done <- err
	}()

	require.Eventually(t, func() bool {
		h.validator.mu.Lock()
		defer h.validator.mu.Unlock()
		return h.validator.calls == 1
	}, time.Second, 5*time.Millisecond)

	_, err := h.svc.EndGame(lobby.RoomID, "alice")
	require.NoError(t, err)
	restarted := h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")
	require.Equal(t, 1, restarted.CurrentRound)

	close(h.validator.hold)
	requireCode(t, <-done, CodeBadRequest)

	view, err := h.svc.Snapshot(lobby.RoomID, "bob")
	require.NoError(t, err)
	assert.Equal(t, PhasePlaying, view.Phase)
	assert.False(t, view.Players[1].Submitted)
	assert.Zero(t, view.Players[1].Score)
	assert.Zero(t, h.emitter.count(EventAnswersSubmitted))

	res, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "bob", answersFor(restarted.Round, true, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Round)
	assert.False(t, res.RoundComplete)
}

func TestValidatorFailureReleasesSubmission(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	snap := h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")

	h.validator.err = errors.New("word store down")
	_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(snap.Round, true, 0))
	requireCode(t, err, CodeInternal)

	h.validator.err = nil
	_, err = h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(snap.Round, true, 0))
	require.NoError(t, err)
}

func TestEmptySubmissionSkipsValidator(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice")
	h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")

	res, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", nil)
	require.NoError(t, err)
	assert.True(t, res.RoundComplete)
	assert.Equal(t, 0, h.validator.calls)
}

func TestHostLeaveReassignsHost(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob", "carol")

	res, err := h.svc.Leave(lobby.RoomID, "alice")
	require.NoError(t, err)
	assert.False(t, res.Deleted)
	assert.Equal(t, "bob", res.NewHost)
	require.NotNil(t, res.Room)
	assert.Equal(t, "bob", res.Room.HostID)
	assert.Equal(t, RoleHost, res.Room.Players[0].Role)
	assert.Len(t, res.Room.Players, 2)
}

func TestLastPlayerLeaveDeletesRoom(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice")

	res, err := h.svc.Leave(lobby.RoomID, "alice")
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Nil(t, res.Room)
	assert.Equal(t, 0, h.svc.Registry().Len())

	_, err = h.svc.JoinRoom(lobby.JoinCode, "bob", "", false)
	requireCode(t, err, CodeNotFound)
	assert.Equal(t, 1, h.emitter.count(EventRoomDeleted))
}

func TestLeaveMidRoundCompletesRound(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	snap := h.start(t, lobby.RoomID, "alice", 2, "name", "food", "animal")

	_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(snap.Round, true, 0))
	require.NoError(t, err)

	res, err := h.svc.Leave(lobby.RoomID, "bob")
	require.NoError(t, err)
	assert.Equal(t, PhaseRoundEnd, res.Room.Phase)
	assert.Equal(t, 1, h.emitter.count(EventRoundEnded))
}

func TestRejoinRestoresState(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	snap := h.start(t, lobby.RoomID, "alice", 2, "name", "food", "animal")

	_, err := h.svc.AttachConnection(lobby.RoomID, "bob", "conn-1")
	require.NoError(t, err)
	_, err = h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "bob", answersFor(snap.Round, true, 2))
	require.NoError(t, err)
	_, err = h.svc.SendChat(lobby.RoomID, "bob", "brb")
	require.NoError(t, err)

	require.NoError(t, h.svc.Disconnect(lobby.RoomID, "bob", "conn-1"))
	view, err := h.svc.Snapshot(lobby.RoomID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusDisconnected, view.Players[1].Status)

	res, err := h.svc.RejoinRoom(lobby.JoinCode, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, PhasePlaying, res.Room.Phase)
	assert.Equal(t, 1, res.Room.CurrentRound)
	assert.Equal(t, StatusActive, res.Room.Players[1].Status)
	assert.Equal(t, 330, res.Room.Players[1].Score)
	assert.True(t, res.Room.Players[1].Submitted)
	require.Len(t, res.Room.Chat, 1)
	assert.Equal(t, "brb", res.Room.Chat[0].Message)

	_, err = h.svc.RejoinRoom(lobby.JoinCode, "stranger", "")
	requireCode(t, err, CodeNotFound)
}

func TestDisconnectedPlayerStillCountsTowardRound(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	snap := h.start(t, lobby.RoomID, "alice", 2, "name", "food", "animal")

	_, err := h.svc.AttachConnection(lobby.RoomID, "bob", "conn-1")
	require.NoError(t, err)
	require.NoError(t, h.svc.Disconnect(lobby.RoomID, "bob", "conn-1"))

	res, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(snap.Round, true, 0))
	require.NoError(t, err)
	assert.False(t, res.RoundComplete)
	assert.Equal(t, PhasePlaying, res.Room.Phase)
	assert.Zero(t, h.emitter.count(EventRoundEnded))

	_, err = h.svc.RejoinRoom(lobby.JoinCode, "bob", "")
	require.NoError(t, err)
	res, err = h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "bob", answersFor(snap.Round, true, 0))
	require.NoError(t, err)
	assert.True(t, res.RoundComplete)
	assert.Equal(t, PhaseRoundEnd, res.Room.Phase)
	assert.Equal(t, 1, h.emitter.count(EventRoundEnded))
}

func TestStaleConnectionCloseIgnored(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")

	_, err := h.svc.AttachConnection(lobby.RoomID, "bob", "old")
	require.NoError(t, err)
	_, err = h.svc.AttachConnection(lobby.RoomID, "bob", "new")
	require.NoError(t, err)
	before, err := h.svc.Snapshot(lobby.RoomID, "bob")
	require.NoError(t, err)

	require.NoError(t, h.svc.Disconnect(lobby.RoomID, "bob", "old"))
	require.NoError(t, h.svc.Disconnect(lobby.RoomID, "nobody", ""))

	view, err := h.svc.Snapshot(lobby.RoomID, "bob")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, view.Players[1].Status)
	assert.Zero(t, h.emitter.count(EventPlayerDisconnected))
	// Ignored closes must not keep an abandoned room alive.
	assert.Equal(t, before.LastActivity, view.LastActivity)

	require.NoError(t, h.svc.Disconnect(lobby.RoomID, "bob", "new"))
	require.NoError(t, h.svc.Disconnect(lobby.RoomID, "bob", ""))
	after, err := h.svc.Snapshot(lobby.RoomID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, h.emitter.count(EventPlayerDisconnected))
	assert.True(t, after.LastActivity.After(view.LastActivity))
}

func TestChatKeepsLastFifty(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice")

	for i := 1; i <= 55; i++ {
		_, err := h.svc.SendChat(lobby.RoomID, "alice", fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}
	view, err := h.svc.Snapshot(lobby.RoomID, "alice")
	require.NoError(t, err)
	require.Len(t, view.Chat, ChatCapacity)
	assert.Equal(t, "msg 6", view.Chat[0].Message)
	assert.Equal(t, "msg 55", view.Chat[ChatCapacity-1].Message)
}

func TestChatValidation(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice")

	_, err := h.svc.SendChat(lobby.RoomID, "alice", "   ")
	requireCode(t, err, CodeBadRequest)

	long := make([]rune, MaxChatLength+1)
	for i := range long {
		long[i] = 'é'
	}
	_, err = h.svc.SendChat(lobby.RoomID, "alice", string(long))
	requireCode(t, err, CodeBadRequest)

	_, err = h.svc.SendChat(lobby.RoomID, "mallory", "hi")
	requireCode(t, err, CodeUnauthorized)

	msg, err := h.svc.SendChat(lobby.RoomID, "alice", string(long[:MaxChatLength]))
	require.NoError(t, err)
	assert.Equal(t, "alice", msg.Username)
}

func TestEndGameResetsToLobby(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice", "bob")
	snap := h.start(t, lobby.RoomID, "alice", 2, "name", "food", "animal")

	_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(snap.Round, true, 3))
	require.NoError(t, err)

	res, err := h.svc.EndGame(lobby.RoomID, "alice")
	require.NoError(t, err)
	assert.Equal(t, PhaseWaiting, res.Room.Phase)
	assert.Zero(t, res.Room.CurrentRound)
	assert.Zero(t, res.Room.TotalRounds)
	assert.Nil(t, res.Room.Round)
	for _, p := range res.Room.Players {
		assert.Zero(t, p.Score)
	}

	again := h.start(t, lobby.RoomID, "alice", 1, "name", "food", "animal")
	assert.Equal(t, PhasePlaying, again.Phase)
}

func TestEvictIdleRooms(t *testing.T) {
	h := newHarness(t, staticOracle{})
	stale := h.lobby(t, "alice")
	h.clock.Advance(20 * time.Minute)
	fresh := h.lobby(t, "bob")
	h.clock.Advance(15 * time.Minute)

	evicted := h.svc.EvictIdle()
	assert.Equal(t, []string{stale.RoomID}, evicted)

	_, err := h.svc.Snapshot(stale.RoomID, "alice")
	requireCode(t, err, CodeNotFound)
	_, err = h.svc.Snapshot(fresh.RoomID, "bob")
	require.NoError(t, err)

	var deleted RoomDeleted
	for _, e := range h.emitter.events {
		if d, ok := e.(RoomDeleted); ok {
			deleted = d
		}
	}
	assert.Equal(t, DeleteReasonInactive, deleted.Reason)
	assert.Equal(t, stale.JoinCode, deleted.JoinCode)
}

func TestRoundResultsDefaultsToCurrentRound(t *testing.T) {
	h := newHarness(t, staticOracle{})
	lobby := h.lobby(t, "alice")
	snap := h.start(t, lobby.RoomID, "alice", 2, "name", "food", "animal")

	_, err := h.svc.SubmitAnswers(context.Background(), lobby.RoomID, "alice", answersFor(snap.Round, true, 0))
	require.NoError(t, err)

	report, err := h.svc.RoundResults(lobby.RoomID, "alice", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Number)
	assert.Equal(t, snap.Round.Letter, report.Letter)

	_, err = h.svc.RoundResults(lobby.RoomID, "alice", 2)
	requireCode(t, err, CodeBadRequest)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeNotFound, ErrorCode(errRoomNotFound))
	assert.Equal(t, CodeBadRequest, ErrorCode(fmt.Errorf("wrapped: %w", badRequest("nope"))))
	assert.Equal(t, CodeInternal, ErrorCode(errors.New("plain")))
}
