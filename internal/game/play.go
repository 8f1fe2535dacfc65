package game

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxWordLength = 64

type AnswerInput struct {
	Letter   string
	Word     string
	Category string
	TimeLeft int
}

type AnswerVerdict struct {
	Valid   bool
	Score   int
	Comment string
}

// AnswerValidator scores a batch of answers. Results must be in input order.
type AnswerValidator interface {
	Validate(ctx context.Context, batch []AnswerInput) ([]AnswerVerdict, error)
}

type AnswerSubmission struct {
	Category string `json:"category"`
	Word     string `json:"word"`
	TimeLeft int    `json:"time_left"`
}

type SubmitResult struct {
	Room          Snapshot
	Round         int
	Answers       []Answer
	RoundScore    int
	TotalScore    int
	RoundComplete bool
	Events        []Event
}

// StartGame generates the rounds and moves the room into round 1. If cfg is
// non-nil it replaces the room config first, under the same rules as
// UpdateConfig.
func (s *Service) StartGame(roomID, username string, cfg *Config) (Result, error) {
	var res Result
	events, err := s.mutate(roomID, func(room *Room, now time.Time) ([]Event, error) {
		if _, err := requireHost(room, username); err != nil {
			return nil, err
		}
		if err := guardPhase(room, actionStart); err != nil {
			return nil, err
		}
		if len(room.Players) == 0 {
			return nil, badRequest("no players in room")
		}
		next := room.Config
		if cfg != nil {
			normalized, err := normalizeConfig(*cfg)
			if err != nil {
				return nil, err
			}
			next = normalized
		}
		rounds := s.rounds.Generate(next)
		if len(rounds) == 0 {
			return nil, internal(nil, "could not generate any rounds")
		}
		if len(rounds) < next.RoundsCount {
			return nil, badRequest("only %d of %d rounds possible with the chosen categories and letters", len(rounds), next.RoundsCount)
		}

		var events []Event
		if cfg != nil {
			room.Config = next
			events = append(events, ConfigUpdated{RoomID: room.ID, Config: next.clone()})
		}
		room.pending = make(map[string]struct{})
		events = append(events, beginGame(room, rounds, now)...)
		res.Room = snapshotOf(room)
		return events, nil
	})
	if err != nil {
		return Result{}, err
	}
	res.Events = events
	return res, nil
}

type submitTicket struct {
	generation int
	round      int
	inputs     []AnswerInput
}

// SubmitAnswers validates and records a player's answers for the current
// round. The validator runs without the room lock; the player is marked
// pending meanwhile so a second submission is refused instead of racing.
func (s *Service) SubmitAnswers(ctx context.Context, roomID, username string, answers []AnswerSubmission) (SubmitResult, error) {
	ticket, err := s.reserveSubmission(roomID, username, answers)
	if err != nil {
		return SubmitResult{}, err
	}

	var verdicts []AnswerVerdict
	if len(ticket.inputs) > 0 {
		verdicts, err = s.validate(ctx, ticket.inputs)
		if err != nil {
			s.releaseSubmission(roomID, username, ticket)
			return SubmitResult{}, err
		}
	}

	var res SubmitResult
	events, err := s.mutate(roomID, func(room *Room, now time.Time) ([]Event, error) {
		release(room, username, ticket)
		p, err := requireMember(room, username)
		if err != nil {
			return nil, err
		}
		if room.generation != ticket.generation || room.Phase != PhasePlaying || room.CurrentRound != ticket.round {
			return nil, badRequest("round %d is no longer accepting answers", ticket.round)
		}
		round := room.currentRound()
		if round.Submissions[username] {
			return nil, badRequest("answers already submitted for round %d", ticket.round)
		}

		recorded := make([]Answer, 0, len(ticket.inputs))
		roundScore := 0
		for i, in := range ticket.inputs {
			v := verdicts[i]
			score := v.Score
			if !v.Valid || score < 0 {
				score = 0
			}
			recorded = append(recorded, Answer{
				Round:       ticket.round,
				Category:    in.Category,
				Word:        in.Word,
				TimeLeft:    in.TimeLeft,
				Valid:       v.Valid,
				Score:       score,
				Comment:     v.Comment,
				SubmittedAt: now,
			})
			roundScore += score
		}
		p.Answers = append(p.Answers, recorded...)
		p.CurrentScore += roundScore
		p.LastActivity = now
		round.Submissions[username] = true

		events := []Event{AnswersSubmitted{
			RoomID:     room.ID,
			Round:      ticket.round,
			Username:   username,
			Submitted:  len(round.Submissions),
			Required:   len(room.Players),
			RoundScore: roundScore,
			TotalScore: p.CurrentScore,
		}}
		if room.allSubmitted() {
			events = append(events, endRound(room, now))
			res.RoundComplete = true
		}
		res.Room = snapshotOf(room)
		res.Round = ticket.round
		res.Answers = recorded
		res.RoundScore = roundScore
		res.TotalScore = p.CurrentScore
		return events, nil
	})
	if err != nil {
		return SubmitResult{}, err
	}
	res.Events = events
	return res, nil
}

func (s *Service) reserveSubmission(roomID, username string, answers []AnswerSubmission) (submitTicket, error) {
	var ticket submitTicket
	err := s.registry.Update(roomID, func(room *Room) error {
		if _, err := requireMember(room, username); err != nil {
			return err
		}
		if err := guardPhase(room, actionSubmit); err != nil {
			return err
		}
		round := room.currentRound()
		if round.Submissions[username] {
			return badRequest("answers already submitted for round %d", round.Number)
		}
		if _, busy := room.pending[username]; busy {
			return badRequest("answers already submitted for round %d", round.Number)
		}
		inputs, err := answerInputs(round, answers)
		if err != nil {
			return err
		}
		if room.pending == nil {
			room.pending = make(map[string]struct{})
		}
		room.pending[username] = struct{}{}
		ticket = submitTicket{generation: room.generation, round: round.Number, inputs: inputs}
		return nil
	})
	return ticket, err
}

func (s *Service) releaseSubmission(roomID, username string, ticket submitTicket) {
	_ = s.registry.Update(roomID, func(room *Room) error {
		release(room, username, ticket)
		return nil
	})
}

// release clears the reservation a ticket holds. A ticket from an earlier
// game holds none: resetting the room already dropped it.
func release(room *Room, username string, ticket submitTicket) {
	if room.generation == ticket.generation {
		delete(room.pending, username)
	}
}

func (s *Service) validate(ctx context.Context, inputs []AnswerInput) ([]AnswerVerdict, error) {
	if s.validator == nil {
		return nil, internal(errors.New("no answer validator configured"), "answers could not be checked")
	}
	verdicts, err := s.validator.Validate(ctx, inputs)
	if err != nil {
		return nil, internal(err, "answers could not be checked")
	}
	if len(verdicts) != len(inputs) {
		return nil, internal(errors.New("validator returned a mismatched batch"), "answers could not be checked")
	}
	return verdicts, nil
}

func answerInputs(round *Round, answers []AnswerSubmission) ([]AnswerInput, error) {
	limits := make(map[string]int, len(round.Categories))
	for _, c := range round.Categories {
		limits[c.ID] = c.TimeLimit
	}
	seen := make(map[string]struct{}, len(answers))
	inputs := make([]AnswerInput, 0, len(answers))
	for _, a := range answers {
		category := strings.ToLower(strings.TrimSpace(a.Category))
		limit, ok := limits[category]
		if !ok {
			return nil, badRequest("category %q is not part of round %d", a.Category, round.Number)
		}
		if _, dup := seen[category]; dup {
			return nil, badRequest("category %q answered more than once", category)
		}
		seen[category] = struct{}{}
		word := strings.Join(strings.Fields(a.Word), " ")
		if utf8.RuneCountInString(word) > maxWordLength {
			return nil, badRequest("answer for %q must be %d characters or fewer", category, maxWordLength)
		}
		timeLeft := a.TimeLeft
		if timeLeft < 0 {
			timeLeft = 0
		}
		if timeLeft > limit {
			timeLeft = limit
		}
		inputs = append(inputs, AnswerInput{
			Letter:   round.Letter,
			Word:     word,
			Category: category,
			TimeLeft: timeLeft,
		})
	}
	return inputs, nil
}

// NextRound is the host advancing from round_end: into the next round, or
// into finished after the last one.
func (s *Service) NextRound(roomID, username string) (Result, error) {
	var res Result
	events, err := s.mutate(roomID, func(room *Room, now time.Time) ([]Event, error) {
		if _, err := requireHost(room, username); err != nil {
			return nil, err
		}
		if err := guardPhase(room, actionNextRound); err != nil {
			return nil, err
		}
		var ev Event
		if room.CurrentRound < len(room.Rounds) {
			ev = startRound(room, room.CurrentRound+1, now)
		} else {
			ev = finishGame(room, now)
		}
		res.Room = snapshotOf(room)
		return []Event{ev}, nil
	})
	if err != nil {
		return Result{}, err
	}
	res.Events = events
	return res, nil
}

// EndGame sends a running or finished game back to the lobby, dropping
// rounds, scores and answers.
func (s *Service) EndGame(roomID, username string) (Result, error) {
	var res Result
	events, err := s.mutate(roomID, func(room *Room, now time.Time) ([]Event, error) {
		if _, err := requireHost(room, username); err != nil {
			return nil, err
		}
		if err := guardPhase(room, actionEndEarly); err != nil {
			return nil, err
		}
		resetToLobby(room)
		res.Room = snapshotOf(room)
		return []Event{GameEndedEarly{RoomID: room.ID, By: username}}, nil
	})
	if err != nil {
		return Result{}, err
	}
	res.Events = events
	return res, nil
}

// RoundResults reports a completed round. number 0 means the current round.
func (s *Service) RoundResults(roomID, username string, number int) (RoundReport, error) {
	var report RoundReport
	err := s.registry.Update(roomID, func(room *Room) error {
		if _, err := requireMember(room, username); err != nil {
			return err
		}
		if room.Phase == PhaseWaiting || room.CurrentRound == 0 {
			return badRequest("no rounds have been played")
		}
		if number == 0 {
			number = room.CurrentRound
		}
		if number < 1 || number > room.CurrentRound {
			return badRequest("round %d has not been played", number)
		}
		if number == room.CurrentRound && room.Phase == PhasePlaying {
			return badRequest("round %d is still in progress", number)
		}
		report = roundReport(room, room.roundByNumber(number))
		return nil
	})
	return report, err
}

// Summary is available once the last round has ended.
func (s *Service) Summary(roomID, username string) (GameSummary, error) {
	var summary GameSummary
	err := s.registry.Update(roomID, func(room *Room) error {
		if _, err := requireMember(room, username); err != nil {
			return err
		}
		if err := guardPhase(room, actionSummary); err != nil {
			return err
		}
		if room.Phase == PhaseRoundEnd && room.CurrentRound < len(room.Rounds) {
			return badRequest("game summary is available after the last round")
		}
		summary = GameSummary{
			RoomID:   room.ID,
			Phase:    room.Phase,
			Winner:   room.Winner,
			Ranking:  ranking(room),
			Finished: room.Phase == PhaseFinished,
		}
		for i := 0; i < room.CurrentRound; i++ {
			summary.Rounds = append(summary.Rounds, roundReport(room, &room.Rounds[i]))
		}
		return nil
	})
	return summary, err
}
