package game

import "time"

type action string

const (
	actionJoin      action = "join"
	actionConfig    action = "update config"
	actionStart     action = "start game"
	actionSubmit    action = "submit answers"
	actionNextRound action = "next round"
	actionEndEarly  action = "end game"
	actionSummary   action = "game summary"
)

// allowedPhases lists the phases an action may be taken from. starting never
// appears because it only exists inside a single locked transition.
var allowedPhases = map[action][]Phase{
	actionJoin:      {PhaseWaiting},
	actionConfig:    {PhaseWaiting},
	actionStart:     {PhaseWaiting},
	actionSubmit:    {PhasePlaying},
	actionNextRound: {PhaseRoundEnd},
	actionEndEarly:  {PhasePlaying, PhaseRoundEnd, PhaseFinished},
	actionSummary:   {PhaseRoundEnd, PhaseFinished},
}

func guardPhase(room *Room, act action) error {
	for _, phase := range allowedPhases[act] {
		if room.Phase == phase {
			return nil
		}
	}
	return badRequest("cannot %s while room is %s", act, room.Phase)
}

func requireMember(room *Room, username string) (*Player, error) {
	p, ok := room.player(username)
	if !ok {
		return nil, errNotMember
	}
	return p, nil
}

func requireHost(room *Room, username string) (*Player, error) {
	p, err := requireMember(room, username)
	if err != nil {
		return nil, err
	}
	if room.HostID != username {
		return nil, errNotHost
	}
	return p, nil
}

// beginGame moves a waiting room through starting into round 1 of rounds.
func beginGame(room *Room, rounds []Round, at time.Time) []Event {
	room.Rounds = rounds
	room.CurrentRound = 0
	room.Winner = ""
	room.generation++
	for _, p := range room.Players {
		p.CurrentScore = 0
		p.Answers = nil
	}
	room.Phase = PhaseStarting
	views := make([]RoundView, 0, len(rounds))
	for i := range room.Rounds {
		views = append(views, roundView(room, &room.Rounds[i]))
	}
	events := []Event{GameStarted{
		RoomID:      room.ID,
		Phase:       PhaseStarting,
		Config:      room.Config.clone(),
		TotalRounds: len(rounds),
		Rounds:      views,
		Players:     playerViews(room),
		StartedAt:   at,
	}}
	return append(events, startRound(room, 1, at))
}

func startRound(room *Room, number int, at time.Time) Event {
	room.CurrentRound = number
	round := room.currentRound()
	round.StartedAt = at
	round.EndedAt = time.Time{}
	if round.Submissions == nil {
		round.Submissions = make(map[string]bool)
	}
	room.Phase = PhasePlaying
	return RoundStarted{
		RoomID:      room.ID,
		Round:       roundView(room, round),
		TotalRounds: len(room.Rounds),
	}
}

// endRound closes the current round once everyone has submitted.
func endRound(room *Room, at time.Time) Event {
	round := room.currentRound()
	round.EndedAt = at
	room.Phase = PhaseRoundEnd
	return RoundEnded{
		RoomID:    room.ID,
		Report:    roundReport(room, round),
		Standings: ranking(room),
		LastRound: room.CurrentRound == len(room.Rounds),
	}
}

// finishGame records the winner. It is only called once per game, on the
// round_end to finished transition.
func finishGame(room *Room, at time.Time) Event {
	standings := ranking(room)
	if len(standings) > 0 {
		room.Winner = standings[0].Username
	}
	room.Phase = PhaseFinished
	return GameFinished{
		RoomID:     room.ID,
		Winner:     room.Winner,
		Ranking:    standings,
		FinishedAt: at,
	}
}

func resetToLobby(room *Room) {
	room.generation++
	room.Phase = PhaseWaiting
	room.Rounds = nil
	room.CurrentRound = 0
	room.Winner = ""
	room.pending = make(map[string]struct{})
	for _, p := range room.Players {
		p.CurrentScore = 0
		p.Answers = nil
	}
}

// dropFromRounds removes a departing player from every submission set and,
// if that leaves everyone remaining submitted, closes the round.
func dropFromRounds(room *Room, username string, at time.Time) []Event {
	for i := range room.Rounds {
		delete(room.Rounds[i].Submissions, username)
	}
	delete(room.pending, username)
	if room.Phase == PhasePlaying && room.allSubmitted() {
		return []Event{endRound(room, at)}
	}
	return nil
}

// promoteHost hands host rights to the earliest joined remaining player.
func promoteHost(room *Room) string {
	players := orderedPlayers(room)
	if len(players) == 0 {
		room.HostID = ""
		return ""
	}
	next := players[0]
	next.Role = RoleHost
	room.HostID = next.Username
	return next.Username
}
