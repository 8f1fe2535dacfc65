package game

import (
	"sort"
	"time"
)

type Snapshot struct {
	RoomID       string        `json:"room_id"`
	JoinCode     string        `json:"join_code"`
	HostID       string        `json:"host_id"`
	Phase        Phase         `json:"phase"`
	MaxPlayers   int           `json:"max_players"`
	CurrentRound int           `json:"current_round"`
	TotalRounds  int           `json:"total_rounds"`
	Config       Config        `json:"config"`
	Players      []PlayerView  `json:"players"`
	Round        *RoundView    `json:"round,omitempty"`
	Chat         []ChatMessage `json:"chat"`
	Winner       string        `json:"winner,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`
}

type PlayerView struct {
	Username  string       `json:"username"`
	Avatar    string       `json:"avatar,omitempty"`
	Guest     bool         `json:"guest"`
	Role      Role         `json:"role"`
	Status    PlayerStatus `json:"status"`
	Score     int          `json:"score"`
	Submitted bool         `json:"submitted"`
	JoinedAt  time.Time    `json:"joined_at"`
}

type RoundView struct {
	Number     int        `json:"number"`
	Letter     string     `json:"letter"`
	Categories []Category `json:"categories"`
	Submitted  []string   `json:"submitted"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// Standing is one line of a leaderboard. Rank is 1-based and unique; ties on
// score are already broken by join order.
type Standing struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type PlayerRoundResult struct {
	Username   string   `json:"username"`
	Submitted  bool     `json:"submitted"`
	RoundScore int      `json:"round_score"`
	TotalScore int      `json:"total_score"`
	Answers    []Answer `json:"answers"`
}

type RoundReport struct {
	Number     int                 `json:"number"`
	Letter     string              `json:"letter"`
	Categories []Category          `json:"categories"`
	Complete   bool                `json:"complete"`
	Results    []PlayerRoundResult `json:"results"`
}

type GameSummary struct {
	RoomID   string        `json:"room_id"`
	Phase    Phase         `json:"phase"`
	Winner   string        `json:"winner,omitempty"`
	Ranking  []Standing    `json:"ranking"`
	Rounds   []RoundReport `json:"rounds"`
	Finished bool          `json:"finished"`
}

func snapshotOf(room *Room) Snapshot {
	snap := Snapshot{
		RoomID:       room.ID,
		JoinCode:     room.JoinCode,
		HostID:       room.HostID,
		Phase:        room.Phase,
		MaxPlayers:   room.MaxPlayers,
		CurrentRound: room.CurrentRound,
		TotalRounds:  len(room.Rounds),
		Config:       room.Config.clone(),
		Players:      playerViews(room),
		Chat:         append([]ChatMessage{}, room.Chat...),
		Winner:       room.Winner,
		CreatedAt:    room.CreatedAt,
		LastActivity: room.LastActivity,
	}
	if round := room.currentRound(); round != nil && room.Phase != PhaseWaiting {
		view := roundView(room, round)
		snap.Round = &view
	}
	return snap
}

func playerViews(room *Room) []PlayerView {
	round := room.currentRound()
	players := orderedPlayers(room)
	views := make([]PlayerView, 0, len(players))
	for _, p := range players {
		views = append(views, playerView(p, round))
	}
	return views
}

func playerView(p *Player, round *Round) PlayerView {
	view := PlayerView{
		Username: p.Username,
		Avatar:   p.Avatar,
		Guest:    p.Guest,
		Role:     p.Role,
		Status:   p.Status,
		Score:    p.CurrentScore,
		JoinedAt: p.JoinedAt,
	}
	if round != nil {
		view.Submitted = round.Submissions[p.Username]
	}
	return view
}

func roundView(room *Room, round *Round) RoundView {
	view := RoundView{
		Number:     round.Number,
		Letter:     round.Letter,
		Categories: append([]Category(nil), round.Categories...),
		Submitted:  make([]string, 0, len(round.Submissions)),
	}
	for _, p := range orderedPlayers(room) {
		if round.Submissions[p.Username] {
			view.Submitted = append(view.Submitted, p.Username)
		}
	}
	if !round.StartedAt.IsZero() {
		at := round.StartedAt
		view.StartedAt = &at
	}
	if !round.EndedAt.IsZero() {
		at := round.EndedAt
		view.EndedAt = &at
	}
	return view
}

// orderedPlayers returns players in join order.
func orderedPlayers(room *Room) []*Player {
	players := make([]*Player, 0, len(room.Players))
	for _, p := range room.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return joinedBefore(players[i], players[j])
	})
	return players
}

func joinedBefore(a, b *Player) bool {
	if !a.JoinedAt.Equal(b.JoinedAt) {
		return a.JoinedAt.Before(b.JoinedAt)
	}
	return a.seq < b.seq
}

// ranking orders players by score, highest first. Equal scores go to the
// player who joined first.
func ranking(room *Room) []Standing {
	players := orderedPlayers(room)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].CurrentScore > players[j].CurrentScore
	})
	out := make([]Standing, 0, len(players))
	for i, p := range players {
		out = append(out, Standing{Rank: i + 1, Username: p.Username, Score: p.CurrentScore})
	}
	return out
}

func roundReport(room *Room, round *Round) RoundReport {
	report := RoundReport{
		Number:     round.Number,
		Letter:     round.Letter,
		Categories: append([]Category(nil), round.Categories...),
		Complete:   !round.EndedAt.IsZero(),
	}
	for _, p := range orderedPlayers(room) {
		result := PlayerRoundResult{
			Username:   p.Username,
			Submitted:  round.Submissions[p.Username],
			TotalScore: p.CurrentScore,
			Answers:    []Answer{},
		}
		for _, a := range p.Answers {
			if a.Round != round.Number {
				continue
			}
			result.Answers = append(result.Answers, a)
			result.RoundScore += a.Score
		}
		report.Results = append(report.Results, result)
	}
	return report
}
