package game

import "time"

type EventType string

const (
	EventRoomCreated        EventType = "room_created"
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerLeft         EventType = "player_left"
	EventPlayerRejoined     EventType = "player_rejoined"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventConfigUpdated      EventType = "config_updated"
	EventGameStarted        EventType = "game_started"
	EventAnswersSubmitted   EventType = "answers_submitted"
	EventRoundEnded         EventType = "round_ended"
	EventRoundStarted       EventType = "round_started"
	EventGameFinished       EventType = "game_finished"
	EventGameEndedEarly     EventType = "game_ended_early"
	EventRoomDeleted        EventType = "room_deleted"
	EventChatMessage        EventType = "chat_message"
)

// Event is a domain event produced by a room transition. Every concrete event
// is scoped to exactly one room.
type Event interface {
	Type() EventType
	Room() string
}

// Emitter receives events in the order they were produced for a room. Emit is
// called while the room is locked and must not block for long.
type Emitter interface {
	Emit(events ...Event)
}

type EmitterFunc func(events ...Event)

func (f EmitterFunc) Emit(events ...Event) {
	f(events...)
}

type RoomCreated struct {
	RoomID     string     `json:"room_id"`
	JoinCode   string     `json:"join_code"`
	Host       PlayerView `json:"host"`
	MaxPlayers int        `json:"max_players"`
	Config     Config     `json:"config"`
	CreatedAt  time.Time  `json:"created_at"`
}

type PlayerJoined struct {
	RoomID string     `json:"room_id"`
	Player PlayerView `json:"player"`
}

type PlayerLeft struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
	NewHost  string `json:"new_host,omitempty"`
}

type PlayerRejoined struct {
	RoomID string     `json:"room_id"`
	Player PlayerView `json:"player"`
}

type PlayerDisconnected struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

type ConfigUpdated struct {
	RoomID string `json:"room_id"`
	Config Config `json:"config"`
}

type GameStarted struct {
	RoomID      string       `json:"room_id"`
	Phase       Phase        `json:"phase"`
	Config      Config       `json:"config"`
	TotalRounds int          `json:"total_rounds"`
	Rounds      []RoundView  `json:"rounds"`
	Players     []PlayerView `json:"players"`
	StartedAt   time.Time    `json:"started_at"`
}

type AnswersSubmitted struct {
	RoomID     string `json:"room_id"`
	Round      int    `json:"round"`
	Username   string `json:"username"`
	Submitted  int    `json:"submitted"`
	Required   int    `json:"required"`
	RoundScore int    `json:"round_score"`
	TotalScore int    `json:"total_score"`
}

type RoundEnded struct {
	RoomID    string      `json:"room_id"`
	Report    RoundReport `json:"report"`
	Standings []Standing  `json:"standings"`
	LastRound bool        `json:"last_round"`
}

type RoundStarted struct {
	RoomID      string    `json:"room_id"`
	Round       RoundView `json:"round"`
	TotalRounds int       `json:"total_rounds"`
}

type GameFinished struct {
	RoomID     string     `json:"room_id"`
	Winner     string     `json:"winner,omitempty"`
	Ranking    []Standing `json:"ranking"`
	FinishedAt time.Time  `json:"finished_at"`
}

type GameEndedEarly struct {
	RoomID string `json:"room_id"`
	By     string `json:"by"`
}

type RoomDeleted struct {
	RoomID   string `json:"room_id"`
	JoinCode string `json:"join_code"`
	Reason   string `json:"reason"`
}

type ChatPosted struct {
	RoomID  string      `json:"room_id"`
	Message ChatMessage `json:"message"`
}

func (e RoomCreated) Type() EventType        { return EventRoomCreated }
func (e PlayerJoined) Type() EventType       { return EventPlayerJoined }
func (e PlayerLeft) Type() EventType         { return EventPlayerLeft }
func (e PlayerRejoined) Type() EventType     { return EventPlayerRejoined }
func (e PlayerDisconnected) Type() EventType { return EventPlayerDisconnected }
func (e ConfigUpdated) Type() EventType      { return EventConfigUpdated }
func (e GameStarted) Type() EventType        { return EventGameStarted }
func (e AnswersSubmitted) Type() EventType   { return EventAnswersSubmitted }
func (e RoundEnded) Type() EventType         { return EventRoundEnded }
func (e RoundStarted) Type() EventType       { return EventRoundStarted }
func (e GameFinished) Type() EventType       { return EventGameFinished }
func (e GameEndedEarly) Type() EventType     { return EventGameEndedEarly }
func (e RoomDeleted) Type() EventType        { return EventRoomDeleted }
func (e ChatPosted) Type() EventType         { return EventChatMessage }

func (e RoomCreated) Room() string        { return e.RoomID }
func (e PlayerJoined) Room() string       { return e.RoomID }
func (e PlayerLeft) Room() string         { return e.RoomID }
func (e PlayerRejoined) Room() string     { return e.RoomID }
func (e PlayerDisconnected) Room() string { return e.RoomID }
func (e ConfigUpdated) Room() string      { return e.RoomID }
func (e GameStarted) Room() string        { return e.RoomID }
func (e AnswersSubmitted) Room() string   { return e.RoomID }
func (e RoundEnded) Room() string         { return e.RoomID }
func (e RoundStarted) Room() string       { return e.RoomID }
func (e GameFinished) Room() string       { return e.RoomID }
func (e GameEndedEarly) Room() string     { return e.RoomID }
func (e RoomDeleted) Room() string        { return e.RoomID }
func (e ChatPosted) Room() string         { return e.RoomID }

const (
	DeleteReasonEmpty    = "empty"
	DeleteReasonInactive = "inactive"
)
