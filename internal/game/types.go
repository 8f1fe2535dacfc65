package game

import "time"

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseStarting Phase = "starting"
	PhasePlaying  Phase = "playing"
	PhaseRoundEnd Phase = "round_end"
	PhaseFinished Phase = "finished"
)

type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

type PlayerStatus string

const (
	StatusActive       PlayerStatus = "active"
	StatusDisconnected PlayerStatus = "disconnected"
)

const (
	DefaultMaxPlayers     = 8
	DefaultRoundsCount    = 5
	MinRoundsCount        = 1
	MaxRoundsCount        = 10
	MinCategoriesPerRound = 3
	MaxCategoriesPerRound = 5
	ChatCapacity          = 50
	MaxChatLength         = 200
	MaxUsernameLength     = 24
	MaxAvatarLength       = 512
)

// Config is the host-editable game setup. It can only change while the room
// is waiting.
type Config struct {
	RoundsCount         int      `json:"rounds_count"`
	SupportedCategories []string `json:"supported_categories"`
	ExcludedLetters     []string `json:"excluded_letters"`
}

type Room struct {
	ID           string
	JoinCode     string
	HostID       string
	Phase        Phase
	Players      map[string]*Player
	MaxPlayers   int
	CurrentRound int
	Rounds       []Round
	Config       Config
	Chat         []ChatMessage
	CreatedAt    time.Time
	LastActivity time.Time
	Winner       string

	pending map[string]struct{}
	nextSeq int
	// generation changes whenever a game starts or is reset, so answers
	// validated against an earlier game cannot land in a later one.
	generation int
}

type Player struct {
	Username     string
	Avatar       string
	Guest        bool
	Role         Role
	Status       PlayerStatus
	CurrentScore int
	Answers      []Answer
	JoinedAt     time.Time
	LastActivity time.Time
	ConnID       string

	seq int
}

type Round struct {
	Number      int
	Letter      string
	Categories  []Category
	Submissions map[string]bool
	StartedAt   time.Time
	EndedAt     time.Time
}

type Answer struct {
	Round       int       `json:"round"`
	Category    string    `json:"category"`
	Word        string    `json:"word"`
	TimeLeft    int       `json:"time_left"`
	Valid       bool      `json:"valid"`
	Score       int       `json:"score"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ChatMessage struct {
	Username string    `json:"username"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

func (r *Room) touch(at time.Time) {
	r.LastActivity = at
}

func (r *Room) player(username string) (*Player, bool) {
	p, ok := r.Players[username]
	return p, ok
}

func (r *Room) currentRound() *Round {
	if r.CurrentRound <= 0 || r.CurrentRound > len(r.Rounds) {
		return nil
	}
	return &r.Rounds[r.CurrentRound-1]
}

func (r *Room) roundByNumber(number int) *Round {
	if number <= 0 || number > len(r.Rounds) {
		return nil
	}
	return &r.Rounds[number-1]
}

func (r *Room) allSubmitted() bool {
	round := r.currentRound()
	if round == nil || len(r.Players) == 0 {
		return false
	}
	return len(round.Submissions) == len(r.Players)
}

func (r *Room) appendChat(msg ChatMessage) {
	r.Chat = append(r.Chat, msg)
	if overflow := len(r.Chat) - ChatCapacity; overflow > 0 {
		trimmed := make([]ChatMessage, ChatCapacity)
		copy(trimmed, r.Chat[overflow:])
		r.Chat = trimmed
	}
}

func (c Config) clone() Config {
	out := Config{RoundsCount: c.RoundsCount}
	if c.SupportedCategories != nil {
		out.SupportedCategories = append([]string(nil), c.SupportedCategories...)
	}
	if c.ExcludedLetters != nil {
		out.ExcludedLetters = append([]string(nil), c.ExcludedLetters...)
	}
	return out
}
