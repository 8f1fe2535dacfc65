package game

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

type Settings struct {
	MaxPlayers          int
	MinWordsPerCategory int
	IdleTimeout         time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:          DefaultMaxPlayers,
		MinWordsPerCategory: 1,
		IdleTimeout:         30 * time.Minute,
	}
}

// Service is the room state machine. All entry points return either a
// result or a *Error; emitted events reach the Emitter in per-room order.
type Service struct {
	registry  *Registry
	rounds    *RoundGenerator
	validator AnswerValidator
	emitter   Emitter
	settings  Settings
	now       func() time.Time
}

func NewService(registry *Registry, oracle CategoryOracle, validator AnswerValidator, emitter Emitter, settings Settings) *Service {
	if settings.MaxPlayers <= 0 {
		settings.MaxPlayers = DefaultMaxPlayers
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		registry:  registry,
		rounds:    NewRoundGenerator(oracle, settings.MinWordsPerCategory),
		validator: validator,
		emitter:   emitter,
		settings:  settings,
		now:       timeNowUTC,
	}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// Result is what a successful room mutation returns: the room as it is right
// after the mutation and the events it produced.
type Result struct {
	Room   Snapshot `json:"room"`
	Events []Event  `json:"-"`
}

type LeaveResult struct {
	Deleted bool
	NewHost string
	Room    *Snapshot
	Events  []Event
}

func (s *Service) emit(events []Event) {
	if s.emitter == nil || len(events) == 0 {
		return
	}
	s.emitter.Emit(events...)
}

// mutate runs fn under the room lock, stamps activity, and emits the events
// fn returns before the lock is released.
func (s *Service) mutate(roomID string, fn func(room *Room, now time.Time) ([]Event, error)) ([]Event, error) {
	var events []Event
	err := s.registry.Update(roomID, func(room *Room) error {
		now := s.now()
		evs, err := fn(room, now)
		if err != nil {
			return err
		}
		room.touch(now)
		s.emit(evs)
		events = evs
		return nil
	})
	return events, err
}

func (s *Service) CreateRoom(username, avatar string, guest bool) (Result, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return Result{}, err
	}
	avatar, err = normalizeAvatar(avatar)
	if err != nil {
		return Result{}, err
	}
	now := s.now()
	var res Result
	s.registry.Create(func(id, code string) *Room {
		host := &Player{
			Username:     name,
			Avatar:       avatar,
			Guest:        guest,
			Role:         RoleHost,
			Status:       StatusActive,
			JoinedAt:     now,
			LastActivity: now,
		}
		return &Room{
			HostID:       name,
			Phase:        PhaseWaiting,
			Players:      map[string]*Player{name: host},
			MaxPlayers:   s.settings.MaxPlayers,
			Config:       DefaultConfig(),
			Chat:         []ChatMessage{},
			CreatedAt:    now,
			LastActivity: now,
			pending:      make(map[string]struct{}),
			nextSeq:      1,
		}
	}, func(room *Room) {
		events := []Event{RoomCreated{
			RoomID:     room.ID,
			JoinCode:   room.JoinCode,
			Host:       playerView(room.Players[name], nil),
			MaxPlayers: room.MaxPlayers,
			Config:     room.Config.clone(),
			CreatedAt:  now,
		}}
		s.emit(events)
		res = Result{Room: snapshotOf(room), Events: events}
	})
	return res, nil
}

func (s *Service) resolve(code string) (string, error) {
	id, ok := s.registry.ResolveCode(code)
	if !ok {
		return "", notFound("no room with join code %q", strings.ToUpper(strings.TrimSpace(code)))
	}
	return id, nil
}

func (s *Service) JoinRoom(code, username, avatar string, guest bool) (Result, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return Result{}, err
	}
	avatar, err = normalizeAvatar(avatar)
	if err != nil {
		return Result{}, err
	}
	roomID, err := s.resolve(code)
	if err != nil {
		return Result{}, err
	}
	var res Result
	res.Events, err = s.mutate(roomID, func(room *Room, now time.Time) ([]Event, error) {
		if err := guardPhase(room, actionJoin); err != nil {
			return nil, badRequest("game already started")
		}
		if _, exists := room.Players[name]; exists {
			return nil, badRequest("username %q is already in this room", name)
		}
		if len(room.Players) >= room.MaxPlayers {
			return nil, badRequest("room is full")
		}
		p := &Player{
			Username:     name,
			Avatar:       avatar,
			Guest:        guest,
			Role:         RolePlayer,
			Status:       StatusActive,
			JoinedAt:     now,
			LastActivity: now,
			seq:          room.nextSeq,
		}
		room.nextSeq++
		room.Players[name] = p
		res.Room = snapshotOf(room)
		return []Event{PlayerJoined{RoomID: room.ID, Player: playerView(p, room.currentRound())}}, nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// RejoinRoom restores an existing member after a lost connection. It never
// adds a new player.
func (s *Service) RejoinRoom(code, username, avatar string) (Result, error) {
	name := strings.TrimSpace(username)
	avatar, err := normalizeAvatar(avatar)
	if err != nil {
		return Result{}, err
	}
	roomID, err := s.resolve(code)
	if err != nil {
		return Result{}, err
	}
	var res Result
	res.Events, err = s.mutate(roomID, func(room *Room, now time.Time) ([]Event, error) {
		p, ok := room.player(name)
		if !ok {
			return nil, notFound("%q has not joined this room", name)
		}
		p.Status = StatusActive
		p.LastActivity = now
		if avatar != "" {
			p.Avatar = avatar
		}
		res.Room = snapshotOf(room)
		return []Event{PlayerRejoined{RoomID: room.ID, Player: playerView(p, room.currentRound())}}, nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// AttachConnection records the transport handle of a member's live socket.
// A disconnected member is marked active again.
func (s *Service) AttachConnection(roomID, username, connID string) (Snapshot, error) {
	var snap Snapshot
	_, err := s.mutate(roomID, func(room *Room, now time.Time) ([]Event, error) {
		p, err := requireMember(room, username)
		if err != nil {
			return nil, err
		}
		p.ConnID = connID
		p.LastActivity = now
		var events []Event
		if p.Status == StatusDisconnected {
			p.Status = StatusActive
			events = append(events, PlayerRejoined{RoomID: room.ID, Player: playerView(p, room.currentRound())})
		}
		snap = snapshotOf(room)
		return events, nil
	})
	return snap, err
}

// Disconnect marks a member disconnected when the socket identified by
// connID goes away. A stale connID, e.g. from a socket replaced by a rejoin,
// is ignored. Disconnected players still count towards round completion.
// Ignored closes leave lastActivity untouched so they do not delay eviction.
func (s *Service) Disconnect(roomID, username, connID string) error {
	return s.registry.Update(roomID, func(room *Room) error {
		p, ok := room.player(username)
		if !ok {
			return nil
		}
		if connID != "" && p.ConnID != connID {
			return nil
		}
		if p.Status == StatusDisconnected {
			return nil
		}
		p.Status = StatusDisconnected
		p.ConnID = ""
		room.touch(s.now())
		s.emit([]Event{PlayerDisconnected{RoomID: room.ID, Username: p.Username}})
		return nil
	})
}

func (s *Service) Leave(roomID, username string) (LeaveResult, error) {
	var res LeaveResult
	events, err := s.mutate(roomID, func(room *Room, now time.Time) ([]Event, error) {
		p, err := requireMember(room, username)
		if err != nil {
			return nil, err
		}
		delete(room.Players, p.Username)
		if len(room.Players) == 0 {
			s.registry.remove(room)
			res.Deleted = true
			return []Event{
				PlayerLeft{RoomID: room.ID, Username: p.Username},
				RoomDeleted{RoomID: room.ID, JoinCode: room.JoinCode, Reason: DeleteReasonEmpty},
			}, nil
		}
		left := PlayerLeft{RoomID: room.ID, Username: p.Username}
		if room.HostID == p.Username {
			left.NewHost = promoteHost(room)
			res.NewHost = left.NewHost
		}
		events := []Event{left}
		events = append(events, dropFromRounds(room, p.Username, now)...)
		snap := snapshotOf(room)
		res.Room = &snap
		return events, nil
	})
	if err != nil {
		return LeaveResult{}, err
	}
	res.Events = events
	return res, nil
}

func (s *Service) SendChat(roomID, username, message string) (ChatMessage, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		return ChatMessage{}, badRequest("message is required")
	}
	if utf8.RuneCountInString(text) > MaxChatLength {
		return ChatMessage{}, badRequest("message must be %d characters or fewer", MaxChatLength)
	}
	var msg ChatMessage
	_, err := s.mutate(roomID, func(room *Room, now time.Time) ([]Event, error) {
		p, err := requireMember(room, username)
		if err != nil {
			return nil, err
		}
		p.LastActivity = now
		msg = ChatMessage{Username: p.Username, Message: text, SentAt: now}
		room.appendChat(msg)
		return []Event{ChatPosted{RoomID: room.ID, Message: msg}}, nil
	})
	if err != nil {
		return ChatMessage{}, err
	}
	return msg, nil
}

func (s *Service) UpdateConfig(roomID, username string, cfg Config) (Result, error) {
	var res Result
	events, err := s.mutate(roomID, func(room *Room, now time.Time) ([]Event, error) {
		if _, err := requireHost(room, username); err != nil {
			return nil, err
		}
		if err := guardPhase(room, actionConfig); err != nil {
			return nil, err
		}
		normalized, err := normalizeConfig(cfg)
		if err != nil {
			return nil, err
		}
		room.Config = normalized
		res.Room = snapshotOf(room)
		return []Event{ConfigUpdated{RoomID: room.ID, Config: normalized.clone()}}, nil
	})
	if err != nil {
		return Result{}, err
	}
	res.Events = events
	return res, nil
}

// Snapshot returns the full room state for a member.
func (s *Service) Snapshot(roomID, username string) (Snapshot, error) {
	var snap Snapshot
	err := s.registry.Update(roomID, func(room *Room) error {
		if _, err := requireMember(room, username); err != nil {
			return err
		}
		snap = snapshotOf(room)
		return nil
	})
	return snap, err
}

// EvictIdle removes rooms with no activity for longer than the idle timeout
// and returns their ids.
func (s *Service) EvictIdle() []string {
	if s.settings.IdleTimeout <= 0 {
		return nil
	}
	var evicted []string
	for _, id := range s.registry.IDs() {
		_ = s.registry.Update(id, func(room *Room) error {
			now := s.now()
			if now.Sub(room.LastActivity) <= s.settings.IdleTimeout {
				return nil
			}
			s.registry.remove(room)
			s.emit([]Event{RoomDeleted{RoomID: room.ID, JoinCode: room.JoinCode, Reason: DeleteReasonInactive}})
			evicted = append(evicted, room.ID)
			return nil
		})
	}
	return evicted
}

func normalizeUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", badRequest("username is required")
	}
	if utf8.RuneCountInString(name) > MaxUsernameLength {
		return "", badRequest("username must be %d characters or fewer", MaxUsernameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", badRequest("username contains unsupported characters")
		}
	}
	return name, nil
}

func normalizeAvatar(raw string) (string, error) {
	avatar := strings.TrimSpace(raw)
	if len(avatar) > MaxAvatarLength {
		return "", badRequest("avatar must be %d bytes or fewer", MaxAvatarLength)
	}
	return avatar, nil
}
