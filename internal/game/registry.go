package game

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type roomEntry struct {
	mu      sync.Mutex
	room    *Room
	removed bool
}

// Registry holds every live room. The maps are guarded by mu; each room is
// guarded by its own entry lock, so work on one room never waits on another.
// Lock order is always entry before registry.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*roomEntry
	codes   map[string]string
	newID   func() string
	newCode func() string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]*roomEntry),
		codes:   make(map[string]string),
		newID:   uuid.NewString,
		newCode: newJoinCode,
	}
}

// Create allocates an id and a join code and stores the room returned by
// build. build runs with the registry locked and must not call back into it.
// after, if set, runs with the new room locked, before any other caller can
// reach it.
func (r *Registry) Create(build func(id, code string) *Room, after func(room *Room)) *Room {
	r.mu.Lock()
	id := r.newID()
	for _, exists := r.rooms[id]; exists; _, exists = r.rooms[id] {
		id = r.newID()
	}
	code := uniqueJoinCode(r.newCode, func(candidate string) bool {
		_, taken := r.codes[candidate]
		return taken
	})
	room := build(id, code)
	room.ID = id
	room.JoinCode = code
	e := &roomEntry{room: room}
	// e is not published yet, so this cannot block.
	e.mu.Lock()
	r.rooms[id] = e
	r.codes[code] = id
	r.mu.Unlock()

	defer e.mu.Unlock()
	if after != nil {
		after(room)
	}
	return room
}

func (r *Registry) entry(id string) (*roomEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[id]
	return e, ok
}

// ResolveCode maps a join code to a room id. Codes are matched case
// insensitively.
func (r *Registry) ResolveCode(code string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.codes[strings.ToUpper(strings.TrimSpace(code))]
	return id, ok
}

// Update runs fn with exclusive access to the room. If fn returns an error
// the room must be left as it was.
func (r *Registry) Update(id string, fn func(room *Room) error) error {
	e, ok := r.entry(id)
	if !ok {
		return errRoomNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return errRoomNotFound
	}
	return fn(e.room)
}

// remove drops a room from both indexes. The caller must hold the room's
// entry lock, which is why this is only reachable from inside Update.
func (r *Registry) remove(room *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[room.ID]
	if !ok {
		return
	}
	e.removed = true
	delete(r.rooms, room.ID)
	if r.codes[room.JoinCode] == room.ID {
		delete(r.codes, room.JoinCode)
	}
}

// IDs lists live room ids in a stable order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
