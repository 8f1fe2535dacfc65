package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"wordrush/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 5 * time.Second
	maxInboundSize = 4096
)

type wsClient struct {
	id       string
	username string
	conn     *websocket.Conn

	// mu serialises writes; gorilla connections allow one writer at a time.
	mu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(data)
}

func (c *wsClient) writeLocked(data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type wsHub struct {
	mu    sync.Mutex
	rooms map[string]map[*wsClient]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		rooms: make(map[string]map[*wsClient]struct{}),
	}
}

func (h *wsHub) Add(roomID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[roomID]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.rooms[roomID] = group
	}
	group[client] = struct{}{}
}

func (h *wsHub) Remove(roomID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[roomID]
	if group == nil {
		return
	}
	delete(group, client)
	_ = client.conn.Close()
	if len(group) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *wsHub) clients(roomID string) []*wsClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[roomID]
	out := make([]*wsClient, 0, len(group))
	for client := range group {
		out = append(out, client)
	}
	return out
}

func (h *wsHub) Count(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

func (h *wsHub) Broadcast(roomID string, payload any) {
	clients := h.clients(roomID)
	if len(clients) == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("ws encode failed")
		return
	}
	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.Remove(roomID, client)
		}
	}
}

// Drop closes the sockets of one member, or of every member when username is
// empty.
func (h *wsHub) Drop(roomID, username string) {
	for _, client := range h.clients(roomID) {
		if username == "" || client.username == username {
			h.Remove(roomID, client)
		}
	}
}

// broadcastEvent is the websocket sink of the dispatcher.
func (s *Server) broadcastEvent(e game.Event) {
	s.ws.Broadcast(e.Room(), eventEnvelope(e))
	switch ev := e.(type) {
	case game.PlayerLeft:
		s.ws.Drop(ev.RoomID, ev.Username)
	case game.RoomDeleted:
		s.ws.Drop(ev.RoomID, "")
	}
}

func (s *Server) handleWebsocket(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	var query memberQuery
	if !bindQuery(c, &query) {
		return
	}
	if _, err := s.svc.Snapshot(uri.ID, query.Username); err != nil {
		writeGameError(c, err)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(maxInboundSize)
	client := &wsClient{id: uuid.NewString(), username: query.Username, conn: conn}

	// Hold the write lock until the snapshot is out so it is the first frame.
	client.mu.Lock()
	s.ws.Add(uri.ID, client)
	snap, err := s.svc.AttachConnection(uri.ID, query.Username, client.id)
	if err != nil {
		client.mu.Unlock()
		s.ws.Remove(uri.ID, client)
		return
	}
	data, err := json.Marshal(snapshotEnvelope(snap))
	if err == nil {
		err = client.writeLocked(data)
	}
	client.mu.Unlock()
	if err != nil {
		s.ws.Remove(uri.ID, client)
		_ = s.svc.Disconnect(uri.ID, query.Username, client.id)
		return
	}
	log.Info().Str("room_id", uri.ID).Str("username", query.Username).Str("conn_id", client.id).Msg("ws connected")
	go s.readWS(uri.ID, client)
}

// readWS drains the socket until it closes. Clients only listen; commands go
// through the REST endpoints.
func (s *Server) readWS(roomID string, client *wsClient) {
	defer func() {
		s.ws.Remove(roomID, client)
		if err := s.svc.Disconnect(roomID, client.username, client.id); err != nil && game.ErrorCode(err) != game.CodeNotFound {
			log.Warn().Err(err).Str("room_id", roomID).Str("username", client.username).Msg("ws disconnect failed")
		}
	}()
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			log.Debug().Err(err).Str("room_id", roomID).Str("username", client.username).Msg("ws disconnected")
			return
		}
	}
}
