package service

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client represents one WebSocket connection joined to a room.
type Client struct {
	RoomID string
	PeerID string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu          sync.Mutex
	recordingID string
	closed      bool
}

// SetRecording associates the client's in-progress recording id.
func (c *Client) SetRecording(id string) {
	c.mu.Lock()
	c.recordingID = id
	c.mu.Unlock()
}

// TakeRecording returns the associated recording id and clears it, so a
// finalize on disconnect happens at most once per client.
func (c *Client) TakeRecording() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.recordingID
	c.recordingID = ""
	return id
}

// RoomHub tracks connected clients per room and the room -> active session id
// cache. The cache is rebuildable from the session ledger; only an explicit
// host stop clears an entry, never room emptiness.
type RoomHub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Client]struct{}
	sessions map[string]string // room id -> active session id
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewRoomHub creates a room hub.
func NewRoomHub(readBufferSize, writeBufferSize int, log *zap.Logger) *RoomHub {
	return &RoomHub{
		rooms:    make(map[string]map[*Client]struct{}),
		sessions: make(map[string]string),
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
	}
}

// Register adds a client to a room and returns it with a cleanup function.
func (h *RoomHub) Register(roomID, peerID, userID string, conn *websocket.Conn) (*Client, func()) {
	c := &Client{
		RoomID: roomID,
		PeerID: peerID,
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 64),
	}
	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
	h.mu.Unlock()

	h.log.Info("client joined room",
		zap.String("room_id", roomID),
		zap.String("peer_id", peerID),
		zap.String("user_id", userID))

	cleanup := func() {
		h.unregister(c)
	}
	return c, cleanup
}

func (h *RoomHub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.rooms[c.RoomID]
	if !ok {
		return
	}
	if _, ok := m[c]; !ok {
		return
	}
	delete(m, c)
	if len(m) == 0 {
		delete(h.rooms, c.RoomID)
	}
	c.mu.Lock()
	c.closed = true
	close(c.Send)
	c.mu.Unlock()
	h.log.Info("client left room",
		zap.String("room_id", c.RoomID),
		zap.String("peer_id", c.PeerID))
}

// Broadcast sends a frame to every client in the room.
func (h *RoomHub) Broadcast(roomID string, frame []byte) {
	h.sendToRoom(roomID, nil, frame)
}

// BroadcastExcept sends a frame to every client in the room except one.
func (h *RoomHub) BroadcastExcept(roomID string, except *Client, frame []byte) {
	h.sendToRoom(roomID, except, frame)
}

func (h *RoomHub) sendToRoom(roomID string, except *Client, frame []byte) {
	if frame == nil {
		return
	}
	h.mu.RLock()
	m, ok := h.rooms[roomID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	// Copy clients so we don't hold the lock while sending
	clients := make([]*Client, 0, len(m))
	for c := range m {
		if c != except {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Push(c, frame)
	}
}

// Push queues a frame for one client, dropping it if the buffer is full.
// Safe to call after the client unregistered; late frames are discarded.
func (h *RoomHub) Push(c *Client, frame []byte) {
	if frame == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- frame:
	default:
		h.log.Warn("client send buffer full, dropping frame",
			zap.String("room_id", c.RoomID),
			zap.String("peer_id", c.PeerID))
	}
}

// SessionID returns the active session id mapped to a room, if any.
func (h *RoomHub) SessionID(roomID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.sessions[roomID]
	return id, ok
}

// SetSession maps a room to a session id, overwriting any prior mapping.
func (h *RoomHub) SetSession(roomID, sessionID string) {
	h.mu.Lock()
	h.sessions[roomID] = sessionID
	h.mu.Unlock()
}

// ClearSession removes a room's session mapping and returns the old value.
func (h *RoomHub) ClearSession(roomID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.sessions[roomID]
	if ok {
		delete(h.sessions, roomID)
	}
	return id, ok
}

// RestoreSessions repopulates the room -> session cache from ledger state,
// called once at startup.
func (h *RoomHub) RestoreSessions(mapping map[string]string) {
	h.mu.Lock()
	for room, sid := range mapping {
		h.sessions[room] = sid
	}
	h.mu.Unlock()
	if len(mapping) > 0 {
		h.log.Info("restored active session mappings", zap.Int("count", len(mapping)))
	}
}

// RoomSize returns the number of clients in a room (for debugging).
func (h *RoomHub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *RoomHub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}
