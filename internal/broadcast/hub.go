package broadcast

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second

	// Buffered sends per connection. A client that falls this far behind
	// is dropped rather than allowed to stall the whole session.
	sendQueueSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Envelope is the wire format for every broadcast message.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// clientMessage is what a connected client may send: currently only a
// request to join a session room.
type clientMessage struct {
	Action    string `json:"action"`
	SessionID string `json:"sessionId"`
}

type connection struct {
	ws   *websocket.Conn
	send chan Envelope
}

// WebsocketHub implements Hub over gorilla websockets with one room per
// session id. Connections join a room with a {"action":"joinSession"}
// message and are removed on disconnect.
type WebsocketHub struct {
	mu    sync.RWMutex
	rooms map[string]map[*connection]struct{}
}

func NewWebsocketHub() *WebsocketHub {
	return &WebsocketHub{rooms: make(map[string]map[*connection]struct{})}
}

// HandleWS upgrades the request and services the connection until it
// closes. Blocks for the lifetime of the connection.
func (h *WebsocketHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	conn := &connection{ws: ws, send: make(chan Envelope, sendQueueSize)}
	go conn.writeLoop()
	h.readLoop(conn)
}

// readLoop consumes client messages until the connection drops, then
// leaves all rooms.
func (h *WebsocketHub) readLoop(conn *connection) {
	defer func() {
		h.leaveAll(conn)
		close(conn.send)
		conn.ws.Close()
	}()

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("ignoring malformed websocket message", "error", err)
			continue
		}

		switch msg.Action {
		case "joinSession":
			if msg.SessionID != "" {
				h.join(msg.SessionID, conn)
			}
		case "leaveSession":
			if msg.SessionID != "" {
				h.leave(msg.SessionID, conn)
			}
		}
	}
}

func (c *connection) writeLoop() {
	for env := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.ws.WriteJSON(env); err != nil {
			return
		}
	}
}

func (h *WebsocketHub) join(sessionID string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*connection]struct{})
		h.rooms[sessionID] = room
	}
	room[conn] = struct{}{}
}

func (h *WebsocketHub) leave(sessionID string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[sessionID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
	}
}

func (h *WebsocketHub) leaveAll(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, room := range h.rooms {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
	}
}

// Emit sends the event to every member of the session room. Members whose
// send queue is full are dropped from the room; they reconcile with a
// snapshot fetch when they reconnect.
func (h *WebsocketHub) Emit(sessionID, event string, payload any) {
	env := Envelope{Event: event, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	for conn := range room {
		select {
		case conn.send <- env:
		default:
			slog.Warn("dropping slow websocket client", "session", sessionID, "event", event)
			delete(room, conn)
		}
	}
	if len(room) == 0 {
		delete(h.rooms, sessionID)
	}
}
