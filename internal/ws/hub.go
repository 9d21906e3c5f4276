package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// ClientMessageHandler handles the lifecycle and incoming messages of
// chat client connections.
type ClientMessageHandler interface {
	HandleConnect(userID string)
	HandleDisconnect(userID string)
	HandleMarkRead(userID, conversationID string) error
	HandleTyping(userID, conversationID string)
	HandleOpenConversation(userID, conversationID string) error
	HandleCloseConversation(userID string)
	HandleLoadOlder(userID string) error
}

// PresenceSink is fed by connection lifecycle events; the presence tracker
// implements it.
type PresenceSink interface {
	Connected(userID string)
	Disconnected(userID string)
	Heartbeat(userID string)
}

// Event represents a WebSocket event sent to chat clients.
type Event struct {
	Type string      `json:"type"` // "message:new", "conversation:update", "typing", "read_receipt"
	Data interface{} `json:"data"`
}

type envelope struct {
	userIDs []string
	data    []byte
}

// Hub maintains the set of active WebSocket clients, keyed by user, and
// delivers events to conversation participants only.
type Hub struct {
	clients    map[*Client]bool
	byUser     map[string]map[*Client]bool
	send       chan *envelope
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	handler    ClientMessageHandler
	presence   PresenceSink
	log        *slog.Logger
}

// NewHub creates a new Hub instance.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
		send:       make(chan *envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// SetHandler sets the handler for incoming client messages.
func (h *Hub) SetHandler(handler ClientMessageHandler) {
	h.handler = handler
}

// SetPresence wires connection events into the presence tracker.
func (h *Hub) SetPresence(sink PresenceSink) {
	h.presence = sink
}

// Run starts the hub's event loop. Should be called in a goroutine.
//
// The loop does map bookkeeping and delivery only. Presence and session
// callbacks run on the connection goroutines (ServeWs / readPump): they
// can fan events back out through SendToUsers, and a callback running on
// this goroutine would block on the very channel this loop drains.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if h.byUser[client.userID] == nil {
				h.byUser[client.userID] = make(map[*Client]bool)
			}
			h.byUser[client.userID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				delete(h.byUser[client.userID], client)
				if len(h.byUser[client.userID]) == 0 {
					delete(h.byUser, client.userID)
				}
				close(client.send)
			}
			h.mu.Unlock()

		case env := <-h.send:
			h.mu.Lock()
			for _, userID := range env.userIDs {
				for client := range h.byUser[userID] {
					select {
					case client.send <- env.data:
					default:
						close(client.send)
						delete(h.clients, client)
						delete(h.byUser[userID], client)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToUsers delivers an event to every live connection of the given
// users. Implements the chat service's Broadcaster.
func (h *Hub) SendToUsers(userIDs []string, event string, data any) {
	payload, err := json.Marshal(&Event{Type: event, Data: data})
	if err != nil {
		if h.log != nil {
			h.log.Warn("failed to marshal ws event", slog.String("event", event), slog.String("error", err.Error()))
		}
		return
	}
	h.send <- &envelope{userIDs: userIDs, data: payload}
}

// clientEvent represents an incoming WebSocket message from a chat client.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleClientMessage parses and dispatches an incoming message from a
// client.
func (h *Hub) HandleClientMessage(userID string, raw []byte) {
	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		if h.log != nil {
			h.log.Warn("failed to parse client ws message", slog.String("error", err.Error()))
		}
		return
	}

	switch event.Type {
	case "heartbeat":
		if h.presence != nil {
			h.presence.Heartbeat(userID)
		}

	case "mark_read":
		if h.handler == nil {
			return
		}
		var data struct {
			ConversationID string `json:"conversation_id"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" {
			return
		}
		if err := h.handler.HandleMarkRead(userID, data.ConversationID); err != nil {
			if h.log != nil {
				h.log.Error("failed to handle mark_read",
					slog.String("user_id", userID),
					slog.String("conversation_id", data.ConversationID),
					slog.String("error", err.Error()),
				)
			}
		}

	case "typing":
		if h.handler == nil {
			return
		}
		var data struct {
			ConversationID string `json:"conversation_id"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" {
			return
		}
		h.handler.HandleTyping(userID, data.ConversationID)

	case "open_conversation":
		if h.handler == nil {
			return
		}
		var data struct {
			ConversationID string `json:"conversation_id"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" {
			return
		}
		if err := h.handler.HandleOpenConversation(userID, data.ConversationID); err != nil {
			if h.log != nil {
				h.log.Error("failed to open conversation",
					slog.String("user_id", userID),
					slog.String("conversation_id", data.ConversationID),
					slog.String("error", err.Error()),
				)
			}
		}

	case "close_conversation":
		if h.handler == nil {
			return
		}
		h.handler.HandleCloseConversation(userID)

	case "load_older":
		if h.handler == nil {
			return
		}
		if err := h.handler.HandleLoadOlder(userID); err != nil {
			if h.log != nil {
				h.log.Error("failed to load older messages",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
