package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/farhan2921/court_connect/models"
	"github.com/google/uuid"
)

// Conn is the write side of a live delivery channel. The fiber websocket
// connection satisfies it; tests substitute fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client binds one live connection to a user. A user may hold several clients
// at once (one per device/tab).
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   Conn
}

func NewClient(userID uuid.UUID, conn Conn) *Client {
	return &Client{ID: uuid.New(), UserID: userID, Conn: conn}
}

// MessageEvent is what the send path hands to the hub after the durable write
// committed. It carries the participant set so fan-out needs no storage access.
type MessageEvent struct {
	Message        *models.Message
	ParticipantIDs []uuid.UUID
}

// OutboundMessage is the per-recipient payload pushed over a connection.
type OutboundMessage struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	ChatID      uuid.UUID `json:"chat_id"`
	SenderID    uuid.UUID `json:"sender_id"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	SentAt      time.Time `json:"sent_at"`
	IsSentByMe  bool      `json:"is_sent_by_me"`
}

// Hub is the process-local presence registry plus the fan-out loop. Nothing
// here is persisted; clients re-register after a restart.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*Client

	broadcast chan *MessageEvent
	done      chan struct{}
	closeOnce sync.Once
}

// Default is the hub the API wires its handlers to.
var Default = NewHub()

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[uuid.UUID][]*Client),
		broadcast: make(chan *MessageEvent, 64),
		done:      make(chan struct{}),
	}
}

// Run consumes broadcast events until Close. Meant to run on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case event := <-h.broadcast:
			h.dispatch(event)
		}
	}
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Register adds a live connection for the client's user.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.UserID] = append(h.clients[client.UserID], client)
	h.mu.Unlock()
	log.Printf("Client registered: user=%s conn=%s", client.UserID, client.ID)
}

// Unregister removes a connection. Safe to call from disconnect and error paths
// alike; a second call for the same client is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	conns := h.clients[client.UserID]
	for i, c := range conns {
		if c.ID == client.ID {
			conns = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = conns
	}
	h.mu.Unlock()
	log.Printf("Client unregistered: user=%s conn=%s", client.UserID, client.ID)
}

// ConnectionCount reports how many live connections a user currently holds.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Broadcast queues an event for fan-out. It never blocks the sender's request:
// if the hub is saturated the event is dropped and the message stays durable,
// visible on the recipient's next fetch.
func (h *Hub) Broadcast(event *MessageEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("Hub broadcast queue full, dropping live delivery for message %d", event.Message.ID)
	}
}

func (h *Hub) dispatch(event *MessageEvent) {
	message := event.Message

	// Snapshot recipients under the read lock, write outside it.
	h.mu.RLock()
	recipients := make([]*Client, 0)
	for _, participantID := range event.ParticipantIDs {
		recipients = append(recipients, h.clients[participantID]...)
	}
	h.mu.RUnlock()

	var failed []*Client
	for _, client := range recipients {
		payload := OutboundMessage{
			Type:        "message",
			ID:          message.ID,
			ChatID:      message.ChatID,
			SenderID:    message.SenderID,
			Content:     message.Content,
			MessageType: message.MessageType,
			SentAt:      message.SentAt,
			IsSentByMe:  client.UserID == message.SenderID,
		}
		if err := client.Conn.WriteJSON(payload); err != nil {
			log.Printf("Error sending message to user %s: %v", client.UserID, err)
			failed = append(failed, client)
		}
	}

	// A dead connection only costs itself; the message is already stored.
	for _, client := range failed {
		client.Conn.Close()
		h.Unregister(client)
	}
}
