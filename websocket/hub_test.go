package websocket

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/farhan2921/court_connect/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	payloads []OutboundMessage
	received chan OutboundMessage
	failWith error
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{received: make(chan OutboundMessage, 16)}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	payload := v.(OutboundMessage)
	f.payloads = append(f.payloads, payload)
	f.received <- payload
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func testMessage(chatID, senderID uuid.UUID) *models.Message {
	return &models.Message{
		ID:          1,
		ChatID:      chatID,
		SenderID:    senderID,
		Content:     "hello",
		MessageType: models.MessageTypeText,
		SentAt:      time.Now(),
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := NewHub()
	userID := uuid.New()
	client := NewClient(userID, newFakeConn())

	h.Register(client)
	assert.Equal(t, 1, h.ConnectionCount(userID))

	h.Unregister(client)
	assert.Equal(t, 0, h.ConnectionCount(userID))

	// A second unregister for the same client is a no-op.
	h.Unregister(client)
	assert.Equal(t, 0, h.ConnectionCount(userID))
}

func TestHub_MultiDevice(t *testing.T) {
	h := NewHub()
	userID := uuid.New()
	phone := NewClient(userID, newFakeConn())
	laptop := NewClient(userID, newFakeConn())

	h.Register(phone)
	h.Register(laptop)
	assert.Equal(t, 2, h.ConnectionCount(userID))

	h.Unregister(phone)
	assert.Equal(t, 1, h.ConnectionCount(userID))
}

func TestHub_DispatchReachesEveryParticipantConnection(t *testing.T) {
	h := NewHub()
	sender := uuid.New()
	recipient := uuid.New()

	senderConn := newFakeConn()
	recipientPhone := newFakeConn()
	recipientLaptop := newFakeConn()
	h.Register(NewClient(sender, senderConn))
	h.Register(NewClient(recipient, recipientPhone))
	h.Register(NewClient(recipient, recipientLaptop))

	chatID := uuid.New()
	h.dispatch(&MessageEvent{
		Message:        testMessage(chatID, sender),
		ParticipantIDs: []uuid.UUID{sender, recipient},
	})

	for _, conn := range []*fakeConn{senderConn, recipientPhone, recipientLaptop} {
		require.Len(t, conn.payloads, 1)
		assert.Equal(t, chatID, conn.payloads[0].ChatID)
		assert.Equal(t, "hello", conn.payloads[0].Content)
	}

	assert.True(t, senderConn.payloads[0].IsSentByMe)
	assert.False(t, recipientPhone.payloads[0].IsSentByMe)
	assert.False(t, recipientLaptop.payloads[0].IsSentByMe)
}

func TestHub_DispatchSkipsNonParticipants(t *testing.T) {
	h := NewHub()
	sender := uuid.New()
	bystander := uuid.New()

	bystanderConn := newFakeConn()
	h.Register(NewClient(bystander, bystanderConn))

	h.dispatch(&MessageEvent{
		Message:        testMessage(uuid.New(), sender),
		ParticipantIDs: []uuid.UUID{sender},
	})

	assert.Empty(t, bystanderConn.payloads)
}

func TestHub_DispatchWithNoConnections(t *testing.T) {
	h := NewHub()

	// Nobody online: fan-out is a no-op, never an error.
	h.dispatch(&MessageEvent{
		Message:        testMessage(uuid.New(), uuid.New()),
		ParticipantIDs: []uuid.UUID{uuid.New(), uuid.New()},
	})
}

func TestHub_FailedWriteDropsOnlyThatConnection(t *testing.T) {
	h := NewHub()
	recipient := uuid.New()

	broken := newFakeConn()
	broken.failWith = errors.New("connection reset")
	healthy := newFakeConn()
	brokenClient := NewClient(recipient, broken)
	h.Register(brokenClient)
	h.Register(NewClient(recipient, healthy))

	h.dispatch(&MessageEvent{
		Message:        testMessage(uuid.New(), uuid.New()),
		ParticipantIDs: []uuid.UUID{recipient},
	})

	assert.Len(t, healthy.payloads, 1)
	assert.True(t, broken.closed)
	assert.Equal(t, 1, h.ConnectionCount(recipient))
}

func TestHub_BroadcastThroughRunLoop(t *testing.T) {
	h := NewHub()
	defer h.Close()
	go h.Run()

	recipient := uuid.New()
	conn := newFakeConn()
	h.Register(NewClient(recipient, conn))

	sender := uuid.New()
	h.Broadcast(&MessageEvent{
		Message:        testMessage(uuid.New(), sender),
		ParticipantIDs: []uuid.UUID{sender, recipient},
	})

	select {
	case payload := <-conn.received:
		assert.Equal(t, "hello", payload.Content)
		assert.False(t, payload.IsSentByMe)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast delivery")
	}
}
