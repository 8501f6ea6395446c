package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageTypeText   = "TEXT"
	MessageTypeImage  = "IMAGE"
	MessageTypeFile   = "FILE"
	MessageTypeSystem = "SYSTEM"
)

// Message rows are append-only except for the read-receipt fields. The integer
// primary key increases in commit order, which is what breaks sent_at ties when
// listing a chat.
type Message struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID   uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_chat_sent" json:"chat_id"`
	SenderID uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`

	Content     string `gorm:"type:text;not null" json:"content"`
	MessageType string `gorm:"size:10;not null;default:'TEXT'" json:"message_type"`

	SentAt time.Time `gorm:"not null;index:idx_messages_chat_sent" json:"sent_at"`

	// A single read flag per message. The first non-sender who acknowledges a
	// message marks it read for the whole chat, so in GROUP chats "read" means
	// "read by someone". Known limitation carried over from the original data
	// model.
	IsRead bool       `gorm:"default:false" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	Sender User `gorm:"foreignKey:SenderID" json:"-"`
}

func (Message) TableName() string {
	return "chat_messages"
}
