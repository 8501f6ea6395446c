package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ChatTypeDirect = "DIRECT"
	ChatTypeGroup  = "GROUP"
)

type Chat struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ChatName string    `gorm:"size:255" json:"chat_name"`
	ChatType string    `gorm:"size:10;not null;default:'DIRECT'" json:"chat_type"`

	// DirectKey is the sorted "minID:maxID" pair for DIRECT chats and NULL for
	// GROUP chats. The unique index is what makes concurrent creation of the
	// same direct pair collapse into a single row.
	DirectKey *string `gorm:"size:80;uniqueIndex" json:"-"`

	CreatedByID uuid.UUID  `gorm:"type:uuid;not null" json:"created_by_id"`
	CaseID      *uuid.UUID `gorm:"type:uuid;index" json:"case_id,omitempty"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	LastMessageAt       *time.Time `json:"last_message_at,omitempty"`
	LastMessagePreview  *string    `gorm:"size:120" json:"last_message_preview,omitempty"`
	LastMessageSenderID *uuid.UUID `gorm:"type:uuid" json:"last_message_sender_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ch *Chat) BeforeCreate(tx *gorm.DB) error {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	return nil
}

// DirectKeyFor returns the canonical pair key for a DIRECT chat, independent of
// argument order.
func DirectKeyFor(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + ":" + b.String()
	}
	return b.String() + ":" + a.String()
}
