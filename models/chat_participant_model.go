package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatParticipant is the membership row linking a user to a chat. Kept as an
// explicit model rather than a gorm many2many so queries join on it directly.
type ChatParticipant struct {
	ChatID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"chat_id"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

func (ChatParticipant) TableName() string {
	return "chat_participants"
}
