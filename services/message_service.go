package services

import (
	"strings"
	"time"

	"github.com/farhan2921/court_connect/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultMessagePageSize = 50

var validMessageTypes = map[string]bool{
	models.MessageTypeText:   true,
	models.MessageTypeImage:  true,
	models.MessageTypeFile:   true,
	models.MessageTypeSystem: true,
}

// SendMessage validates and appends a message, updating the parent chat's
// summary in the same transaction. It returns the stored message and the chat's
// participant ids so the caller can hand the event to the delivery hub; live
// delivery is never part of the transaction.
func SendMessage(db *gorm.DB, chatID, senderID uuid.UUID, content, messageType string) (*models.Message, []uuid.UUID, error) {
	if messageType == "" {
		messageType = models.MessageTypeText
	}
	if !validMessageTypes[messageType] {
		return nil, nil, NewValidationError("Unknown message type")
	}
	if messageType == models.MessageTypeText {
		content = strings.TrimSpace(content)
	}
	if content == "" {
		return nil, nil, NewValidationError("Message content is required")
	}

	if _, err := GetChat(db, chatID, senderID); err != nil {
		return nil, nil, err
	}

	participantIDs, err := ParticipantIDs(db, chatID)
	if err != nil {
		return nil, nil, err
	}

	message := models.Message{
		ChatID:      chatID,
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
		SentAt:      time.Now(),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		preview := TruncatePreview(content)
		return tx.Model(&models.Chat{}).
			Where("id = ?", chatID).
			Updates(map[string]interface{}{
				"last_message_at":        message.SentAt,
				"last_message_preview":   preview,
				"last_message_sender_id": senderID,
			}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &message, participantIDs, nil
}

// ListMessages returns up to limit newest messages of a chat, newest first.
// Ties on sent_at fall back to the id, which is monotone in commit order.
func ListMessages(db *gorm.DB, chatID, requesterID uuid.UUID, limit int) ([]models.Message, error) {
	if _, err := GetChat(db, chatID, requesterID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMessagePageSize
	}

	var messages []models.Message
	err := db.
		Where("chat_id = ?", chatID).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// MarkAsRead flags every unread message not sent by the reader and returns how
// many were newly marked. Calling it again immediately marks zero.
func MarkAsRead(db *gorm.DB, chatID, readerID uuid.UUID, asOf time.Time) (int64, error) {
	if _, err := GetChat(db, chatID, readerID); err != nil {
		return 0, err
	}

	result := db.Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chatID, readerID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": asOf})
	return result.RowsAffected, result.Error
}

// UnreadCount counts messages in one chat the user has not read. It reads the
// same rows MarkAsRead mutates, so the badge can never drift from the data.
func UnreadCount(db *gorm.DB, chatID, userID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chatID, userID, false).
		Count(&count).Error
	return count, err
}

// TotalUnread counts unread messages across all of the user's active chats.
func TotalUnread(db *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&models.Message{}).
		Joins("JOIN chat_participants cp ON cp.chat_id = chat_messages.chat_id").
		Joins("JOIN chats ON chats.id = chat_messages.chat_id").
		Where("cp.user_id = ? AND chat_messages.sender_id <> ? AND chat_messages.is_read = ? AND chats.is_active = ?",
			userID, userID, false, true).
		Count(&count).Error
	return count, err
}

// SearchMessages finds messages in a chat whose content contains the query.
func SearchMessages(db *gorm.DB, chatID, requesterID uuid.UUID, query string) ([]models.Message, error) {
	if _, err := GetChat(db, chatID, requesterID); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewValidationError("Search query is required")
	}

	var messages []models.Message
	err := db.
		Where("chat_id = ? AND LOWER(content) LIKE ?", chatID, "%"+strings.ToLower(query)+"%").
		Order("sent_at DESC, id DESC").
		Find(&messages).Error
	return messages, err
}
