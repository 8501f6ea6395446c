package services

import (
	"errors"
	"strings"
	"time"

	"github.com/farhan2921/court_connect/models"
	"github.com/farhan2921/court_connect/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParticipantInfo is the trimmed-down user view embedded in chat summaries.
type ParticipantInfo struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Role           string    `json:"role"`
	Image          *string   `json:"image,omitempty"`
	Specialisation *string   `json:"specialisation,omitempty"`
}

// ChatSummary is one row of a user's chat list.
type ChatSummary struct {
	ID                 uuid.UUID         `json:"id"`
	ChatName           string            `json:"chat_name"`
	ChatType           string            `json:"chat_type"`
	DisplayName        string            `json:"display_name"`
	CaseID             *uuid.UUID        `json:"case_id,omitempty"`
	LastMessageAt      *time.Time        `json:"last_message_at,omitempty"`
	LastMessagePreview *string           `json:"last_message_preview,omitempty"`
	UnreadCount        int64             `json:"unread_count"`
	Participants       []ParticipantInfo `json:"participants"`
}

// EnsureDirectChat finds or creates the one active DIRECT chat between two
// users. Concurrent calls for the same pair are resolved by the unique index on
// direct_key: the losing writer re-reads the winner's row.
func EnsureDirectChat(db *gorm.DB, userA, userB uuid.UUID) (*models.Chat, error) {
	if userA == userB {
		return nil, NewValidationError("Cannot start a chat with yourself")
	}

	var users []models.User
	if err := db.Where("id IN ?", []uuid.UUID{userA, userB}).Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) != 2 {
		return nil, NewNotFoundError("User not found")
	}

	key := models.DirectKeyFor(userA, userB)

	var existing models.Chat
	err := db.Where("direct_key = ? AND is_active = ?", key, true).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	chat := models.Chat{
		ChatType:    models.ChatTypeDirect,
		DirectKey:   &key,
		CreatedByID: userA,
		IsActive:    true,
	}
	createErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}
		now := time.Now()
		participants := []models.ChatParticipant{
			{ChatID: chat.ID, UserID: userA, JoinedAt: now},
			{ChatID: chat.ID, UserID: userB, JoinedAt: now},
		}
		return tx.Create(&participants).Error
	})
	if createErr == nil {
		return &chat, nil
	}
	if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return nil, createErr
	}

	// Lost the race: the other writer's row must now be visible.
	if err := db.Where("direct_key = ? AND is_active = ?", key, true).First(&existing).Error; err != nil {
		return nil, NewConflictError("Direct chat uniqueness could not be resolved")
	}
	return &existing, nil
}

// CreateGroupChat creates a GROUP chat with the creator implicitly included.
// There is no uniqueness constraint on group membership.
func CreateGroupChat(db *gorm.DB, creatorID uuid.UUID, participantIDs []uuid.UUID, name string, caseID *uuid.UUID) (*models.Chat, error) {
	seen := map[uuid.UUID]bool{creatorID: true}
	memberIDs := []uuid.UUID{creatorID}
	for _, id := range participantIDs {
		if !seen[id] {
			seen[id] = true
			memberIDs = append(memberIDs, id)
		}
	}
	if len(memberIDs) < 2 {
		return nil, NewValidationError("At least one participant is required")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("id IN ?", memberIDs).Count(&count).Error; err != nil {
		return nil, err
	}
	if count != int64(len(memberIDs)) {
		return nil, NewNotFoundError("One or more participants do not exist")
	}

	chat := models.Chat{
		ChatName:    strings.TrimSpace(name),
		ChatType:    models.ChatTypeGroup,
		CreatedByID: creatorID,
		CaseID:      caseID,
		IsActive:    true,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}
		now := time.Now()
		rows := make([]models.ChatParticipant, 0, len(memberIDs))
		for _, id := range memberIDs {
			rows = append(rows, models.ChatParticipant{ChatID: chat.ID, UserID: id, JoinedAt: now})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetChat loads an active chat and verifies the requester belongs to it.
func GetChat(db *gorm.DB, chatID, requesterID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := db.Where("id = ? AND is_active = ?", chatID, true).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Chat not found")
		}
		return nil, err
	}

	member, err := IsParticipant(db, chatID, requesterID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, NewAuthorizationError("You are not a participant of this chat")
	}
	return &chat, nil
}

func IsParticipant(db *gorm.DB, chatID, userID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

func ParticipantIDs(db *gorm.DB, chatID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(&models.ChatParticipant{}).
		Where("chat_id = ?", chatID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func ChatParticipants(db *gorm.DB, chatID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := db.
		Joins("JOIN chat_participants cp ON cp.user_id = users.id").
		Where("cp.chat_id = ?", chatID).
		Find(&users).Error
	return users, err
}

// ListChats returns the viewer's active chats ordered by most recent activity,
// with display names and unread badges resolved.
func ListChats(db *gorm.DB, viewerID uuid.UUID) ([]ChatSummary, error) {
	var chats []models.Chat
	err := db.
		Joins("JOIN chat_participants cp ON cp.chat_id = chats.id").
		Where("cp.user_id = ? AND chats.is_active = ?", viewerID, true).
		Order("COALESCE(chats.last_message_at, chats.created_at) DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		participants, err := ChatParticipants(db, chat.ID)
		if err != nil {
			return nil, err
		}

		unread, err := UnreadCount(db, chat.ID, viewerID)
		if err != nil {
			return nil, err
		}

		others := make([]ParticipantInfo, 0, len(participants))
		for _, p := range participants {
			if p.ID == viewerID {
				continue
			}
			others = append(others, ParticipantInfo{
				ID:             p.ID,
				FirstName:      p.FirstName,
				LastName:       p.LastName,
				Role:           p.Role,
				Image:          p.Image,
				Specialisation: p.Specialisation,
			})
		}

		summaries = append(summaries, ChatSummary{
			ID:                 chat.ID,
			ChatName:           chat.ChatName,
			ChatType:           chat.ChatType,
			DisplayName:        DisplayName(&chat, participants, viewerID),
			CaseID:             chat.CaseID,
			LastMessageAt:      chat.LastMessageAt,
			LastMessagePreview: chat.LastMessagePreview,
			UnreadCount:        unread,
			Participants:       others,
		})
	}
	return summaries, nil
}

// DisplayName derives what the viewer sees as the chat title. DIRECT chats show
// the other participant; GROUP chats show the explicit name, then a roster of
// first names, then a fallback.
func DisplayName(chat *models.Chat, participants []models.User, viewerID uuid.UUID) string {
	if chat.ChatType == models.ChatTypeDirect {
		for _, p := range participants {
			if p.ID != viewerID {
				return p.FullName()
			}
		}
		return chat.ChatName
	}

	if name := strings.TrimSpace(chat.ChatName); name != "" {
		return name
	}

	firstNames := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.ID != viewerID && p.FirstName != "" {
			firstNames = append(firstNames, p.FirstName)
		}
	}
	if len(firstNames) > 0 {
		return strings.Join(firstNames, ", ")
	}
	return "Group Chat"
}

// ChatsForCase lists active chats linked to a case record.
func ChatsForCase(db *gorm.DB, caseID uuid.UUID) ([]models.Chat, error) {
	var chats []models.Chat
	err := db.
		Where("case_id = ? AND is_active = ?", caseID, true).
		Order("COALESCE(last_message_at, created_at) DESC").
		Find(&chats).Error
	return chats, err
}

// SearchUsers matches names and emails for the "start new chat" picker. The
// caller is excluded from results.
func SearchUsers(db *gorm.DB, currentUserID uuid.UUID, query string, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewValidationError("Search query is required")
	}
	if limit <= 0 {
		limit = 10
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var users []models.User
	err := db.
		Where("id <> ? AND is_active = ?", currentUserID, true).
		Where(
			db.Where("LOWER(first_name || ' ' || last_name) LIKE ?", pattern).
				Or("LOWER(email) LIKE ?", pattern),
		).
		Limit(limit).
		Find(&users).Error
	return users, err
}

// TruncatePreview shortens message content for the denormalized chat summary.
func TruncatePreview(content string) string {
	return utils.Truncate(content, 120)
}
