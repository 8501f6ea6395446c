package jobs

import (
	"log"
	"strconv"
	"time"

	config "github.com/farhan2921/court_connect/configs"
	"github.com/farhan2921/court_connect/database"
	"github.com/farhan2921/court_connect/models"
)

const defaultRetentionDays = 365

// PurgeArchivedMessages deletes messages past the retention window, but only
// from chats that were archived. Active chats keep their full history; the
// engine itself never deletes a conversation.
func PurgeArchivedMessages() {
	log.Println("Running job: PurgeArchivedMessages...")

	retentionDays := defaultRetentionDays
	if raw := config.Config("MESSAGE_RETENTION_DAYS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			retentionDays = parsed
		}
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := database.DB.
		Where("sent_at < ?", cutoff).
		Where("chat_id IN (?)", database.DB.Model(&models.Chat{}).Select("id").Where("is_active = ?", false)).
		Delete(&models.Message{})
	if result.Error != nil {
		log.Printf("Error purging archived messages: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Purged %d archived messages older than %d days", result.RowsAffected, retentionDays)
	}
}
