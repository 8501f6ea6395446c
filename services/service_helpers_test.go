package services

import (
	"fmt"
	"testing"

	"github.com/farhan2921/court_connect/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int

// newTestDB opens a fresh in-memory database per test. MaxOpenConns is pinned
// to 1 so concurrent service calls serialize at the pool instead of tripping
// sqlite write locks.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBCounter++
	dsn := fmt.Sprintf("file:svc_test_%d_%s?mode=memory&cache=shared", testDBCounter, t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Chat{},
		&models.ChatParticipant{},
		&models.Message{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, firstName, lastName string) *models.User {
	t.Helper()

	user := models.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     fmt.Sprintf("%s.%s.%s@example.com", firstName, lastName, uuid.NewString()[:8]),
		Password:  "hashed",
		Role:      "client",
		IsActive:  true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}
