package services

import (
	"testing"
	"time"

	"github.com/farhan2921/court_connect/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDirectChat(t *testing.T) (*gorm.DB, *models.User, *models.User, *models.Chat) {
	t.Helper()

	db := newTestDB(t)
	alice := createTestUser(t, db, "Alice", "Anders")
	bob := createTestUser(t, db, "Bob", "Barnes")
	chat, err := EnsureDirectChat(db, alice.ID, bob.ID)
	require.NoError(t, err)
	return db, alice, bob, chat
}

func TestSendMessage_PersistsAndUpdatesSummary(t *testing.T) {
	db, alice, bob, chat := setupDirectChat(t)

	message, participantIDs, err := SendMessage(db, chat.ID, alice.ID, "  See you at the hearing  ", "")
	require.NoError(t, err)

	assert.Equal(t, "See you at the hearing", message.Content)
	assert.Equal(t, models.MessageTypeText, message.MessageType)
	assert.False(t, message.IsRead)
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, participantIDs)

	var reloaded models.Chat
	require.NoError(t, db.First(&reloaded, "id = ?", chat.ID).Error)
	require.NotNil(t, reloaded.LastMessageAt)
	require.NotNil(t, reloaded.LastMessagePreview)
	assert.Equal(t, "See you at the hearing", *reloaded.LastMessagePreview)
	require.NotNil(t, reloaded.LastMessageSenderID)
	assert.Equal(t, alice.ID, *reloaded.LastMessageSenderID)
}

func TestSendMessage_BlankContent(t *testing.T) {
	db, alice, _, chat := setupDirectChat(t)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, _, err := SendMessage(db, chat.ID, alice.ID, content, "")
		svcErr := AsServiceError(err)
		require.NotNil(t, svcErr, "content %q", content)
		assert.Equal(t, CodeValidation, svcErr.Code)
	}
}

func TestSendMessage_UnknownType(t *testing.T) {
	db, alice, _, chat := setupDirectChat(t)

	_, _, err := SendMessage(db, chat.ID, alice.ID, "hello", "VOICE")
	svcErr := AsServiceError(err)
	require.NotNil(t, svcErr)
	assert.Equal(t, CodeValidation, svcErr.Code)
}

func TestSendMessage_NonParticipant(t *testing.T) {
	db, _, _, chat := setupDirectChat(t)
	mallory := createTestUser(t, db, "Mallory", "Marsh")

	_, _, err := SendMessage(db, chat.ID, mallory.ID, "let me in", "")
	svcErr := AsServiceError(err)
	require.NotNil(t, svcErr)
	assert.Equal(t, CodeAuthorization, svcErr.Code)
}

func TestSendMessage_UnknownChat(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "Alice", "Anders")

	_, _, err := SendMessage(db, uuid.New(), alice.ID, "anyone there", "")
	svcErr := AsServiceError(err)
	require.NotNil(t, svcErr)
	assert.Equal(t, CodeNotFound, svcErr.Code)
}

func TestSendMessage_SucceedsWithNoLiveChannels(t *testing.T) {
	// Delivery is not the source of truth: with nobody connected, the send
	// still commits and the message shows up on the next list.
	db, alice, bob, chat := setupDirectChat(t)

	_, _, err := SendMessage(db, chat.ID, alice.ID, "hello", "")
	require.NoError(t, err)

	messages, err := ListMessages(db, chat.ID, bob.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Content)
}

func TestListMessages_NewestFirst(t *testing.T) {
	db, alice, bob, chat := setupDirectChat(t)

	for _, content := range []string{"m1", "m2", "m3"} {
		_, _, err := SendMessage(db, chat.ID, alice.ID, content, "")
		require.NoError(t, err)
	}

	messages, err := ListMessages(db, chat.ID, bob.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "m3", messages[0].Content)
	assert.Equal(t, "m2", messages[1].Content)
	assert.Equal(t, "m1", messages[2].Content)
}

func TestListMessages_AliceAndBobScenario(t *testing.T) {
	db, alice, bob, chat := setupDirectChat(t)

	_, _, err := SendMessage(db, chat.ID, alice.ID, "hello", "")
	require.NoError(t, err)
	_, _, err = SendMessage(db, chat.ID, bob.ID, "hi", "")
	require.NoError(t, err)

	for _, viewer := range []uuid.UUID{alice.ID, bob.ID} {
		messages, err := ListMessages(db, chat.ID, viewer, 10)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "hi", messages[0].Content)
		assert.Equal(t, "hello", messages[1].Content)
	}
}

func TestListMessages_RespectsLimit(t *testing.T) {
	db, alice, bob, chat := setupDirectChat(t)

	for i := 0; i < 5; i++ {
		_, _, err := SendMessage(db, chat.ID, alice.ID, "message", "")
		require.NoError(t, err)
	}

	messages, err := ListMessages(db, chat.ID, bob.ID, 3)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
}

func TestListMessages_NonParticipant(t *testing.T) {
	db, _, _, chat := setupDirectChat(t)
	mallory := createTestUser(t, db, "Mallory", "Marsh")

	_, err := ListMessages(db, chat.ID, mallory.ID, 10)
	svcErr := AsServiceError(err)
	require.NotNil(t, svcErr)
	assert.Equal(t, CodeAuthorization, svcErr.Code)
}

func TestMarkAsRead_Idempotent(t *testing.T) {
	db, alice, bob, chat := setupDirectChat(t)

	for i := 0; i < 3; i++ {
		_, _, err := SendMessage(db, chat.ID, bob.ID, "from bob", "")
		require.NoError(t, err)
	}

	unread, err := UnreadCount(db, chat.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	asOf := time.Now()
	marked, err := MarkAsRead(db, chat.ID, alice.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)

	unread, err = UnreadCount(db, chat.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	marked, err = MarkAsRead(db, chat.ID, alice.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), marked)
}

func TestMarkAsRead_SkipsOwnMessages(t *testing.T) {
	db, alice, bob, chat := setupDirectChat(t)

	_, _, err := SendMessage(db, chat.ID, alice.ID, "mine", "")
	require.NoError(t, err)
	_, _, err = SendMessage(db, chat.ID, bob.ID, "theirs", "")
	require.NoError(t, err)

	marked, err := MarkAsRead(db, chat.ID, alice.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	// Alice's own message stays unread until Bob acknowledges it.
	unread, err := UnreadCount(db, chat.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestUnreadCount_InterleavedSendsAndReads(t *testing.T) {
	db, alice, bob, chat := setupDirectChat(t)

	_, _, err := SendMessage(db, chat.ID, bob.ID, "one", "")
	require.NoError(t, err)
	_, err = MarkAsRead(db, chat.ID, alice.ID, time.Now())
	require.NoError(t, err)

	_, _, err = SendMessage(db, chat.ID, bob.ID, "two", "")
	require.NoError(t, err)
	_, _, err = SendMessage(db, chat.ID, bob.ID, "three", "")
	require.NoError(t, err)

	unread, err := UnreadCount(db, chat.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)
}

func TestTotalUnread_AcrossChats(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "Alice", "Anders")
	bob := createTestUser(t, db, "Bob", "Barnes")
	carol := createTestUser(t, db, "Carol", "Clark")

	withBob, err := EnsureDirectChat(db, alice.ID, bob.ID)
	require.NoError(t, err)
	withCarol, err := EnsureDirectChat(db, alice.ID, carol.ID)
	require.NoError(t, err)

	_, _, err = SendMessage(db, withBob.ID, bob.ID, "from bob", "")
	require.NoError(t, err)
	_, _, err = SendMessage(db, withCarol.ID, carol.ID, "from carol", "")
	require.NoError(t, err)
	_, _, err = SendMessage(db, withCarol.ID, carol.ID, "again", "")
	require.NoError(t, err)

	total, err := TotalUnread(db, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestSearchMessages(t *testing.T) {
	db, alice, bob, chat := setupDirectChat(t)

	_, _, err := SendMessage(db, chat.ID, alice.ID, "The hearing moved to Monday", "")
	require.NoError(t, err)
	_, _, err = SendMessage(db, chat.ID, bob.ID, "Noted, thanks", "")
	require.NoError(t, err)

	messages, err := SearchMessages(db, chat.ID, alice.ID, "hearing")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "The hearing moved to Monday", messages[0].Content)

	_, err = SearchMessages(db, chat.ID, alice.ID, "  ")
	svcErr := AsServiceError(err)
	require.NotNil(t, svcErr)
	assert.Equal(t, CodeValidation, svcErr.Code)
}
