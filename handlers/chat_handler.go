package handlers

import (
	"strconv"
	"time"

	"github.com/farhan2921/court_connect/database"
	"github.com/farhan2921/court_connect/models"
	"github.com/farhan2921/court_connect/services"
	sock "github.com/farhan2921/court_connect/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	claims := token.Claims.(jwt.MapClaims)
	id, err := uuid.Parse(claims["user_id"].(string))
	if err != nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return id, nil
}

func serviceError(c *fiber.Ctx, err error) error {
	if svcErr := services.AsServiceError(err); svcErr != nil {
		return c.Status(svcErr.HTTPStatus()).JSON(fiber.Map{
			"error": svcErr.Message,
			"code":  svcErr.Code,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func GetUserChats(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	chats, err := services.ListChats(database.DB, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"chats": chats})
}

// GetChatMessages returns the newest messages and, matching the original
// behavior, marks the fetched chat read for the caller.
func GetChatMessages(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid chat ID"})
	}
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(services.DefaultMessagePageSize)))

	messages, err := services.ListMessages(database.DB, chatID, userID, limit)
	if err != nil {
		return serviceError(c, err)
	}

	if _, err := services.MarkAsRead(database.DB, chatID, userID, time.Now()); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages})
}

type CreateChatRequest struct {
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1,dive,uuid"`
	ChatName       string   `json:"chat_name"`
	ChatType       string   `json:"chat_type" validate:"omitempty,oneof=DIRECT GROUP"`
	CaseID         *string  `json:"case_id,omitempty" validate:"omitempty,uuid"`
}

func CreateChat(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	participantIDs := make([]uuid.UUID, 0, len(req.ParticipantIDs))
	for _, raw := range req.ParticipantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid participant ID"})
		}
		participantIDs = append(participantIDs, id)
	}

	chatType := req.ChatType
	if chatType == "" {
		chatType = models.ChatTypeDirect
	}

	var chat *models.Chat
	if chatType == models.ChatTypeDirect && len(participantIDs) == 1 {
		chat, err = services.EnsureDirectChat(database.DB, userID, participantIDs[0])
	} else {
		var caseID *uuid.UUID
		if req.CaseID != nil {
			parsed, parseErr := uuid.Parse(*req.CaseID)
			if parseErr != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
			}
			caseID = &parsed
		}
		chat, err = services.CreateGroupChat(database.DB, userID, participantIDs, req.ChatName, caseID)
	}
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"chat_id": chat.ID, "chat_type": chat.ChatType})
}

type SendMessageRequest struct {
	Content     string `json:"content" validate:"required"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=TEXT IMAGE FILE SYSTEM"`
}

func SendChatMessage(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid chat ID"})
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	message, participantIDs, err := services.SendMessage(database.DB, chatID, userID, req.Content, req.MessageType)
	if err != nil {
		return serviceError(c, err)
	}

	// The write is committed; live delivery is fire-and-forget from here.
	sock.Default.Broadcast(&sock.MessageEvent{Message: message, ParticipantIDs: participantIDs})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func MarkChatRead(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid chat ID"})
	}

	marked, err := services.MarkAsRead(database.DB, chatID, userID, time.Now())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"marked": marked})
}

func GetUnreadCount(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	count, err := services.TotalUnread(database.DB, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}

func SearchChatUsers(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	users, err := services.SearchUsers(database.DB, userID, c.Query("query"), limit)
	if err != nil {
		return serviceError(c, err)
	}

	results := make([]services.ParticipantInfo, 0, len(users))
	for _, u := range users {
		results = append(results, services.ParticipantInfo{
			ID:             u.ID,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			Role:           u.Role,
			Image:          u.Image,
			Specialisation: u.Specialisation,
		})
	}
	return c.JSON(fiber.Map{"users": results})
}

func SearchChatMessages(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid chat ID"})
	}

	messages, err := services.SearchMessages(database.DB, chatID, userID, c.Query("query"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func GetCaseChats(c *fiber.Ctx) error {
	if _, err := currentUserID(c); err != nil {
		return err
	}
	caseID, err := uuid.Parse(c.Params("caseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid case ID"})
	}

	chats, err := services.ChatsForCase(database.DB, caseID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"chats": chats})
}

func ExportChatTranscript(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid chat ID"})
	}

	url, err := services.ExportTranscript(c.Context(), database.DB, chatID, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"transcript_url": url})
}
