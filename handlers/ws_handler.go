package handlers

import (
	"errors"
	"fmt"
	"log"

	config "github.com/farhan2921/court_connect/configs"
	"github.com/farhan2921/court_connect/database"
	"github.com/farhan2921/court_connect/services"
	sock "github.com/farhan2921/court_connect/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type wsSendMessage struct {
	ChatID      string `json:"chat_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

// ServeWs authenticates the socket with a first "auth" frame, registers it with
// the hub, then treats every further frame as a send request. Disconnects of
// any kind end in Unregister.
func ServeWs(c *websocketcontrib.Conn) {
	var authMsg wsAuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		log.Printf("WebSocket auth failed: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}

	client := sock.NewClient(userID, c)
	sock.Default.Register(client)
	defer func() {
		sock.Default.Unregister(client)
		c.Close()
	}()

	for {
		var msg wsSendMessage
		if err := c.ReadJSON(&msg); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("WebSocket closed for user %s: %v", userID, err)
			} else {
				log.Printf("WebSocket read error for user %s: %v", userID, err)
			}
			break
		}

		chatID, err := uuid.Parse(msg.ChatID)
		if err != nil {
			_ = c.WriteJSON(fiber.Map{"error": "Invalid chat ID"})
			continue
		}

		message, participantIDs, err := services.SendMessage(database.DB, chatID, userID, msg.Content, msg.MessageType)
		if err != nil {
			if svcErr := services.AsServiceError(err); svcErr != nil {
				_ = c.WriteJSON(fiber.Map{"error": svcErr.Message, "code": svcErr.Code})
			} else {
				log.Printf("Failed to save message for user %s: %v", userID, err)
				_ = c.WriteJSON(fiber.Map{"error": "Failed to save message"})
			}
			continue
		}

		sock.Default.Broadcast(&sock.MessageEvent{Message: message, ParticipantIDs: participantIDs})
	}
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
