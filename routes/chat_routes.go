package routes

import (
	"github.com/farhan2921/court_connect/handlers"
	"github.com/farhan2921/court_connect/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func ChatRoutes(app *fiber.App) {
	api := app.Group("/api")

	chat := api.Group("/chat", middleware.Protected())
	chat.Get("/list", handlers.GetUserChats)
	chat.Post("/create", handlers.CreateChat)
	chat.Get("/unread", handlers.GetUnreadCount)
	chat.Get("/search-users", handlers.SearchChatUsers)
	chat.Get("/case/:caseId", handlers.GetCaseChats)
	chat.Get("/:chatId/messages", handlers.GetChatMessages)
	chat.Get("/:chatId/messages/search", handlers.SearchChatMessages)
	chat.Post("/:chatId/send", handlers.SendChatMessage)
	chat.Post("/:chatId/read", handlers.MarkChatRead)
	chat.Post("/:chatId/transcript", handlers.ExportChatTranscript)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(handlers.ServeWs))
}
