package routes

import (
	"github.com/farhan2921/court_connect/handlers"
	"github.com/farhan2921/court_connect/middleware"
	"github.com/gofiber/fiber/v2"
)

func UploadRoutes(app *fiber.App) {
	uploads := app.Group("/api/uploads", middleware.Protected())
	uploads.Get("/signature", handlers.GenerateUploadSignature)
}
