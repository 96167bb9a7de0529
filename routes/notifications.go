package routes

import (
	"labstock-backend/controllers"
	"labstock-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupNotificationRoutes настраивает маршруты уведомлений
func SetupNotificationRoutes(app *fiber.App, notificationController *controllers.NotificationController) {
	notifications := app.Group("/notifications", utils.AuthMiddleware)

	// GET /notifications - список уведомлений
	notifications.Get("/", notificationController.GetNotifications)

	// PUT /notifications/:id/read - пометить прочитанным
	notifications.Put("/:id/read", notificationController.MarkRead)
}
