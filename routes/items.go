package routes

import (
	"labstock-backend/controllers"
	"labstock-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupItemRoutes настраивает маршруты оборудования
func SetupItemRoutes(app *fiber.App, itemController *controllers.ItemController, uploadController *controllers.UploadController) {
	items := app.Group("/items")

	// GET /items - список оборудования (публичный доступ)
	items.Get("/", itemController.GetItems)

	// GET /items/:id - детали оборудования (публичный доступ)
	items.Get("/:id", itemController.GetItem)

	// POST /items - зарегистрировать оборудование (требует авторизации)
	items.Post("/", utils.AuthMiddleware, itemController.CreateItem)

	// PUT /items/:id - обновить оборудование (требует авторизации)
	items.Put("/:id", utils.AuthMiddleware, itemController.UpdateItem)

	// DELETE /items/:id - удалить оборудование (требует авторизации)
	items.Delete("/:id", utils.AuthMiddleware, itemController.DeleteItem)

	// PUT /items/:id/maintenance/:week - статус недели обслуживания (требует авторизации)
	items.Put("/:id/maintenance/:week", utils.AuthMiddleware, itemController.UpdateMaintenanceStatus)

	// POST /items/:id/photo - загрузить фотографию (требует авторизации)
	items.Post("/:id/photo", utils.AuthMiddleware, uploadController.UploadItemPhoto)
}
