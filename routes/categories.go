package routes

import (
	"labstock-backend/controllers"
	"labstock-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupCategoryRoutes настраивает маршруты категорий оборудования
func SetupCategoryRoutes(app *fiber.App, categoryController *controllers.CategoryController) {
	categories := app.Group("/categories")

	// GET /categories - список категорий (публичный доступ)
	categories.Get("/", categoryController.GetCategories)

	// POST /categories - создать категорию (требует авторизации)
	categories.Post("/", utils.AuthMiddleware, categoryController.CreateCategory)

	// PUT /categories/:id - обновить категорию (требует авторизации)
	categories.Put("/:id", utils.AuthMiddleware, categoryController.UpdateCategory)

	// DELETE /categories/:id - удалить категорию (требует авторизации)
	categories.Delete("/:id", utils.AuthMiddleware, categoryController.DeleteCategory)
}
