package routes

import (
	"labstock-backend/controllers"
	"labstock-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes настраивает маршруты профиля пользователя
func SetupUserRoutes(app *fiber.App, userController *controllers.UserController) {
	users := app.Group("/users", utils.AuthMiddleware)

	// GET /users/me - профиль текущего пользователя
	users.Get("/me", userController.GetProfile)

	// PUT /users/me - обновить профиль
	users.Put("/me", userController.UpdateProfile)
}
