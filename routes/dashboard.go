package routes

import (
	"labstock-backend/controllers"
	"labstock-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupDashboardRoutes настраивает маршруты дашборда
func SetupDashboardRoutes(app *fiber.App, dashboardController *controllers.DashboardController) {
	dashboard := app.Group("/dashboard", utils.AuthMiddleware)

	// GET /dashboard - сводка по выдачам и складу
	dashboard.Get("/", dashboardController.GetDashboardData)
}
