package routes

import (
	"labstock-backend/controllers"
	"labstock-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupTransactionRoutes настраивает маршруты выдачи и возврата
func SetupTransactionRoutes(app *fiber.App, transactionController *controllers.TransactionController) {
	transactions := app.Group("/transactions", utils.AuthMiddleware)

	// POST /transactions - выдать оборудование
	transactions.Post("/", transactionController.Borrow)

	// GET /transactions - список транзакций текущего пользователя
	transactions.Get("/", transactionController.GetTransactions)

	// GET /transactions/:id - детали транзакции
	transactions.Get("/:id", transactionController.GetTransaction)

	// POST /transactions/:id/return - полный или частичный возврат
	transactions.Post("/:id/return", transactionController.Return)

	// POST /transactions/:id/extend - продлить просроченную выдачу
	transactions.Post("/:id/extend", transactionController.Extend)

	// POST /transactions/:id/items - добавить позиции к открытой выдаче
	transactions.Post("/:id/items", transactionController.AddItems)
}
