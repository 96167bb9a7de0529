package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"labstock-backend/controllers"
	"labstock-backend/models"
	"labstock-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// setupTransactionApp собирает приложение с маршрутами выдачи
// и подставляет user_id в контекст, как это делает AuthMiddleware
func setupTransactionApp(db *gorm.DB, userID uint) *fiber.App {
	notifier := services.NewNotificationService(db, nil)
	inventory := services.NewInventoryService(db, notifier)
	txService := services.NewTransactionService(db, inventory, notifier)
	transactionController := controllers.NewTransactionController(db, txService)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_role", "student")
		return c.Next()
	})

	app.Post("/transactions", transactionController.Borrow)
	app.Get("/transactions", transactionController.GetTransactions)
	app.Post("/transactions/:id/return", transactionController.Return)
	app.Post("/transactions/:id/extend", transactionController.Extend)
	app.Post("/transactions/:id/items", transactionController.AddItems)

	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (*fiber.App, int, controllers.TransactionResponse) {
	t.Helper()
	jsonData, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)

	var response controllers.TransactionResponse
	err = json.NewDecoder(resp.Body).Decode(&response)
	assert.NoError(t, err)

	return app, resp.StatusCode, response
}

func TestBorrowEquipment(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)
	createTestItem(db, "BC100001", "Осциллограф", 5)

	app := setupTransactionApp(db, user1ID)

	_, status, response := postJSON(t, app, "/transactions", controllers.BorrowRequestBody{
		Items:            []services.BorrowItemRequest{{ItemBarcode: "BC100001", Quantity: 3}},
		RoomNo:           "Лаб-204",
		BorrowedDuration: "3 hours",
	})

	assert.Equal(t, 201, status)
	assert.True(t, response.Success)
	assert.NotNil(t, response.Transaction)
	assert.Equal(t, models.ReturnStatusPending, response.Transaction.ReturnStatus)
	assert.Equal(t, models.TransactionTypeBorrowed, response.Transaction.TransactionType)
	assert.Equal(t, "Test User 1", response.Transaction.UserName)
	assert.NotEmpty(t, response.Transaction.ReferenceID)
	assert.Len(t, response.Transaction.Items, 1)
	assert.Equal(t, "Осциллограф", response.Transaction.Items[0].ItemName)
	assert.Equal(t, 3, response.Transaction.Items[0].QuantityBorrowed)

	// Срок рассчитан как now + 3 часа
	assert.WithinDuration(t, time.Now().Add(3*time.Hour), response.Transaction.DueDate, 5*time.Second)

	// Остаток списан: 5 - 3 = 2
	var item models.InventoryItem
	db.Where("barcode = ?", "BC100001").First(&item)
	assert.Equal(t, 2, item.Quantity)
}

func TestBorrowInsufficientStock(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)
	createTestItem(db, "BC100001", "Мультиметр", 2)

	app := setupTransactionApp(db, user1ID)

	_, status, response := postJSON(t, app, "/transactions", controllers.BorrowRequestBody{
		Items:            []services.BorrowItemRequest{{ItemBarcode: "BC100001", Quantity: 3}},
		BorrowedDuration: "1 day",
	})

	assert.Equal(t, 409, status)
	assert.False(t, response.Success)

	// Остаток не тронут, транзакция не создана
	var item models.InventoryItem
	db.Where("barcode = ?", "BC100001").First(&item)
	assert.Equal(t, 2, item.Quantity)

	var count int64
	db.Model(&models.BorrowTransaction{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestBorrowRollbackOnSecondItem(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)
	createTestItem(db, "BC100001", "Штатив", 5)
	createTestItem(db, "BC100002", "Колба", 1)

	app := setupTransactionApp(db, user1ID)

	// Вторая позиция не проходит по остатку: резерв первой должен откатиться
	_, status, _ := postJSON(t, app, "/transactions", controllers.BorrowRequestBody{
		Items: []services.BorrowItemRequest{
			{ItemBarcode: "BC100001", Quantity: 2},
			{ItemBarcode: "BC100002", Quantity: 5},
		},
		BorrowedDuration: "2 hours",
	})

	assert.Equal(t, 409, status)

	var item models.InventoryItem
	db.Where("barcode = ?", "BC100001").First(&item)
	assert.Equal(t, 5, item.Quantity)
}

func TestBorrowMergesDuplicateBarcodes(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)
	createTestItem(db, "BC100001", "Пробирка", 10)

	app := setupTransactionApp(db, user1ID)

	// Один штрихкод двумя строками запроса: в транзакции одна позиция
	_, status, response := postJSON(t, app, "/transactions", controllers.BorrowRequestBody{
		Items: []services.BorrowItemRequest{
			{ItemBarcode: "BC100001", Quantity: 2},
			{ItemBarcode: "BC100001", Quantity: 3},
		},
		BorrowedDuration: "1 day",
	})

	assert.Equal(t, 201, status)
	assert.Len(t, response.Transaction.Items, 1)
	assert.Equal(t, 5, response.Transaction.Items[0].QuantityBorrowed)

	var item models.InventoryItem
	db.Where("barcode = ?", "BC100001").First(&item)
	assert.Equal(t, 5, item.Quantity)

	// Весь долг гасится одной заявкой, остаток восстанавливается полностью
	_, status, response = postJSON(t, app, "/transactions/1/return", controllers.ReturnRequestBody{
		Claims: []services.ReturnClaim{{ItemBarcode: "BC100001", Quantity: 5}},
	})

	assert.Equal(t, 200, status)
	assert.Equal(t, models.ReturnStatusCompleted, response.Transaction.ReturnStatus)

	db.Where("barcode = ?", "BC100001").First(&item)
	assert.Equal(t, 10, item.Quantity)
}

func TestBorrowUnsupportedDuration(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)
	createTestItem(db, "BC100001", "Весы", 5)

	app := setupTransactionApp(db, user1ID)

	_, status, response := postJSON(t, app, "/transactions", controllers.BorrowRequestBody{
		Items:            []services.BorrowItemRequest{{ItemBarcode: "BC100001", Quantity: 1}},
		BorrowedDuration: "2 fortnights",
	})

	assert.Equal(t, 400, status)
	assert.False(t, response.Success)
}

func TestBorrowUnknownBarcode(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)

	app := setupTransactionApp(db, user1ID)

	_, status, response := postJSON(t, app, "/transactions", controllers.BorrowRequestBody{
		Items:            []services.BorrowItemRequest{{ItemBarcode: "BC999999", Quantity: 1}},
		BorrowedDuration: "1 hour",
	})

	assert.Equal(t, 404, status)
	assert.False(t, response.Success)
}

func TestBorrowEmptyItems(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)

	app := setupTransactionApp(db, user1ID)

	_, status, response := postJSON(t, app, "/transactions", controllers.BorrowRequestBody{
		BorrowedDuration: "1 hour",
	})

	assert.Equal(t, 400, status)
	assert.False(t, response.Success)
}

func TestAddItemsToTransaction(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)
	createTestItem(db, "BC100001", "Паяльник", 5)
	createTestItem(db, "BC100002", "Пинцет", 4)

	app := setupTransactionApp(db, user1ID)

	_, status, response := postJSON(t, app, "/transactions", controllers.BorrowRequestBody{
		Items:            []services.BorrowItemRequest{{ItemBarcode: "BC100001", Quantity: 2}},
		BorrowedDuration: "1 day",
	})
	assert.Equal(t, 201, status)
	txnID := response.Transaction.ID

	// Добавляем новую позицию и наращиваем существующую
	_, status, response = postJSON(t, app, "/transactions/1/items", controllers.AddItemsRequestBody{
		Items: []services.BorrowItemRequest{
			{ItemBarcode: "BC100001", Quantity: 1},
			{ItemBarcode: "BC100002", Quantity: 2},
		},
	})
	assert.Equal(t, 200, status)
	assert.True(t, response.Success)
	assert.Equal(t, txnID, response.Transaction.ID)
	assert.Len(t, response.Transaction.Items, 2)

	for _, line := range response.Transaction.Items {
		switch line.ItemBarcode {
		case "BC100001":
			assert.Equal(t, 3, line.QuantityBorrowed)
		case "BC100002":
			assert.Equal(t, 2, line.QuantityBorrowed)
		}
	}

	// Остатки списаны по обеим позициям
	var item1, item2 models.InventoryItem
	db.Where("barcode = ?", "BC100001").First(&item1)
	db.Where("barcode = ?", "BC100002").First(&item2)
	assert.Equal(t, 2, item1.Quantity)
	assert.Equal(t, 2, item2.Quantity)
}

func TestAddItemsMergesDuplicateBarcodes(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)
	createTestItem(db, "BC100001", "Колба", 5)
	createTestItem(db, "BC100002", "Мензурка", 6)

	app := setupTransactionApp(db, user1ID)

	_, status, _ := postJSON(t, app, "/transactions", controllers.BorrowRequestBody{
		Items:            []services.BorrowItemRequest{{ItemBarcode: "BC100001", Quantity: 1}},
		BorrowedDuration: "1 day",
	})
	assert.Equal(t, 201, status)

	// Новый штрихкод задвоен внутри одного запроса
	_, status, response := postJSON(t, app, "/transactions/1/items", controllers.AddItemsRequestBody{
		Items: []services.BorrowItemRequest{
			{ItemBarcode: "BC100002", Quantity: 2},
			{ItemBarcode: "BC100002", Quantity: 3},
		},
	})

	assert.Equal(t, 200, status)
	assert.Len(t, response.Transaction.Items, 2)
	for _, line := range response.Transaction.Items {
		if line.ItemBarcode == "BC100002" {
			assert.Equal(t, 5, line.QuantityBorrowed)
		}
	}

	var item models.InventoryItem
	db.Where("barcode = ?", "BC100002").First(&item)
	assert.Equal(t, 1, item.Quantity)
}
