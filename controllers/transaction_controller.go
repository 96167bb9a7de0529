package controllers

import (
	"errors"
	"fmt"
	"strconv"

	"labstock-backend/models"
	"labstock-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TransactionController контроллер выдачи и возврата оборудования
type TransactionController struct {
	DB           *gorm.DB
	Transactions *services.TransactionService
}

// NewTransactionController создает новый экземпляр TransactionController
func NewTransactionController(db *gorm.DB, transactions *services.TransactionService) *TransactionController {
	return &TransactionController{DB: db, Transactions: transactions}
}

// BorrowRequestBody структура запроса выдачи
type BorrowRequestBody struct {
	Items            []services.BorrowItemRequest `json:"items"`
	Course           string                       `json:"course"`
	RoomNo           string                       `json:"room_no"`
	BorrowedDuration string                       `json:"borrowed_duration"` // например "3 hours"
	Notes            string                       `json:"notes"`
}

// ReturnRequestBody структура запроса возврата
type ReturnRequestBody struct {
	Claims              []services.ReturnClaim `json:"claims"`
	FeedbackEmoji       string                 `json:"feedback_emoji"`
	PartialReturnReason string                 `json:"partial_return_reason"`
}

// ExtendRequestBody структура запроса продления
type ExtendRequestBody struct {
	NewDuration string `json:"new_duration"` // например "1 day"
}

// AddItemsRequestBody структура запроса добавления позиций
type AddItemsRequestBody struct {
	Items []services.BorrowItemRequest `json:"items"`
}

// TransactionResponse структура ответа с транзакцией
type TransactionResponse struct {
	Success     bool                      `json:"success"`
	Message     string                    `json:"message"`
	Transaction *models.BorrowTransaction `json:"transaction,omitempty"`
}

// TransactionsResponse структура ответа со списком транзакций
type TransactionsResponse struct {
	Success      bool                       `json:"success"`
	Message      string                     `json:"message"`
	Transactions []models.BorrowTransaction `json:"transactions,omitempty"`
	Total        int64                      `json:"total,omitempty"`
}

// Borrow создает транзакцию выдачи
func (tc *TransactionController) Borrow(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return c.Status(401).JSON(TransactionResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	var body BorrowRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	txn, err := tc.Transactions.Borrow(services.BorrowRequest{
		UserID:           userID,
		Items:            body.Items,
		Course:           body.Course,
		RoomNo:           body.RoomNo,
		BorrowedDuration: body.BorrowedDuration,
		Notes:            body.Notes,
	})
	if err != nil {
		status, message := tc.mapServiceError(err)
		return c.Status(status).JSON(TransactionResponse{
			Success: false,
			Message: message,
		})
	}

	return c.Status(201).JSON(TransactionResponse{
		Success:     true,
		Message:     "Оборудование выдано",
		Transaction: txn,
	})
}

// Return проводит полный или частичный возврат
func (tc *TransactionController) Return(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return c.Status(401).JSON(TransactionResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	transactionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный ID транзакции",
		})
	}

	var body ReturnRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	txn, err := tc.Transactions.Return(services.ReturnRequest{
		TransactionID:       uint(transactionID),
		UserID:              userID,
		Claims:              body.Claims,
		FeedbackEmoji:       body.FeedbackEmoji,
		PartialReturnReason: body.PartialReturnReason,
	})
	if err != nil && txn == nil {
		status, message := tc.mapServiceError(err)
		return c.Status(status).JSON(TransactionResponse{
			Success: false,
			Message: message,
		})
	}
	if err != nil {
		// Часть позиций применена, остаток прерван ошибкой склада
		return c.Status(500).JSON(TransactionResponse{
			Success:     false,
			Message:     "Возврат применен частично, попробуйте повторить для оставшихся позиций",
			Transaction: txn,
		})
	}

	message := "Возврат принят полностью"
	if txn.ReturnStatus == models.ReturnStatusPartial {
		message = "Возврат принят частично"
	}

	return c.JSON(TransactionResponse{
		Success:     true,
		Message:     message,
		Transaction: txn,
	})
}

// Extend продлевает просроченную выдачу
func (tc *TransactionController) Extend(c *fiber.Ctx) error {
	transactionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный ID транзакции",
		})
	}

	var body ExtendRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	txn, err := tc.Transactions.Extend(uint(transactionID), body.NewDuration)
	if err != nil {
		status, message := tc.mapServiceError(err)
		return c.Status(status).JSON(TransactionResponse{
			Success: false,
			Message: message,
		})
	}

	return c.JSON(TransactionResponse{
		Success:     true,
		Message:     "Выдача продлена",
		Transaction: txn,
	})
}

// AddItems добавляет позиции к открытой выдаче
func (tc *TransactionController) AddItems(c *fiber.Ctx) error {
	transactionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный ID транзакции",
		})
	}

	var body AddItemsRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	txn, err := tc.Transactions.AddItems(uint(transactionID), body.Items)
	if err != nil {
		status, message := tc.mapServiceError(err)
		return c.Status(status).JSON(TransactionResponse{
			Success: false,
			Message: message,
		})
	}

	return c.JSON(TransactionResponse{
		Success:     true,
		Message:     "Позиции добавлены к выдаче",
		Transaction: txn,
	})
}

// GetTransactions получает список транзакций текущего пользователя;
// ?status= фильтрует по статусу возврата
func (tc *TransactionController) GetTransactions(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return c.Status(401).JSON(TransactionsResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	query := tc.DB.Model(&models.BorrowTransaction{}).Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("return_status = ?", status)
	}

	var txns []models.BorrowTransaction
	if err := query.Preload("Items").Order("created_at DESC").Find(&txns).Error; err != nil {
		return c.Status(500).JSON(TransactionsResponse{
			Success: false,
			Message: "Ошибка при получении списка транзакций",
		})
	}

	var total int64
	query.Count(&total)

	return c.JSON(TransactionsResponse{
		Success:      true,
		Message:      "Список транзакций получен",
		Transactions: txns,
		Total:        total,
	})
}

// GetTransaction получает транзакцию по ID
func (tc *TransactionController) GetTransaction(c *fiber.Ctx) error {
	transactionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный ID транзакции",
		})
	}

	var txn models.BorrowTransaction
	if err := tc.DB.Preload("Items").First(&txn, transactionID).Error; err != nil {
		return c.Status(404).JSON(TransactionResponse{
			Success: false,
			Message: "Транзакция не найдена",
		})
	}

	return c.JSON(TransactionResponse{
		Success:     true,
		Message:     "Транзакция получена",
		Transaction: &txn,
	})
}

// mapServiceError переводит ошибки доменного слоя в HTTP статус и сообщение
func (tc *TransactionController) mapServiceError(err error) (int, string) {
	var stockErr *services.StockError
	switch {
	case errors.As(err, &stockErr):
		return 409, fmt.Sprintf("Недостаточно оборудования: %s (запрошено %d, доступно %d)",
			stockErr.Barcode, stockErr.Requested, stockErr.Available)
	case errors.Is(err, services.ErrItemNotFound):
		return 404, "Оборудование не найдено"
	case errors.Is(err, services.ErrUserNotFound):
		return 404, "Пользователь не найден"
	case errors.Is(err, services.ErrTransactionNotFound):
		return 404, "Транзакция не найдена"
	case errors.Is(err, services.ErrNothingToReturn):
		return 400, "Все указанные позиции уже возвращены"
	case errors.Is(err, services.ErrInvalidState):
		return 409, "Операция недопустима для текущего статуса выдачи"
	case errors.Is(err, services.ErrUnsupportedDurationUnit):
		return 400, "Неподдерживаемая единица срока выдачи"
	case errors.Is(err, services.ErrInvalidDuration):
		return 400, "Неверный формат срока выдачи"
	case errors.Is(err, services.ErrNoItemsRequested):
		return 400, "Список позиций пуст"
	case errors.Is(err, services.ErrInvalidQuantity):
		return 400, "Количество должно быть больше 0"
	default:
		return 500, "Внутренняя ошибка сервера"
	}
}
