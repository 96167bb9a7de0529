package controllers

import (
	"errors"
	"strconv"
	"strings"

	"labstock-backend/models"
	"labstock-backend/services"
	"labstock-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ItemController контроллер для управления оборудованием
type ItemController struct {
	DB          *gorm.DB
	Maintenance *services.MaintenanceService
}

// NewItemController создает новый экземпляр ItemController
func NewItemController(db *gorm.DB, maintenance *services.MaintenanceService) *ItemController {
	return &ItemController{DB: db, Maintenance: maintenance}
}

// ItemRequest структура запроса создания/обновления оборудования
type ItemRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	CategoryID  uint   `json:"category_id"`
	Quantity    int    `json:"quantity" validate:"min=0"`
	Location    string `json:"location"`
	PMNeeded    string `json:"pm_needed"`    // 'Yes' или 'No'
	PMFrequency string `json:"pm_frequency"` // Daily/Weekly/Monthly/Quarterly/Annually
}

// MaintenanceStatusRequest структура запроса обновления статуса недели обслуживания
type MaintenanceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Completed Skipped"`
}

// ItemResponse структура ответа с оборудованием
type ItemResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Item    *models.InventoryItem `json:"item,omitempty"`
}

// ItemsResponse структура ответа со списком оборудования
type ItemsResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Items   []models.InventoryItem `json:"items,omitempty"`
	Total   int64                  `json:"total,omitempty"`
}

// CreateItem регистрирует новую единицу оборудования.
// Штрихкод генерируется системой, график обслуживания строится сразу
func (ic *ItemController) CreateItem(c *fiber.Ctx) error {
	var req ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := ic.validateItemRequest(&req); err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	item := models.InventoryItem{
		Barcode:     utils.GenerateBarcode(ic.DB, &models.InventoryItem{}),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Quantity:    req.Quantity,
		Location:    req.Location,
		PMNeeded:    req.PMNeeded,
		PMFrequency: req.PMFrequency,
	}
	if item.PMNeeded == "" {
		item.PMNeeded = "No"
	}

	// Начинаем транзакцию
	tx := ic.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при создании оборудования",
		})
	}

	if err := ic.Maintenance.ReplaceSchedule(tx, item.ID, item.PMNeeded, item.PMFrequency); err != nil {
		tx.Rollback()
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при создании графика обслуживания",
		})
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при сохранении данных",
		})
	}

	if err := ic.DB.Preload("Maintenance").First(&item, item.ID).Error; err != nil {
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при загрузке оборудования",
		})
	}

	return c.Status(201).JSON(ItemResponse{
		Success: true,
		Message: "Оборудование зарегистрировано",
		Item:    &item,
	})
}

// UpdateItem обновляет оборудование.
// График обслуживания пересоздается целиком, прежние отметки недель теряются
func (ic *ItemController) UpdateItem(c *fiber.Ctx) error {
	itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный ID оборудования",
		})
	}

	var item models.InventoryItem
	if err := ic.DB.First(&item, itemID).Error; err != nil {
		return c.Status(404).JSON(ItemResponse{
			Success: false,
			Message: "Оборудование не найдено",
		})
	}

	var req ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if strings.TrimSpace(req.Name) != "" {
		item.Name = strings.TrimSpace(req.Name)
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.CategoryID != 0 {
		item.CategoryID = req.CategoryID
	}
	if req.Location != "" {
		item.Location = req.Location
	}
	if req.PMNeeded != "" {
		item.PMNeeded = req.PMNeeded
	}
	if req.PMFrequency != "" {
		item.PMFrequency = req.PMFrequency
	}

	// Начинаем транзакцию
	tx := ic.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(&item).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при обновлении оборудования",
		})
	}

	if err := ic.Maintenance.ReplaceSchedule(tx, item.ID, item.PMNeeded, item.PMFrequency); err != nil {
		tx.Rollback()
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при обновлении графика обслуживания",
		})
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при сохранении данных",
		})
	}

	if err := ic.DB.Preload("Maintenance").First(&item, item.ID).Error; err != nil {
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при загрузке оборудования",
		})
	}

	return c.JSON(ItemResponse{
		Success: true,
		Message: "Оборудование обновлено",
		Item:    &item,
	})
}

// GetItems получает список оборудования; ?low_stock=true оставляет только
// позиции на пороге исчерпания
func (ic *ItemController) GetItems(c *fiber.Ctx) error {
	query := ic.DB.Model(&models.InventoryItem{})

	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if c.Query("low_stock") == "true" {
		query = query.Where("quantity <= ?", services.LowStockThreshold)
	}

	var items []models.InventoryItem
	if err := query.Preload("Maintenance").Order("name ASC").Find(&items).Error; err != nil {
		return c.Status(500).JSON(ItemsResponse{
			Success: false,
			Message: "Ошибка при получении списка оборудования",
		})
	}

	var total int64
	query.Count(&total)

	return c.JSON(ItemsResponse{
		Success: true,
		Message: "Список оборудования получен",
		Items:   items,
		Total:   total,
	})
}

// GetItem получает оборудование по ID
func (ic *ItemController) GetItem(c *fiber.Ctx) error {
	itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный ID оборудования",
		})
	}

	var item models.InventoryItem
	if err := ic.DB.Preload("Maintenance").Preload("Category").First(&item, itemID).Error; err != nil {
		return c.Status(404).JSON(ItemResponse{
			Success: false,
			Message: "Оборудование не найдено",
		})
	}

	return c.JSON(ItemResponse{
		Success: true,
		Message: "Оборудование получено",
		Item:    &item,
	})
}

// DeleteItem удаляет оборудование. Отказ, пока по штрихкоду есть
// открытая выдача с невозвращенным остатком
func (ic *ItemController) DeleteItem(c *fiber.Ctx) error {
	itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный ID оборудования",
		})
	}

	var item models.InventoryItem
	if err := ic.DB.First(&item, itemID).Error; err != nil {
		return c.Status(404).JSON(ItemResponse{
			Success: false,
			Message: "Оборудование не найдено",
		})
	}

	// Проверяем открытые выдачи по штрихкоду
	var openCount int64
	ic.DB.Model(&models.TransactionItem{}).
		Joins("JOIN borrow_transactions ON borrow_transactions.id = transaction_items.transaction_id").
		Where("transaction_items.item_barcode = ? AND transaction_items.quantity_returned < transaction_items.quantity_borrowed AND borrow_transactions.return_status NOT IN ?",
			item.Barcode, []string{models.ReturnStatusCompleted, models.ReturnStatusTransferred}).
		Count(&openCount)
	if openCount > 0 {
		return c.Status(409).JSON(ItemResponse{
			Success: false,
			Message: "Оборудование числится в открытой выдаче и не может быть удалено",
		})
	}

	// Начинаем транзакцию
	tx := ic.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("item_id = ?", item.ID).Delete(&models.MaintenanceEntry{}).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при удалении оборудования",
		})
	}
	if err := tx.Delete(&item).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при удалении оборудования",
		})
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при сохранении данных",
		})
	}

	return c.JSON(ItemResponse{
		Success: true,
		Message: "Оборудование удалено",
	})
}

// UpdateMaintenanceStatus обновляет статус одной недели графика обслуживания
func (ic *ItemController) UpdateMaintenanceStatus(c *fiber.Ctx) error {
	itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный ID оборудования",
		})
	}

	weekNumber, err := strconv.Atoi(c.Params("week"))
	if err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный номер недели",
		})
	}

	var req MaintenanceStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := ic.Maintenance.UpdateStatus(uint(itemID), weekNumber, req.Status); err != nil {
		switch {
		case errors.Is(err, services.ErrItemNotFound):
			return c.Status(404).JSON(ItemResponse{
				Success: false,
				Message: "Оборудование не найдено",
			})
		case errors.Is(err, services.ErrInvalidWeek):
			return c.Status(400).JSON(ItemResponse{
				Success: false,
				Message: "Неделя отсутствует в графике обслуживания",
			})
		case errors.Is(err, services.ErrInvalidMaintenanceStatus):
			return c.Status(400).JSON(ItemResponse{
				Success: false,
				Message: "Недопустимый статус обслуживания",
			})
		default:
			return c.Status(500).JSON(ItemResponse{
				Success: false,
				Message: "Ошибка при обновлении графика обслуживания",
			})
		}
	}

	return c.JSON(ItemResponse{
		Success: true,
		Message: "Статус обслуживания обновлен",
	})
}

// validateItemRequest валидирует запрос оборудования
func (ic *ItemController) validateItemRequest(req *ItemRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fiber.NewError(400, "Название оборудования обязательно")
	}
	if req.Quantity < 0 {
		return fiber.NewError(400, "Количество не может быть отрицательным")
	}

	if req.PMNeeded != "" && req.PMNeeded != "Yes" && req.PMNeeded != "No" {
		return fiber.NewError(400, "Поле pm_needed принимает только 'Yes' или 'No'")
	}

	if req.PMNeeded == "Yes" {
		switch req.PMFrequency {
		case models.PMFrequencyDaily, models.PMFrequencyWeekly, models.PMFrequencyMonthly,
			models.PMFrequencyQuarterly, models.PMFrequencyAnnually:
		default:
			return fiber.NewError(400, "Недопустимая частота обслуживания")
		}
	}

	return nil
}
