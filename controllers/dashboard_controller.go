package controllers

import (
	"labstock-backend/models"
	"labstock-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DashboardController контроллер сводки для главного экрана
type DashboardController struct {
	db *gorm.DB
}

// NewDashboardController создает новый экземпляр DashboardController
func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{db: db}
}

// GetDashboardData получает сводку по выдачам и складу
func (dc *DashboardController) GetDashboardData(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return c.Status(401).JSON(fiber.Map{
			"error":   true,
			"message": "Необходима авторизация",
		})
	}

	var user models.User
	if err := dc.db.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error":   true,
			"message": "Пользователь не найден",
		})
	}

	// Статистика по выдачам
	var stats struct {
		OpenTransactions    int64 `json:"open_transactions"`
		OverdueTransactions int64 `json:"overdue_transactions"`
		PartialReturns      int64 `json:"partial_returns"`
		CompletedReturns    int64 `json:"completed_returns"`
		LowStockItems       int64 `json:"low_stock_items"`
		PendingMaintenance  int64 `json:"pending_maintenance"`
	}

	openStatuses := []string{
		models.ReturnStatusPending,
		models.ReturnStatusPartial,
		models.ReturnStatusOverdue,
		models.ReturnStatusExtended,
	}

	dc.db.Model(&models.BorrowTransaction{}).
		Where("return_status IN ?", openStatuses).Count(&stats.OpenTransactions)
	dc.db.Model(&models.BorrowTransaction{}).
		Where("return_status = ?", models.ReturnStatusOverdue).Count(&stats.OverdueTransactions)
	dc.db.Model(&models.BorrowTransaction{}).
		Where("return_status = ?", models.ReturnStatusPartial).Count(&stats.PartialReturns)
	dc.db.Model(&models.BorrowTransaction{}).
		Where("return_status = ?", models.ReturnStatusCompleted).Count(&stats.CompletedReturns)
	dc.db.Model(&models.InventoryItem{}).
		Where("quantity <= ?", services.LowStockThreshold).Count(&stats.LowStockItems)
	dc.db.Model(&models.MaintenanceEntry{}).
		Where("status = ?", models.MaintenanceStatusPending).Count(&stats.PendingMaintenance)

	// Последние выдачи пользователя
	var recent []models.BorrowTransaction
	dc.db.Preload("Items").Where("user_id = ?", userID).
		Order("created_at DESC").Limit(5).Find(&recent)

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
		"stats":               stats,
		"recent_transactions": recent,
	})
}
