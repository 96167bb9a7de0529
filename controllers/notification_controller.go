package controllers

import (
	"strconv"

	"labstock-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// NotificationController контроллер для просмотра уведомлений
type NotificationController struct {
	DB *gorm.DB
}

// NewNotificationController создает новый экземпляр NotificationController
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// NotificationsResponse структура ответа со списком уведомлений
type NotificationsResponse struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message"`
	Notifications []models.Notification `json:"notifications,omitempty"`
	Total         int64                 `json:"total,omitempty"`
}

// GetNotifications получает уведомления: персональные для пользователя,
// администраторам дополнительно видны общие (без адресата)
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return c.Status(401).JSON(NotificationsResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}
	role, _ := c.Locals("user_role").(string)

	query := nc.DB.Model(&models.Notification{})
	if role == "admin" || role == "staff" {
		query = query.Where("user_id = ? OR user_id IS NULL", userID)
	} else {
		query = query.Where("user_id = ?", userID)
	}
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
		return c.Status(500).JSON(NotificationsResponse{
			Success: false,
			Message: "Ошибка при получении уведомлений",
		})
	}

	var total int64
	query.Count(&total)

	return c.JSON(NotificationsResponse{
		Success:       true,
		Message:       "Список уведомлений получен",
		Notifications: notifications,
		Total:         total,
	})
}

// MarkRead помечает уведомление прочитанным
func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return c.Status(401).JSON(NotificationsResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	notificationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(NotificationsResponse{
			Success: false,
			Message: "Неверный ID уведомления",
		})
	}

	res := nc.DB.Model(&models.Notification{}).
		Where("id = ? AND (user_id = ? OR user_id IS NULL)", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return c.Status(500).JSON(NotificationsResponse{
			Success: false,
			Message: "Ошибка при обновлении уведомления",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(NotificationsResponse{
			Success: false,
			Message: "Уведомление не найдено",
		})
	}

	return c.JSON(NotificationsResponse{
		Success: true,
		Message: "Уведомление прочитано",
	})
}
