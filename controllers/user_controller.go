package controllers

import (
	"strings"

	"labstock-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserController контроллер для управления профилем пользователя
type UserController struct {
	DB *gorm.DB
}

// NewUserController создает новый экземпляр UserController
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// UpdateProfileRequest структура запроса обновления профиля
type UpdateProfileRequest struct {
	Name          string `json:"name"`
	ContactNumber string `json:"contact_number"`
	Course        string `json:"course"`
	Avatar        string `json:"avatar"`
}

// UserResponse структура ответа с пользователем
type UserResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user,omitempty"`
}

// GetProfile получает профиль текущего пользователя
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return c.Status(401).JSON(UserResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(UserResponse{
			Success: false,
			Message: "Пользователь не найден",
		})
	}

	return c.JSON(UserResponse{
		Success: true,
		Message: "Профиль получен",
		User:    &user,
	})
}

// UpdateProfile обновляет профиль текущего пользователя
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return c.Status(401).JSON(UserResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(UserResponse{
			Success: false,
			Message: "Пользователь не найден",
		})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(UserResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	// Обновляем только переданные поля
	if strings.TrimSpace(req.Name) != "" {
		user.Name = strings.TrimSpace(req.Name)
	}
	if req.ContactNumber != "" {
		user.ContactNumber = strings.TrimSpace(req.ContactNumber)
	}
	if req.Course != "" {
		user.Course = strings.TrimSpace(req.Course)
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		return c.Status(500).JSON(UserResponse{
			Success: false,
			Message: "Ошибка при обновлении профиля",
		})
	}

	return c.JSON(UserResponse{
		Success: true,
		Message: "Профиль обновлен",
		User:    &user,
	})
}
