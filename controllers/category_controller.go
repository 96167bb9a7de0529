package controllers

import (
	"strconv"
	"strings"

	"labstock-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CategoryController контроллер для управления категориями оборудования
type CategoryController struct {
	DB *gorm.DB
}

// NewCategoryController создает новый экземпляр CategoryController
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{DB: db}
}

// CategoryRequest структура запроса создания/обновления категории
type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CategoryResponse структура ответа с категорией
type CategoryResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Category *models.Category `json:"category,omitempty"`
}

// CategoriesResponse структура ответа со списком категорий
type CategoriesResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Categories []models.Category `json:"categories,omitempty"`
	Total      int64             `json:"total,omitempty"`
}

// CreateCategory создает категорию
func (cc *CategoryController) CreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(CategoryResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if strings.TrimSpace(req.Name) == "" {
		return c.Status(400).JSON(CategoryResponse{
			Success: false,
			Message: "Название категории обязательно",
		})
	}

	// Проверяем уникальность названия
	var existing models.Category
	if err := cc.DB.Where("name = ?", strings.TrimSpace(req.Name)).First(&existing).Error; err == nil {
		return c.Status(409).JSON(CategoryResponse{
			Success: false,
			Message: "Категория с таким названием уже существует",
		})
	}

	category := models.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    true,
	}

	if err := cc.DB.Create(&category).Error; err != nil {
		return c.Status(500).JSON(CategoryResponse{
			Success: false,
			Message: "Ошибка при создании категории",
		})
	}

	return c.Status(201).JSON(CategoryResponse{
		Success:  true,
		Message:  "Категория создана",
		Category: &category,
	})
}

// GetCategories получает список категорий
func (cc *CategoryController) GetCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := cc.DB.Where("is_active = ?", true).Order("name ASC").Find(&categories).Error; err != nil {
		return c.Status(500).JSON(CategoriesResponse{
			Success: false,
			Message: "Ошибка при получении категорий",
		})
	}

	var total int64
	cc.DB.Model(&models.Category{}).Where("is_active = ?", true).Count(&total)

	return c.JSON(CategoriesResponse{
		Success:    true,
		Message:    "Список категорий получен",
		Categories: categories,
		Total:      total,
	})
}

// UpdateCategory обновляет категорию
func (cc *CategoryController) UpdateCategory(c *fiber.Ctx) error {
	categoryID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(CategoryResponse{
			Success: false,
			Message: "Неверный ID категории",
		})
	}

	var category models.Category
	if err := cc.DB.First(&category, categoryID).Error; err != nil {
		return c.Status(404).JSON(CategoryResponse{
			Success: false,
			Message: "Категория не найдена",
		})
	}

	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(CategoryResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if strings.TrimSpace(req.Name) != "" {
		category.Name = strings.TrimSpace(req.Name)
	}
	if req.Description != "" {
		category.Description = req.Description
	}

	if err := cc.DB.Save(&category).Error; err != nil {
		return c.Status(500).JSON(CategoryResponse{
			Success: false,
			Message: "Ошибка при обновлении категории",
		})
	}

	return c.JSON(CategoryResponse{
		Success:  true,
		Message:  "Категория обновлена",
		Category: &category,
	})
}

// DeleteCategory деактивирует категорию
func (cc *CategoryController) DeleteCategory(c *fiber.Ctx) error {
	categoryID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(CategoryResponse{
			Success: false,
			Message: "Неверный ID категории",
		})
	}

	var category models.Category
	if err := cc.DB.First(&category, categoryID).Error; err != nil {
		return c.Status(404).JSON(CategoryResponse{
			Success: false,
			Message: "Категория не найдена",
		})
	}

	category.IsActive = false
	if err := cc.DB.Save(&category).Error; err != nil {
		return c.Status(500).JSON(CategoryResponse{
			Success: false,
			Message: "Ошибка при удалении категории",
		})
	}

	return c.JSON(CategoryResponse{
		Success: true,
		Message: "Категория удалена",
	})
}
