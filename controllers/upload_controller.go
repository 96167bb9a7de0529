package controllers

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"labstock-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadController контроллер загрузки фотографий оборудования
type UploadController struct {
	DB        *gorm.DB
	UploadDir string
}

// NewUploadController создает новый экземпляр UploadController
func NewUploadController(db *gorm.DB) *UploadController {
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	return &UploadController{DB: db, UploadDir: uploadDir}
}

// Допустимые расширения фотографий
var allowedPhotoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadItemPhoto загружает фотографию оборудования
func (upc *UploadController) UploadItemPhoto(c *fiber.Ctx) error {
	itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Неверный ID оборудования",
		})
	}

	var item models.InventoryItem
	if err := upc.DB.First(&item, itemID).Error; err != nil {
		return c.Status(404).JSON(ItemResponse{
			Success: false,
			Message: "Оборудование не найдено",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Файл не передан",
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedPhotoExts[ext] {
		return c.Status(400).JSON(ItemResponse{
			Success: false,
			Message: "Недопустимый формат файла",
		})
	}

	if err := os.MkdirAll(upc.UploadDir, 0755); err != nil {
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при сохранении файла",
		})
	}

	fileName := uuid.NewString() + ext
	filePath := filepath.Join(upc.UploadDir, fileName)

	if err := c.SaveFile(file, filePath); err != nil {
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при сохранении файла",
		})
	}

	item.PhotoPath = filePath
	if err := upc.DB.Save(&item).Error; err != nil {
		return c.Status(500).JSON(ItemResponse{
			Success: false,
			Message: "Ошибка при обновлении оборудования",
		})
	}

	return c.JSON(ItemResponse{
		Success: true,
		Message: "Фотография загружена",
		Item:    &item,
	})
}
