package services

import (
	"errors"
	"fmt"
	"log"

	"labstock-backend/models"

	"gorm.io/gorm"
)

// Пороги остатков для уведомлений
const (
	LowStockThreshold   = 2
	OutOfStockThreshold = 0
)

// InventoryService управляет остатками оборудования.
// Остаток меняется только через Reserve/Release
type InventoryService struct {
	DB       *gorm.DB
	Notifier Notifier
}

// NewInventoryService создает новый экземпляр InventoryService
func NewInventoryService(db *gorm.DB, notifier Notifier) *InventoryService {
	return &InventoryService{DB: db, Notifier: notifier}
}

// LowStockNotice сообщает, что остаток на пороге исчерпания
func LowStockNotice(quantity int) bool {
	return quantity > OutOfStockThreshold && quantity <= LowStockThreshold
}

// OutOfStockNotice сообщает, что остаток исчерпан
func OutOfStockNotice(quantity int) bool {
	return quantity <= OutOfStockThreshold
}

// Reserve атомарно списывает amount со склада.
// Проверка остатка и списание выполняются одним условным UPDATE,
// поэтому параллельные выдачи не могут увести остаток в минус
func (s *InventoryService) Reserve(barcode string, amount int) (int, error) {
	item, err := s.reserveTx(s.DB, barcode, amount)
	if err != nil {
		return 0, err
	}
	s.notifyStockLevel(item)
	return item.Quantity, nil
}

// reserveTx выполняет резервирование внутри переданной транзакции.
// Уведомления об остатках здесь не отправляются: состояние еще не зафиксировано
func (s *InventoryService) reserveTx(tx *gorm.DB, barcode string, amount int) (*models.InventoryItem, error) {
	if amount <= 0 {
		return nil, ErrInvalidQuantity
	}

	// Одно условное списание: guard по остатку прямо в WHERE
	res := tx.Model(&models.InventoryItem{}).
		Where("barcode = ? AND quantity >= ?", barcode, amount).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// Либо штрихкод не существует, либо остатка не хватает
		var item models.InventoryItem
		if err := tx.Where("barcode = ?", barcode).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrItemNotFound
			}
			return nil, err
		}
		return nil, &StockError{Barcode: barcode, Requested: amount, Available: item.Quantity}
	}

	// Перечитываем запись с новым остатком
	var item models.InventoryItem
	if err := tx.Where("barcode = ?", barcode).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Release атомарно возвращает amount на склад
func (s *InventoryService) Release(barcode string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidQuantity
	}

	res := s.DB.Model(&models.InventoryItem{}).
		Where("barcode = ?", barcode).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrItemNotFound
	}

	var item models.InventoryItem
	if err := s.DB.Where("barcode = ?", barcode).First(&item).Error; err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

// CheckStockLevel перечитывает остаток и отправляет уведомление, если он низкий.
// Вызывается после фиксации транзакции выдачи
func (s *InventoryService) CheckStockLevel(barcode string) {
	var item models.InventoryItem
	if err := s.DB.Where("barcode = ?", barcode).First(&item).Error; err != nil {
		log.Printf("Ошибка при проверке остатка %s: %v", barcode, err)
		return
	}
	s.notifyStockLevel(&item)
}

// notifyStockLevel отправляет уведомление администраторам по порогам остатка
func (s *InventoryService) notifyStockLevel(item *models.InventoryItem) {
	if s.Notifier == nil {
		return
	}
	if OutOfStockNotice(item.Quantity) {
		s.Notifier.Notify(models.NotificationKindOutOfStock,
			fmt.Sprintf("Оборудование закончилось: %s (%s)", item.Name, item.Barcode), nil)
		return
	}
	if LowStockNotice(item.Quantity) {
		s.Notifier.Notify(models.NotificationKindLowStock,
			fmt.Sprintf("Заканчивается оборудование: %s (%s), остаток %d", item.Name, item.Barcode, item.Quantity), nil)
	}
}
