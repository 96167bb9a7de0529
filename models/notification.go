package models

import (
	"time"

	"gorm.io/gorm"
)

// Виды уведомлений
const (
	NotificationKindBorrow      = "borrow"
	NotificationKindReturn      = "return"
	NotificationKindOverdue     = "overdue"
	NotificationKindReminder    = "reminder"
	NotificationKindMaintenance = "maintenance"
	NotificationKindLowStock    = "low_stock"
	NotificationKindOutOfStock  = "out_of_stock"
	NotificationKindExtension   = "extension"
)

// Notification представляет сохраненное уведомление
type Notification struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Kind    string `json:"kind" gorm:"size:30;not null;index"`
	Message string `json:"message" gorm:"type:text;not null"`
	// Получатель; nil означает уведомление для администраторов
	UserID    *uint     `json:"user_id" gorm:"index"`
	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate хук для установки времени создания
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	n.CreatedAt = time.Now()
	return nil
}
