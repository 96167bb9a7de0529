package models

import (
	"time"

	"gorm.io/gorm"
)

// Частоты планового обслуживания (PM)
const (
	PMFrequencyDaily     = "Daily"
	PMFrequencyWeekly    = "Weekly"
	PMFrequencyMonthly   = "Monthly"
	PMFrequencyQuarterly = "Quarterly"
	PMFrequencyAnnually  = "Annually"
)

// Статусы недели планового обслуживания
const (
	MaintenanceStatusPending   = "Pending"
	MaintenanceStatusCompleted = "Completed"
	MaintenanceStatusSkipped   = "Skipped"
)

// InventoryItem представляет единицу оборудования на складе
type InventoryItem struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Barcode     string `json:"barcode" gorm:"uniqueIndex;not null;size:20"` // Системный штрихкод, например BC100001
	Name        string `json:"name" gorm:"not null;size:255"`
	Description string `json:"description" gorm:"type:text"`
	CategoryID  uint   `json:"category_id" gorm:"default:0"`
	Quantity    int    `json:"quantity" gorm:"not null;default:0"` // Доступное количество, меняется только через reserve/release
	Location    string `json:"location" gorm:"size:100;default:''"`
	PhotoPath   string `json:"photo_path" gorm:"default:''"`
	PMNeeded    string `json:"pm_needed" gorm:"size:3;default:'No'"` // 'Yes' или 'No'
	PMFrequency string `json:"pm_frequency" gorm:"size:20;default:''"`
	// Когда в последний раз отправлялось уведомление о плановом обслуживании
	LastMaintenanceNotified *time.Time `json:"last_maintenance_notified"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`

	// Связи
	Category    *Category          `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Maintenance []MaintenanceEntry `json:"maintenance_schedule" gorm:"foreignKey:ItemID"`
}

// MaintenanceEntry представляет одну неделю графика планового обслуживания
type MaintenanceEntry struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	ItemID   uint   `json:"item_id" gorm:"not null;index"`
	Week     string `json:"week" gorm:"size:20;not null"` // Метка недели, например "Week 15"
	WeekNum  int    `json:"week_num" gorm:"not null"`
	Status   string `json:"status" gorm:"size:20;default:'Pending'"` // Pending / Completed / Skipped
	Position int    `json:"position" gorm:"default:0"`               // Порядок в графике
}

// BeforeCreate хук для установки времени создания
func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	i.CreatedAt = time.Now()
	i.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (i *InventoryItem) BeforeUpdate(tx *gorm.DB) error {
	i.UpdatedAt = time.Now()
	return nil
}
