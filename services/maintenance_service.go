package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"labstock-backend/models"

	"gorm.io/gorm"
)

// Фиксированные недели графика обслуживания по частотам
var (
	monthlyWeeks   = []int{2, 7, 11, 15, 19, 24, 28, 33, 37, 41, 46, 50}
	quarterlyWeeks = []int{2, 15, 28, 41}
	annualWeeks    = []int{5}
)

// GenerateSchedule детерминированно строит годовой график обслуживания.
// pmNeeded != "Yes" дает пустой график
func GenerateSchedule(pmNeeded, pmFrequency string) []models.MaintenanceEntry {
	if pmNeeded != "Yes" {
		return nil
	}

	var weeks []int
	switch pmFrequency {
	case models.PMFrequencyDaily, models.PMFrequencyWeekly:
		// По одной записи на каждую неделю года
		for w := 1; w <= 52; w++ {
			weeks = append(weeks, w)
		}
	case models.PMFrequencyMonthly:
		weeks = monthlyWeeks
	case models.PMFrequencyQuarterly:
		weeks = quarterlyWeeks
	case models.PMFrequencyAnnually:
		weeks = annualWeeks
	default:
		return nil
	}

	entries := make([]models.MaintenanceEntry, 0, len(weeks))
	for i, w := range weeks {
		entries = append(entries, models.MaintenanceEntry{
			Week:     fmt.Sprintf("Week %d", w),
			WeekNum:  w,
			Status:   models.MaintenanceStatusPending,
			Position: i,
		})
	}
	return entries
}

// WeekOfYear вычисляет номер календарной недели:
// ceil((dayOfYear + weekday(1 января) + 1) / 7)
func WeekOfYear(t time.Time) int {
	jan1 := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	return int(math.Ceil(float64(t.YearDay()+int(jan1.Weekday())+1) / 7.0))
}

// MaintenanceService управляет графиками планового обслуживания
type MaintenanceService struct {
	DB *gorm.DB
}

// NewMaintenanceService создает новый экземпляр MaintenanceService
func NewMaintenanceService(db *gorm.DB) *MaintenanceService {
	return &MaintenanceService{DB: db}
}

// ReplaceSchedule целиком пересоздает график обслуживания позиции.
// Прежние отметки Completed/Skipped при этом теряются
func (s *MaintenanceService) ReplaceSchedule(tx *gorm.DB, itemID uint, pmNeeded, pmFrequency string) error {
	if err := tx.Where("item_id = ?", itemID).Delete(&models.MaintenanceEntry{}).Error; err != nil {
		return err
	}

	entries := GenerateSchedule(pmNeeded, pmFrequency)
	for i := range entries {
		entries[i].ItemID = itemID
		if err := tx.Create(&entries[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus меняет статус одной недели графика
func (s *MaintenanceService) UpdateStatus(itemID uint, weekNumber int, status string) error {
	if weekNumber < 1 || weekNumber > 52 {
		return ErrInvalidWeek
	}

	switch status {
	case models.MaintenanceStatusPending, models.MaintenanceStatusCompleted, models.MaintenanceStatusSkipped:
	default:
		return ErrInvalidMaintenanceStatus
	}

	var item models.InventoryItem
	if err := s.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		return err
	}

	// Неделя должна присутствовать в графике позиции
	res := s.DB.Model(&models.MaintenanceEntry{}).
		Where("item_id = ? AND week_num = ?", itemID, weekNumber).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidWeek
	}
	return nil
}
