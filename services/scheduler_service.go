package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"labstock-backend/models"

	"gorm.io/gorm"
)

// Scheduler запускает три независимых периодических прохода:
// просрочка, напоминания и плановое обслуживание.
// Один экземпляр на процесс, явный жизненный цикл Start/Stop
type Scheduler struct {
	DB       *gorm.DB
	Notifier *NotificationService

	OverdueInterval     time.Duration
	ReminderInterval    time.Duration
	MaintenanceInterval time.Duration
	ReminderWindow      time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewScheduler создает планировщик с интервалами по умолчанию
func NewScheduler(db *gorm.DB, notifier *NotificationService) *Scheduler {
	return &Scheduler{
		DB:                  db,
		Notifier:            notifier,
		OverdueInterval:     time.Minute,
		ReminderInterval:    time.Minute,
		MaintenanceInterval: 24 * time.Hour,
		ReminderWindow:      5 * time.Minute,
		stop:                make(chan struct{}),
	}
}

// Start запускает проходы. Каждый проход выполняется внутри своего тикера
// синхронно, поэтому не накладывается сам на себя
func (s *Scheduler) Start() {
	s.runLoop(s.OverdueInterval, s.RunOverdueSweep)
	s.runLoop(s.ReminderInterval, s.RunReminderSweep)
	s.runLoop(s.MaintenanceInterval, s.RunMaintenanceSweep)
	log.Printf("Планировщик запущен: просрочка %v, напоминания %v, обслуживание %v",
		s.OverdueInterval, s.ReminderInterval, s.MaintenanceInterval)
}

// Stop останавливает все проходы и дожидается их завершения.
// Текущий проход дорабатывает до конца, прерывания посреди записи нет
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Scheduler) runLoop(interval time.Duration, sweep func(time.Time)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				sweep(now)
			case <-s.stop:
				return
			}
		}
	}()
}

// sweepStatuses статусы, из которых выдача может уйти в просрочку
var sweepStatuses = []string{
	models.ReturnStatusPending,
	models.ReturnStatusExtended,
	models.ReturnStatusPartial,
}

// RunOverdueSweep помечает просроченные выдачи и шлет уведомления.
// Ошибка по одной записи логируется, проход продолжается
func (s *Scheduler) RunOverdueSweep(now time.Time) {
	var txns []models.BorrowTransaction
	if err := s.DB.Where("transaction_type = ? AND return_status IN ? AND due_date < ?",
		models.TransactionTypeBorrowed, sweepStatuses, now).
		Find(&txns).Error; err != nil {
		log.Printf("Проход просрочки: ошибка выборки: %v", err)
		return
	}

	for _, txn := range txns {
		// Условный UPDATE: между выборкой и этим местом выдачу могли
		// вернуть или продлить
		res := s.DB.Model(&models.BorrowTransaction{}).
			Where("id = ? AND return_status IN ?", txn.ID, sweepStatuses).
			Update("return_status", models.ReturnStatusOverdue)
		if res.Error != nil {
			log.Printf("Проход просрочки: выдача %d: %v", txn.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}

		// Уведомления гейтуются флагом отдельно от смены статуса:
		// повторное попадание в Overdue после частичного возврата
		// не должно дублировать письмо
		flagRes := s.DB.Model(&models.BorrowTransaction{}).
			Where("id = ? AND overdue_email_sent = ?", txn.ID, false).
			Update("overdue_email_sent", true)
		if flagRes.Error != nil {
			log.Printf("Проход просрочки: выдача %d: %v", txn.ID, flagRes.Error)
			continue
		}
		if flagRes.RowsAffected == 0 {
			continue
		}

		uid := txn.UserID
		s.Notifier.Notify(models.NotificationKindOverdue,
			fmt.Sprintf("Просрочена выдача #%d: %s, срок был %s",
				txn.ID, txn.UserName, txn.DueDate.Format("02.01.2006 15:04")), nil)
		s.Notifier.Notify(models.NotificationKindOverdue,
			fmt.Sprintf("Срок возврата по выдаче #%d истек, верните оборудование", txn.ID), &uid)
		s.Notifier.EmailUser(uid, "Просрочен возврат оборудования",
			fmt.Sprintf("Срок возврата по выдаче #%d истек %s. Пожалуйста, верните оборудование или продлите выдачу.",
				txn.ID, txn.DueDate.Format("02.01.2006 15:04")))
		s.Notifier.SMSUser(uid, fmt.Sprintf("Просрочена выдача #%d, верните оборудование", txn.ID))
	}
}

// reminderStatuses статусы, по которым шлются напоминания о сроке
var reminderStatuses = []string{
	models.ReturnStatusPending,
	models.ReturnStatusExtended,
}

// RunReminderSweep шлет напоминания о приближающемся сроке возврата.
// Отправка ровно один раз на срок: флаг reminder_sent выставляется
// тем же условным UPDATE, который разрешает отправку
func (s *Scheduler) RunReminderSweep(now time.Time) {
	windowEnd := now.Add(s.ReminderWindow)

	var txns []models.BorrowTransaction
	if err := s.DB.Where(
		"transaction_type = ? AND return_status IN ? AND reminder_sent = ? AND due_date > ? AND due_date <= ?",
		models.TransactionTypeBorrowed, reminderStatuses, false, now, windowEnd).
		Find(&txns).Error; err != nil {
		log.Printf("Проход напоминаний: ошибка выборки: %v", err)
		return
	}

	for _, txn := range txns {
		res := s.DB.Model(&models.BorrowTransaction{}).
			Where("id = ? AND reminder_sent = ?", txn.ID, false).
			Update("reminder_sent", true)
		if res.Error != nil {
			log.Printf("Проход напоминаний: выдача %d: %v", txn.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue // прошлый проход успел раньше
		}

		uid := txn.UserID
		s.Notifier.Notify(models.NotificationKindReminder,
			fmt.Sprintf("Срок возврата по выдаче #%d наступает %s",
				txn.ID, txn.DueDate.Format("02.01.2006 15:04")), &uid)
		s.Notifier.EmailUser(uid, "Напоминание о возврате оборудования",
			fmt.Sprintf("Срок возврата по выдаче #%d наступает %s.",
				txn.ID, txn.DueDate.Format("02.01.2006 15:04")))
		s.Notifier.SMSUser(uid, fmt.Sprintf("Напоминание: верните оборудование по выдаче #%d", txn.ID))
	}
}

// RunMaintenanceSweep шлет уведомления о плановом обслуживании.
// Повторная отправка в рамках периода гейтуется last_maintenance_notified:
// для Daily сравнение по дню, для остальных частот по номеру недели
func (s *Scheduler) RunMaintenanceSweep(now time.Time) {
	var items []models.InventoryItem
	if err := s.DB.Preload("Maintenance").
		Where("pm_needed = ?", "Yes").
		Find(&items).Error; err != nil {
		log.Printf("Проход обслуживания: ошибка выборки: %v", err)
		return
	}

	week := WeekOfYear(now)

	for _, item := range items {
		due := false
		switch item.PMFrequency {
		case models.PMFrequencyDaily, models.PMFrequencyWeekly:
			due = true
		default:
			for _, entry := range item.Maintenance {
				if entry.WeekNum == week {
					due = true
					break
				}
			}
		}
		if !due {
			continue
		}

		if last := item.LastMaintenanceNotified; last != nil {
			if item.PMFrequency == models.PMFrequencyDaily {
				if last.Year() == now.Year() && last.YearDay() == now.YearDay() {
					continue
				}
			} else {
				if last.Year() == now.Year() && WeekOfYear(*last) == week {
					continue
				}
			}
		}

		res := s.DB.Model(&models.InventoryItem{}).
			Where("id = ?", item.ID).
			UpdateColumn("last_maintenance_notified", now)
		if res.Error != nil {
			log.Printf("Проход обслуживания: позиция %d: %v", item.ID, res.Error)
			continue
		}

		s.Notifier.Notify(models.NotificationKindMaintenance,
			fmt.Sprintf("Плановое обслуживание: %s (%s), неделя %d",
				item.Name, item.Barcode, week), nil)
	}
}
