package main

import (
	"strconv"
	"testing"
	"time"

	"labstock-backend/models"
	"labstock-backend/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// createTestBorrow создает запись выдачи напрямую, минуя сервис
func createTestBorrow(db *gorm.DB, userID uint, status string, due time.Time) *models.BorrowTransaction {
	txn := &models.BorrowTransaction{
		ReferenceID:     uuid.NewString(),
		UserID:          userID,
		UserName:        "Test User 1",
		TransactionType: models.TransactionTypeBorrowed,
		ReturnStatus:    status,
		BorrowDate:      time.Now().Add(-time.Hour),
		DueDate:         due,
	}
	db.Create(txn)
	return txn
}

func countNotifications(db *gorm.DB, kind string) int64 {
	var count int64
	db.Model(&models.Notification{}).Where("kind = ?", kind).Count(&count)
	return count
}

func TestOverdueSweep(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)

	now := time.Now()
	txn := createTestBorrow(db, user1ID, models.ReturnStatusPending, now.Add(-time.Hour))

	scheduler := services.NewScheduler(db, services.NewNotificationService(db, nil))
	scheduler.RunOverdueSweep(now)

	var after models.BorrowTransaction
	db.First(&after, txn.ID)
	assert.Equal(t, models.ReturnStatusOverdue, after.ReturnStatus)
	assert.True(t, after.OverdueEmailSent)

	// Ровно два уведомления: одно администраторам, одно должнику
	assert.Equal(t, int64(2), countNotifications(db, models.NotificationKindOverdue))

	var adminCount, userCount int64
	db.Model(&models.Notification{}).
		Where("kind = ? AND user_id IS NULL", models.NotificationKindOverdue).Count(&adminCount)
	db.Model(&models.Notification{}).
		Where("kind = ? AND user_id = ?", models.NotificationKindOverdue, user1ID).Count(&userCount)
	assert.Equal(t, int64(1), adminCount)
	assert.Equal(t, int64(1), userCount)

	// Повторный проход не плодит дублей
	scheduler.RunOverdueSweep(now.Add(time.Minute))
	assert.Equal(t, int64(2), countNotifications(db, models.NotificationKindOverdue))
}

func TestOverdueSweepSkipsFutureDue(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)

	now := time.Now()
	txn := createTestBorrow(db, user1ID, models.ReturnStatusPending, now.Add(time.Hour))

	scheduler := services.NewScheduler(db, services.NewNotificationService(db, nil))
	scheduler.RunOverdueSweep(now)

	var after models.BorrowTransaction
	db.First(&after, txn.ID)
	assert.Equal(t, models.ReturnStatusPending, after.ReturnStatus)
	assert.Equal(t, int64(0), countNotifications(db, models.NotificationKindOverdue))
}

func TestOverdueSweepNoDuplicateEmailAfterPartial(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)

	now := time.Now()
	// Частично возвращенная выдача, письмо о просрочке уже уходило
	txn := createTestBorrow(db, user1ID, models.ReturnStatusPartial, now.Add(-time.Hour))
	db.Model(txn).Update("overdue_email_sent", true)

	scheduler := services.NewScheduler(db, services.NewNotificationService(db, nil))
	scheduler.RunOverdueSweep(now)

	// Статус переводится снова, но уведомления не дублируются
	var after models.BorrowTransaction
	db.First(&after, txn.ID)
	assert.Equal(t, models.ReturnStatusOverdue, after.ReturnStatus)
	assert.Equal(t, int64(0), countNotifications(db, models.NotificationKindOverdue))
}

func TestReminderSweepIdempotent(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)

	now := time.Now()
	txn := createTestBorrow(db, user1ID, models.ReturnStatusPending, now.Add(3*time.Minute))

	scheduler := services.NewScheduler(db, services.NewNotificationService(db, nil))
	scheduler.RunReminderSweep(now)
	scheduler.RunReminderSweep(now.Add(time.Minute))

	var after models.BorrowTransaction
	db.First(&after, txn.ID)
	assert.True(t, after.ReminderSent)
	assert.Equal(t, int64(1), countNotifications(db, models.NotificationKindReminder))
}

func TestReminderSweepOutsideWindow(t *testing.T) {
	db := setupTestDB()
	user1ID, _ := createTestUsers(db)

	now := time.Now()
	createTestBorrow(db, user1ID, models.ReturnStatusPending, now.Add(10*time.Minute))

	scheduler := services.NewScheduler(db, services.NewNotificationService(db, nil))
	scheduler.RunReminderSweep(now)

	assert.Equal(t, int64(0), countNotifications(db, models.NotificationKindReminder))
}

func TestMaintenanceSweep(t *testing.T) {
	db := setupTestDB()

	now := time.Now()
	week := services.WeekOfYear(now)

	// Позиция с обслуживанием на текущей неделе
	due := models.InventoryItem{
		Barcode:     "BC100001",
		Name:        "Центрифуга",
		Quantity:    1,
		PMNeeded:    "Yes",
		PMFrequency: models.PMFrequencyQuarterly,
		Maintenance: []models.MaintenanceEntry{
			{Week: "Week " + strconv.Itoa(week), WeekNum: week, Status: models.MaintenanceStatusPending, Position: 1},
		},
	}
	db.Create(&due)

	// Позиция с обслуживанием на другой неделе
	otherWeek := week + 1
	if otherWeek > 52 {
		otherWeek = 1
	}
	notDue := models.InventoryItem{
		Barcode:     "BC100002",
		Name:        "Термостат",
		Quantity:    1,
		PMNeeded:    "Yes",
		PMFrequency: models.PMFrequencyQuarterly,
		Maintenance: []models.MaintenanceEntry{
			{Week: "Week " + strconv.Itoa(otherWeek), WeekNum: otherWeek, Status: models.MaintenanceStatusPending, Position: 1},
		},
	}
	db.Create(&notDue)

	scheduler := services.NewScheduler(db, services.NewNotificationService(db, nil))
	scheduler.RunMaintenanceSweep(now)

	assert.Equal(t, int64(1), countNotifications(db, models.NotificationKindMaintenance))

	var after models.InventoryItem
	db.First(&after, due.ID)
	assert.NotNil(t, after.LastMaintenanceNotified)

	// Повторный проход на той же неделе гейтуется меткой last_maintenance_notified
	scheduler.RunMaintenanceSweep(now)
	assert.Equal(t, int64(1), countNotifications(db, models.NotificationKindMaintenance))
}

func TestMaintenanceSweepWeeklyAlwaysDue(t *testing.T) {
	db := setupTestDB()

	item := models.InventoryItem{
		Barcode:     "BC100001",
		Name:        "Вытяжной шкаф",
		Quantity:    1,
		PMNeeded:    "Yes",
		PMFrequency: models.PMFrequencyWeekly,
	}
	db.Create(&item)

	now := time.Now()
	scheduler := services.NewScheduler(db, services.NewNotificationService(db, nil))
	scheduler.RunMaintenanceSweep(now)
	scheduler.RunMaintenanceSweep(now)

	assert.Equal(t, int64(1), countNotifications(db, models.NotificationKindMaintenance))
}

func TestMaintenanceSweepIgnoresPMNotNeeded(t *testing.T) {
	db := setupTestDB()

	item := models.InventoryItem{
		Barcode:  "BC100001",
		Name:     "Линейка",
		Quantity: 10,
		PMNeeded: "No",
	}
	db.Create(&item)

	scheduler := services.NewScheduler(db, services.NewNotificationService(db, nil))
	scheduler.RunMaintenanceSweep(time.Now())

	assert.Equal(t, int64(0), countNotifications(db, models.NotificationKindMaintenance))
}
