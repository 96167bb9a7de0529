package services

import (
	"errors"
	"fmt"
	"time"

	"labstock-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionService управляет жизненным циклом выдачи и возврата оборудования
type TransactionService struct {
	DB        *gorm.DB
	Inventory *InventoryService
	Notifier  Notifier
}

// NewTransactionService создает новый экземпляр TransactionService
func NewTransactionService(db *gorm.DB, inventory *InventoryService, notifier Notifier) *TransactionService {
	return &TransactionService{DB: db, Inventory: inventory, Notifier: notifier}
}

// BorrowItemRequest одна позиция запроса на выдачу
type BorrowItemRequest struct {
	ItemBarcode string `json:"item_barcode"`
	Quantity    int    `json:"quantity"`
}

// BorrowRequest запрос на выдачу оборудования
type BorrowRequest struct {
	UserID           uint
	Items            []BorrowItemRequest
	Course           string
	RoomNo           string
	BorrowedDuration string
	Notes            string
}

// ReturnClaim заявленная к возврату позиция
type ReturnClaim struct {
	ItemBarcode string `json:"item_barcode"`
	Quantity    int    `json:"quantity"`
	Condition   string `json:"condition"`
}

// ReturnRequest запрос на возврат (полный или частичный)
type ReturnRequest struct {
	TransactionID       uint
	UserID              uint
	Claims              []ReturnClaim
	FeedbackEmoji       string
	PartialReturnReason string
}

// mergeItemRequests склеивает повторяющиеся штрихкоды в одну позицию.
// Инвариант: на один штрихкод в транзакции одна позиция, иначе возврат
// не сможет погасить остаток по задвоенной строке
func mergeItemRequests(items []BorrowItemRequest) []BorrowItemRequest {
	merged := make([]BorrowItemRequest, 0, len(items))
	index := make(map[string]int)
	for _, it := range items {
		if i, ok := index[it.ItemBarcode]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.ItemBarcode] = len(merged)
		merged = append(merged, it)
	}
	return merged
}

// Borrow создает транзакцию выдачи: резервирует остатки и пишет запись
// со статусом Pending. Резервы и создание записи идут в одной транзакции БД
func (s *TransactionService) Borrow(req BorrowRequest) (*models.BorrowTransaction, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItemsRequested
	}
	req.Items = mergeItemRequests(req.Items)

	duration, err := ParseBorrowDuration(req.BorrowedDuration)
	if err != nil {
		return nil, err
	}

	// Пользователь и снапшот его данных на момент выдачи
	var user models.User
	if err := s.DB.First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	course := req.Course
	if course == "" {
		course = user.Course
	}

	now := time.Now()
	txn := &models.BorrowTransaction{
		ReferenceID:      uuid.NewString(),
		UserID:           user.ID,
		UserName:         user.Name,
		ContactNumber:    user.ContactNumber,
		Course:           course,
		RoomNo:           req.RoomNo,
		TransactionType:  models.TransactionTypeBorrowed,
		ReturnStatus:     models.ReturnStatusPending,
		BorrowDate:       now,
		DueDate:          now.Add(duration),
		BorrowedDuration: req.BorrowedDuration,
		Notes:            req.Notes,
	}

	// Начинаем транзакцию
	tx := s.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, it := range req.Items {
		item, err := s.Inventory.reserveTx(tx, it.ItemBarcode, it.Quantity)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		txn.Items = append(txn.Items, models.TransactionItem{
			ItemBarcode:      item.Barcode,
			ItemName:         item.Name, // снапшот названия
			QuantityBorrowed: it.Quantity,
		})
	}

	if err := tx.Create(txn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	// Уведомления только после фиксации состояния, доставка best-effort
	if s.Notifier != nil {
		s.Notifier.Notify(models.NotificationKindBorrow,
			fmt.Sprintf("Выдача #%d: %s, позиций %d, вернуть до %s",
				txn.ID, txn.UserName, len(txn.Items), txn.DueDate.Format("02.01.2006 15:04")), nil)
	}
	for _, it := range req.Items {
		s.Inventory.CheckStockLevel(it.ItemBarcode)
	}

	return txn, nil
}

// Return проводит возврат по заявленным позициям.
// Ошибка склада в середине цикла прерывает оставшиеся позиции,
// но уже примененные изменения не откатываются
func (s *TransactionService) Return(req ReturnRequest) (*models.BorrowTransaction, error) {
	var txn models.BorrowTransaction
	if err := s.DB.Preload("Items").
		Where("id = ? AND user_id = ? AND transaction_type = ?",
			req.TransactionID, req.UserID, models.TransactionTypeBorrowed).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	// Индекс позиций по штрихкоду
	byBarcode := make(map[string]*models.TransactionItem)
	for i := range txn.Items {
		byBarcode[txn.Items[i].ItemBarcode] = &txn.Items[i]
	}

	// Оставляем только заявки по позициям с невозвращенным остатком
	var eligible []ReturnClaim
	for _, claim := range req.Claims {
		line, ok := byBarcode[claim.ItemBarcode]
		if !ok || claim.Quantity <= 0 {
			continue
		}
		if line.Outstanding() > 0 {
			eligible = append(eligible, claim)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNothingToReturn
	}

	var sweepErr error
	for _, claim := range eligible {
		line := byBarcode[claim.ItemBarcode]

		// Никогда не возвращаем больше, чем осталось на руках
		returnQty := claim.Quantity
		if remaining := line.Outstanding(); returnQty > remaining {
			returnQty = remaining
		}
		if returnQty <= 0 {
			continue // повторная заявка на тот же штрихкод в одном запросе
		}

		// Атомарный инкремент с защитой инварианта returned <= borrowed
		res := s.DB.Model(&models.TransactionItem{}).
			Where("id = ? AND quantity_returned + ? <= quantity_borrowed", line.ID, returnQty).
			Updates(map[string]interface{}{
				"quantity_returned": gorm.Expr("quantity_returned + ?", returnQty),
				"condition":         claim.Condition,
			})
		if res.Error != nil {
			sweepErr = res.Error
			break
		}
		if res.RowsAffected == 0 {
			continue // параллельный возврат успел раньше
		}

		line.QuantityReturned += returnQty
		line.Condition = claim.Condition

		if line.Outstanding() == 0 {
			if err := s.DB.Model(&models.TransactionItem{}).
				Where("id = ?", line.ID).
				Update("fully_returned", true).Error; err != nil {
				sweepErr = err
				break
			}
			line.FullyReturned = true
		}

		// Возвращаем остаток на склад
		if _, err := s.Inventory.Release(claim.ItemBarcode, returnQty); err != nil {
			sweepErr = err
			break
		}
	}

	// Пересчитываем статус транзакции по фактическому состоянию позиций
	var items []models.TransactionItem
	if err := s.DB.Where("transaction_id = ?", txn.ID).Find(&items).Error; err != nil {
		return nil, err
	}
	allReturned := true
	for i := range items {
		if items[i].Outstanding() > 0 {
			allReturned = false
			break
		}
	}

	status := models.ReturnStatusPartial
	if allReturned {
		status = models.ReturnStatusCompleted
	}

	// Дата возврата фиксируется при каждой сверке, включая частичную
	updates := map[string]interface{}{
		"return_status": status,
		"return_date":   time.Now(),
	}
	if req.FeedbackEmoji != "" {
		updates["feedback_emoji"] = req.FeedbackEmoji
	}
	if req.PartialReturnReason != "" {
		updates["partial_return_reason"] = req.PartialReturnReason
	}
	if err := s.DB.Model(&models.BorrowTransaction{}).
		Where("id = ?", txn.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	// Перечитываем итоговое состояние
	if err := s.DB.Preload("Items").First(&txn, txn.ID).Error; err != nil {
		return nil, err
	}

	// Уведомления после фиксации состояния
	if s.Notifier != nil {
		kind := models.NotificationKindReturn
		summary := fmt.Sprintf("Возврат по выдаче #%d: полный", txn.ID)
		if status == models.ReturnStatusPartial {
			summary = fmt.Sprintf("Возврат по выдаче #%d: частичный", txn.ID)
		}
		s.Notifier.Notify(kind, summary, nil)

		uid := txn.UserID
		s.Notifier.Notify(kind, fmt.Sprintf("Ваш возврат по выдаче #%d принят", txn.ID), &uid)
	}

	return &txn, sweepErr
}

// Extend продлевает просроченную выдачу. Разрешено только из статуса Overdue;
// условный UPDATE защищает от гонки с планировщиком и возвратом
func (s *TransactionService) Extend(transactionID uint, newDuration string) (*models.BorrowTransaction, error) {
	duration, err := ParseBorrowDuration(newDuration)
	if err != nil {
		return nil, err
	}

	var txn models.BorrowTransaction
	if err := s.DB.Where("id = ? AND transaction_type = ?",
		transactionID, models.TransactionTypeBorrowed).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	newDue := txn.DueDate.Add(duration)

	// Смена статуса, перенос срока и сброс флагов уведомлений одним UPDATE.
	// Сброс флагов позволяет напоминанию и просрочке сработать для нового срока
	res := s.DB.Model(&models.BorrowTransaction{}).
		Where("id = ? AND return_status = ?", txn.ID, models.ReturnStatusOverdue).
		Updates(map[string]interface{}{
			"return_status":      models.ReturnStatusExtended,
			"due_date":           newDue,
			"extended_duration":  gorm.Expr("extended_duration + ?", duration.Milliseconds()),
			"reminder_sent":      false,
			"overdue_email_sent": false,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidState
	}

	if err := s.DB.Preload("Items").First(&txn, txn.ID).Error; err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		uid := txn.UserID
		s.Notifier.Notify(models.NotificationKindExtension,
			fmt.Sprintf("Выдача #%d продлена до %s", txn.ID, txn.DueDate.Format("02.01.2006 15:04")), &uid)
	}

	return &txn, nil
}

// AddItems добавляет позиции к существующей открытой выдаче:
// резервирует остатки и дополняет либо создает позиции
func (s *TransactionService) AddItems(transactionID uint, items []BorrowItemRequest) (*models.BorrowTransaction, error) {
	if len(items) == 0 {
		return nil, ErrNoItemsRequested
	}
	items = mergeItemRequests(items)

	var txn models.BorrowTransaction
	if err := s.DB.Preload("Items").
		Where("id = ? AND transaction_type = ?", transactionID, models.TransactionTypeBorrowed).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if !txn.IsOpen() {
		return nil, ErrInvalidState
	}

	byBarcode := make(map[string]*models.TransactionItem)
	for i := range txn.Items {
		byBarcode[txn.Items[i].ItemBarcode] = &txn.Items[i]
	}

	// Начинаем транзакцию
	tx := s.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, it := range items {
		item, err := s.Inventory.reserveTx(tx, it.ItemBarcode, it.Quantity)
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		if line, ok := byBarcode[it.ItemBarcode]; ok {
			// Позиция уже есть: наращиваем выданное количество
			if err := tx.Model(&models.TransactionItem{}).
				Where("id = ?", line.ID).
				Updates(map[string]interface{}{
					"quantity_borrowed": gorm.Expr("quantity_borrowed + ?", it.Quantity),
					"fully_returned":    false,
				}).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		} else {
			newLine := models.TransactionItem{
				TransactionID:    txn.ID,
				ItemBarcode:      item.Barcode,
				ItemName:         item.Name,
				QuantityBorrowed: it.Quantity,
			}
			if err := tx.Create(&newLine).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	for _, it := range items {
		s.Inventory.CheckStockLevel(it.ItemBarcode)
	}

	if err := s.DB.Preload("Items").First(&txn, txn.ID).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}
