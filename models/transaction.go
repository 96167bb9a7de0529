package models

import (
	"time"

	"gorm.io/gorm"
)

// Типы транзакций
const (
	TransactionTypeBorrowed = "Borrowed"
	TransactionTypeReturned = "Returned"
)

// Статусы возврата (конечный автомат выдачи)
const (
	ReturnStatusPending     = "Pending"
	ReturnStatusCompleted   = "Completed"
	ReturnStatusPartial     = "PartiallyReturned"
	ReturnStatusOverdue     = "Overdue"
	ReturnStatusExtended    = "Extended"
	ReturnStatusTransferred = "Transferred"
)

// BorrowTransaction представляет запись о выдаче оборудования
type BorrowTransaction struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	ReferenceID string `json:"reference_id" gorm:"uniqueIndex;size:36"` // UUID для QR-кода и квитанций
	UserID      uint   `json:"user_id" gorm:"not null;index"`
	// Снапшоты данных пользователя на момент выдачи, не обновляются при изменении профиля
	UserName      string `json:"user_name" gorm:"not null"`
	ContactNumber string `json:"contact_number" gorm:"default:''"`
	Course        string `json:"course" gorm:"default:''"`
	RoomNo        string `json:"room_no" gorm:"default:''"`

	TransactionType string `json:"transaction_type" gorm:"size:20;not null;default:'Borrowed'"`
	ReturnStatus    string `json:"return_status" gorm:"size:30;not null;default:'Pending';index"`

	BorrowDate       time.Time  `json:"borrow_date" gorm:"not null"`
	DueDate          time.Time  `json:"due_date" gorm:"not null;index"`
	ReturnDate       *time.Time `json:"return_date"`
	BorrowedDuration string     `json:"borrowed_duration" gorm:"size:50"` // Исходная строка, например "3 hours"
	ExtendedDuration int64      `json:"extended_duration" gorm:"default:0"` // Накопленное продление в миллисекундах

	// Флаги отправки уведомлений, защита от дублей при повторных проходах планировщика
	ReminderSent     bool `json:"reminder_sent" gorm:"default:false"`
	OverdueEmailSent bool `json:"overdue_email_sent" gorm:"default:false"`

	FeedbackEmoji       string `json:"feedback_emoji" gorm:"size:10;default:''"`
	PartialReturnReason string `json:"partial_return_reason" gorm:"type:text"`
	Notes               string `json:"notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Связи
	User  *User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items []TransactionItem `json:"items" gorm:"foreignKey:TransactionID"`
}

// TransactionItem представляет позицию внутри транзакции выдачи
type TransactionItem struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	TransactionID uint   `json:"transaction_id" gorm:"not null;index"`
	ItemBarcode   string `json:"item_barcode" gorm:"not null;size:20;index"`
	ItemName      string `json:"item_name" gorm:"not null"` // Снапшот названия на момент выдачи
	// Инвариант: 0 <= QuantityReturned <= QuantityBorrowed
	QuantityBorrowed int    `json:"quantity_borrowed" gorm:"not null"`
	QuantityReturned int    `json:"quantity_returned" gorm:"not null;default:0"`
	Condition        string `json:"condition" gorm:"size:50;default:''"` // Состояние при возврате
	FullyReturned    bool   `json:"fully_returned" gorm:"default:false"`
}

// Outstanding возвращает количество, еще не возвращенное по позиции
func (ti *TransactionItem) Outstanding() int {
	return ti.QuantityBorrowed - ti.QuantityReturned
}

// IsOpen сообщает, остается ли транзакция открытой для возвратов и продлений
func (t *BorrowTransaction) IsOpen() bool {
	return t.ReturnStatus != ReturnStatusCompleted && t.ReturnStatus != ReturnStatusTransferred
}

// BeforeCreate хук для установки времени создания
func (t *BorrowTransaction) BeforeCreate(tx *gorm.DB) error {
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (t *BorrowTransaction) BeforeUpdate(tx *gorm.DB) error {
	t.UpdatedAt = time.Now()
	return nil
}
