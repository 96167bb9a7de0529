package services

import (
	"errors"
	"fmt"
)

// Ошибки доменного слоя; контроллеры переводят их в HTTP статусы
var (
	ErrUserNotFound             = errors.New("user not found")
	ErrItemNotFound             = errors.New("inventory item not found")
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrNothingToReturn          = errors.New("nothing to return")
	ErrInvalidState             = errors.New("transition not permitted for current status")
	ErrInvalidQuantity          = errors.New("quantity must be positive")
	ErrNoItemsRequested         = errors.New("no items requested")
	ErrInvalidDuration          = errors.New("malformed duration")
	ErrUnsupportedDurationUnit  = errors.New("unsupported duration unit")
	ErrInvalidWeek              = errors.New("week number out of schedule")
	ErrInvalidMaintenanceStatus = errors.New("invalid maintenance status")
	ErrItemInUse                = errors.New("item is referenced by an open transaction")
)

// StockError возвращается, когда резервирование не проходит по остатку
type StockError struct {
	Barcode   string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Barcode, e.Requested, e.Available)
}
