package utils

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GenerateBarcode создает уникальный штрихкод вида BC######
// на основе количества записей; при коллизии добирает случайный хвост
func GenerateBarcode(db *gorm.DB, model interface{}) string {
	var count int64
	db.Model(model).Count(&count)

	barcode := fmt.Sprintf("BC%06d", count+100001)

	// Проверяем уникальность; после удалений счетчик может совпасть
	var exists int64
	db.Model(model).Where("barcode = ?", barcode).Count(&exists)
	if exists > 0 {
		id := uuid.New()
		barcode = fmt.Sprintf("BC%06d", int(id.ID())%900000+100000)
	}

	return barcode
}
