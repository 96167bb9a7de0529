package services

import (
	"strconv"
	"strings"
	"time"
)

// ParseBorrowDuration разбирает строку срока выдачи вида "3 hours",
// "1 day", "45 minutes". Допускаются единственное число и сокращения
func ParseBorrowDuration(raw string) (time.Duration, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	if len(fields) != 2 {
		return 0, ErrInvalidDuration
	}

	value, err := strconv.Atoi(fields[0])
	if err != nil || value <= 0 {
		return 0, ErrInvalidDuration
	}

	var unit time.Duration
	switch fields[1] {
	case "minute", "minutes", "min", "mins":
		unit = time.Minute
	case "hour", "hours", "hr", "hrs":
		unit = time.Hour
	case "day", "days":
		unit = 24 * time.Hour
	default:
		return 0, ErrUnsupportedDurationUnit
	}

	return time.Duration(value) * unit, nil
}
