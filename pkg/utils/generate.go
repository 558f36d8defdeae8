package utils

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// ==================== BOOKING REFERENCE ====================

// GenerateBookingReference builds the human readable reference printed on vouchers.
// Format: UMR-YYYYMMDD-HHMMSS-NNNN
func GenerateBookingReference(now time.Time) string {
	datePart := now.Format("20060102")
	timePart := now.Format("150405")
	randomPart := fmt.Sprintf("%04d", rand.IntN(10000))

	return fmt.Sprintf("UMR-%s-%s-%s", datePart, timePart, randomPart)
}
