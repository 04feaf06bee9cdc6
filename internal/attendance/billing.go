package attendance

import (
	"math"
	"time"
)

// MinimumBillableHours is the smallest amount charged for a closed
// session: 15 minutes. Very short visits still bill a quarter hour, and
// zero-duration artifacts can never reach the ledger.
const MinimumBillableHours = 0.25

// BillableHours returns the hours charged for a session closed at
// checkOut: elapsed wall time rounded to two decimals, floored at the
// minimum billable unit.
func BillableHours(checkIn, checkOut time.Time) float64 {
	h := round2(checkOut.Sub(checkIn).Hours())
	if h < MinimumBillableHours {
		return MinimumBillableHours
	}
	return h
}

// ElapsedHours returns hours-so-far for a still-open session, rounded
// to two decimals. The minimum-billable floor does not apply here; it
// only kicks in at actual checkout.
func ElapsedHours(checkIn, now time.Time) float64 {
	return round2(now.Sub(checkIn).Hours())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
