package model

import (
	"regexp"
	"time"
)

// RFIDPattern is the accepted card identifier format: two uppercase
// letters followed by six digits, e.g. RF123456. Validated when a member
// is created or updated, not re-checked on every scan.
var RFIDPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{6}$`)

// Member is a user with the member role plus the prepaid-hours ledger.
// MembershipHours is the total ever granted, TotalHoursUsed the total
// ever consumed; remaining hours are always derived, never stored.
type Member struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone,omitempty"`
	Address         string    `json:"address,omitempty"`
	RFIDNumber      string    `json:"rfid_number"`
	MembershipHours float64   `json:"membership_hours"`
	TotalHoursUsed  float64   `json:"total_hours_used"`
	PlanID          *int64    `json:"plan_id,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// RemainingHours returns the raw derived balance, which may be negative
// when a member has overdrawn their granted hours.
func (m *Member) RemainingHours() float64 {
	return m.MembershipHours - m.TotalHoursUsed
}

// Balance returns the member's current hours snapshot.
func (m *Member) Balance() BalanceSnapshot {
	remaining := m.RemainingHours()
	display := remaining
	if display < 0 {
		display = 0
	}
	return BalanceSnapshot{
		MemberID:         m.ID,
		Name:             m.Name,
		MembershipHours:  m.MembershipHours,
		TotalHoursUsed:   m.TotalHoursUsed,
		RemainingHours:   remaining,
		DisplayRemaining: display,
	}
}

// BalanceSnapshot is the hours summary returned by checkout and payment
// approval. RemainingHours is unclamped (negative means overdraw);
// DisplayRemaining is the UI-facing value clamped at zero.
type BalanceSnapshot struct {
	MemberID         int64   `json:"member_id"`
	Name             string  `json:"name"`
	MembershipHours  float64 `json:"membership_hours"`
	TotalHoursUsed   float64 `json:"total_hours_used"`
	RemainingHours   float64 `json:"remaining_hours"`
	DisplayRemaining float64 `json:"display_remaining"`
}
