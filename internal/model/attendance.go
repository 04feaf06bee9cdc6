package model

import "time"

// AttendanceRecord is one visit. A nil CheckOutTime means the session is
// still active; HoursSpent is set exactly once, at checkout, and the
// record is immutable after that.
type AttendanceRecord struct {
	ID           int64      `json:"id"`
	MemberID     int64      `json:"member_id"`
	MemberName   string     `json:"member_name"`
	RFIDNumber   string     `json:"rfid_number"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	HoursSpent   *float64   `json:"hours_spent,omitempty"`
}

// Active reports whether the record is an open session.
func (r *AttendanceRecord) Active() bool {
	return r.CheckOutTime == nil
}

// AttendanceStats is the admin dashboard summary.
type AttendanceStats struct {
	PresentCount    int               `json:"present_count"`
	TotalHoursToday float64           `json:"total_hours_today"`
	LastCheckIn     *AttendanceRecord `json:"last_check_in,omitempty"`
}
