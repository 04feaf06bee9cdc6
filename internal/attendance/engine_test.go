package attendance

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mohitgulati1999/rfid-joinery/internal/database"
	"github.com/mohitgulati1999/rfid-joinery/internal/model"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
)

func setupEngine(t *testing.T) (*Engine, *store.MemberStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	members := store.NewMemberStore(db)
	records := store.NewAttendanceStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(members, records, logger), members
}

func createMember(t *testing.T, ms *store.MemberStore, rfid string, hours float64, active bool) *model.Member {
	t.Helper()
	m, err := ms.Create(rfid+"@example.com", "hash", "Member "+rfid, rfid, hours, active)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}

func TestCheckInOpensSession(t *testing.T) {
	e, ms := setupEngine(t)
	m := createMember(t, ms, "AB123456", 10, true)

	checkIn := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return checkIn }

	result, err := e.CheckIn("AB123456")
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if result.Record.MemberID != m.ID {
		t.Errorf("member_id = %d, want %d", result.Record.MemberID, m.ID)
	}
	if !result.Record.Active() {
		t.Error("expected an open session")
	}
	if result.Balance.RemainingHours != 10 {
		t.Errorf("remaining = %v, want 10 (check-in must not bill)", result.Balance.RemainingHours)
	}
}

func TestCheckInUnknownRFID(t *testing.T) {
	e, _ := setupEngine(t)

	_, err := e.CheckIn("ZZ999999")
	if !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("err = %v, want ErrMemberNotFound", err)
	}
}

func TestCheckInInactiveMember(t *testing.T) {
	e, ms := setupEngine(t)
	createMember(t, ms, "AB123456", 10, false)

	_, err := e.CheckIn("AB123456")
	if !errors.Is(err, ErrMemberInactive) {
		t.Fatalf("err = %v, want ErrMemberInactive", err)
	}
}

func TestDoubleCheckIn(t *testing.T) {
	e, ms := setupEngine(t)
	createMember(t, ms, "AB123456", 10, true)

	if _, err := e.CheckIn("AB123456"); err != nil {
		t.Fatalf("first check in: %v", err)
	}
	_, err := e.CheckIn("AB123456")
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("second check in err = %v, want ErrAlreadyCheckedIn", err)
	}
}

func TestImmediateCheckOutBillsMinimum(t *testing.T) {
	e, ms := setupEngine(t)
	m := createMember(t, ms, "AB123456", 10, true)

	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return at }

	if _, err := e.CheckIn("AB123456"); err != nil {
		t.Fatalf("check in: %v", err)
	}
	result, err := e.CheckOut("AB123456")
	if err != nil {
		t.Fatalf("check out: %v", err)
	}

	if result.Record.HoursSpent == nil || *result.Record.HoursSpent != 0.25 {
		t.Errorf("hours_spent = %v, want 0.25", result.Record.HoursSpent)
	}
	if result.Balance.TotalHoursUsed != 0.25 {
		t.Errorf("total_hours_used = %v, want 0.25", result.Balance.TotalHoursUsed)
	}
	if result.Balance.RemainingHours != 9.75 {
		t.Errorf("remaining = %v, want 9.75", result.Balance.RemainingHours)
	}

	got, err := ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if got.TotalHoursUsed != 0.25 {
		t.Errorf("persisted total_hours_used = %v, want 0.25", got.TotalHoursUsed)
	}
}

func TestCheckOutBillsElapsedTime(t *testing.T) {
	e, ms := setupEngine(t)
	createMember(t, ms, "AB123456", 10, true)

	checkIn := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return checkIn }
	if _, err := e.CheckIn("AB123456"); err != nil {
		t.Fatalf("check in: %v", err)
	}

	e.now = func() time.Time { return checkIn.Add(150 * time.Minute) }
	result, err := e.CheckOut("AB123456")
	if err != nil {
		t.Fatalf("check out: %v", err)
	}

	if result.Record.HoursSpent == nil || *result.Record.HoursSpent != 2.5 {
		t.Errorf("hours_spent = %v, want 2.5", result.Record.HoursSpent)
	}
	if result.Balance.RemainingHours != 7.5 {
		t.Errorf("remaining = %v, want 7.5", result.Balance.RemainingHours)
	}
}

func TestCheckOutWithoutSession(t *testing.T) {
	e, ms := setupEngine(t)
	createMember(t, ms, "AB123456", 10, true)

	_, err := e.CheckOut("AB123456")
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestCheckOutAllowsOverdraw(t *testing.T) {
	e, ms := setupEngine(t)
	createMember(t, ms, "AB123456", 1, true)

	checkIn := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return checkIn }
	if _, err := e.CheckIn("AB123456"); err != nil {
		t.Fatalf("check in: %v", err)
	}

	// Three hours against a one-hour balance still checks out
	e.now = func() time.Time { return checkIn.Add(3 * time.Hour) }
	result, err := e.CheckOut("AB123456")
	if err != nil {
		t.Fatalf("check out: %v", err)
	}

	if result.Balance.RemainingHours != -2 {
		t.Errorf("remaining = %v, want -2", result.Balance.RemainingHours)
	}
	if result.Balance.DisplayRemaining != 0 {
		t.Errorf("display_remaining = %v, want 0", result.Balance.DisplayRemaining)
	}
}

func TestInactiveMemberCanStillCheckOut(t *testing.T) {
	e, ms := setupEngine(t)
	m := createMember(t, ms, "AB123456", 10, true)

	checkIn := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return checkIn }
	if _, err := e.CheckIn("AB123456"); err != nil {
		t.Fatalf("check in: %v", err)
	}

	// Deactivation mid-visit must not trap the session open
	inactive := false
	if _, err := ms.Update(m.ID, store.MemberUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate member: %v", err)
	}

	e.now = func() time.Time { return checkIn.Add(time.Hour) }
	if _, err := e.CheckOut("AB123456"); err != nil {
		t.Fatalf("check out after deactivation: %v", err)
	}
}

func TestCurrentCheckIns(t *testing.T) {
	e, ms := setupEngine(t)
	createMember(t, ms, "AB111111", 10, true)
	createMember(t, ms, "AB222222", 10, true)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }
	if _, err := e.CheckIn("AB111111"); err != nil {
		t.Fatalf("check in 1: %v", err)
	}
	e.now = func() time.Time { return base.Add(time.Hour) }
	if _, err := e.CheckIn("AB222222"); err != nil {
		t.Fatalf("check in 2: %v", err)
	}
	if _, err := e.CheckOut("AB111111"); err != nil {
		t.Fatalf("check out 1: %v", err)
	}

	current, err := e.CurrentCheckIns()
	if err != nil {
		t.Fatalf("current check-ins: %v", err)
	}
	if len(current) != 1 {
		t.Fatalf("current len = %d, want 1", len(current))
	}
	if current[0].RFIDNumber != "AB222222" {
		t.Errorf("current rfid = %q, want AB222222", current[0].RFIDNumber)
	}
}

func TestStats(t *testing.T) {
	e, ms := setupEngine(t)
	createMember(t, ms, "AB111111", 10, true)
	createMember(t, ms, "AB222222", 10, true)

	morning := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// First member visits for two hours and leaves
	e.now = func() time.Time { return morning }
	if _, err := e.CheckIn("AB111111"); err != nil {
		t.Fatalf("check in 1: %v", err)
	}
	e.now = func() time.Time { return morning.Add(2 * time.Hour) }
	if _, err := e.CheckOut("AB111111"); err != nil {
		t.Fatalf("check out 1: %v", err)
	}

	// Second member checks in at noon and is still present
	noon := morning.Add(3 * time.Hour)
	e.now = func() time.Time { return noon }
	if _, err := e.CheckIn("AB222222"); err != nil {
		t.Fatalf("check in 2: %v", err)
	}

	// Ask for stats half an hour later
	e.now = func() time.Time { return noon.Add(30 * time.Minute) }
	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.PresentCount != 1 {
		t.Errorf("present_count = %d, want 1", stats.PresentCount)
	}
	// 2.0 closed + 0.5 live elapsed
	if stats.TotalHoursToday != 2.5 {
		t.Errorf("total_hours_today = %v, want 2.5", stats.TotalHoursToday)
	}
	if stats.LastCheckIn == nil || stats.LastCheckIn.RFIDNumber != "AB222222" {
		t.Errorf("last check-in = %+v, want rfid AB222222", stats.LastCheckIn)
	}
}
