package store

import (
	"errors"
	"testing"

	"github.com/mohitgulati1999/rfid-joinery/internal/database"
)

func setupMemberTestDB(t *testing.T) *MemberStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMemberStore(db)
}

func TestMemberCreateAndGet(t *testing.T) {
	ms := setupMemberTestDB(t)

	m, err := ms.Create("alice@example.com", "hash", "Alice", "AB123456", 10, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if m.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", m.Email, "alice@example.com")
	}
	if m.RFIDNumber != "AB123456" {
		t.Errorf("rfid = %q, want %q", m.RFIDNumber, "AB123456")
	}
	if m.MembershipHours != 10 {
		t.Errorf("membership_hours = %v, want 10", m.MembershipHours)
	}
	if m.TotalHoursUsed != 0 {
		t.Errorf("total_hours_used = %v, want 0", m.TotalHoursUsed)
	}
	if !m.IsActive {
		t.Error("expected member to be active")
	}

	byRFID, err := ms.GetByRFID("AB123456")
	if err != nil {
		t.Fatalf("get by rfid: %v", err)
	}
	if byRFID == nil || byRFID.ID != m.ID {
		t.Fatalf("get by rfid returned %+v, want id %d", byRFID, m.ID)
	}

	byEmail, err := ms.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != m.ID {
		t.Fatalf("get by email returned %+v, want id %d", byEmail, m.ID)
	}
}

func TestMemberCreateInvalidRFID(t *testing.T) {
	ms := setupMemberTestDB(t)

	cases := []string{"", "ab123456", "AB12345", "AB1234567", "123456AB", "ABC12345"}
	for _, rfid := range cases {
		_, err := ms.Create("x@example.com", "hash", "X", rfid, 0, true)
		if !errors.Is(err, ErrInvalidRFID) {
			t.Errorf("Create(rfid=%q) err = %v, want ErrInvalidRFID", rfid, err)
		}
	}
}

func TestMemberGetNotFound(t *testing.T) {
	ms := setupMemberTestDB(t)

	m, err := ms.GetByID(9999)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m != nil {
		t.Error("expected nil for nonexistent member")
	}

	m, err = ms.GetByRFID("ZZ999999")
	if err != nil {
		t.Fatalf("get by rfid: %v", err)
	}
	if m != nil {
		t.Error("expected nil for unknown rfid")
	}
}

func TestMemberUpdate(t *testing.T) {
	ms := setupMemberTestDB(t)

	m, err := ms.Create("bob@example.com", "hash", "Bob", "CD654321", 5, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	name := "Robert"
	rfid := "EF111111"
	hours := 20.0
	inactive := false
	updated, err := ms.Update(m.ID, MemberUpdate{
		Name:            &name,
		RFIDNumber:      &rfid,
		MembershipHours: &hours,
		IsActive:        &inactive,
	})
	if err != nil {
		t.Fatalf("update member: %v", err)
	}
	if updated.Name != "Robert" {
		t.Errorf("name = %q, want %q", updated.Name, "Robert")
	}
	if updated.RFIDNumber != "EF111111" {
		t.Errorf("rfid = %q, want %q", updated.RFIDNumber, "EF111111")
	}
	if updated.MembershipHours != 20 {
		t.Errorf("membership_hours = %v, want 20", updated.MembershipHours)
	}
	if updated.IsActive {
		t.Error("expected member to be inactive")
	}

	badRFID := "nope"
	if _, err := ms.Update(m.ID, MemberUpdate{RFIDNumber: &badRFID}); !errors.Is(err, ErrInvalidRFID) {
		t.Errorf("update with bad rfid err = %v, want ErrInvalidRFID", err)
	}
}

func TestGrantAndConsumeHours(t *testing.T) {
	ms := setupMemberTestDB(t)

	m, err := ms.Create("carol@example.com", "hash", "Carol", "GH222222", 10, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	if err := ms.GrantHours(m.ID, 5); err != nil {
		t.Fatalf("grant hours: %v", err)
	}
	if err := ms.ConsumeHours(m.ID, 2.5); err != nil {
		t.Fatalf("consume hours: %v", err)
	}

	got, err := ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if got.MembershipHours != 15 {
		t.Errorf("membership_hours = %v, want 15", got.MembershipHours)
	}
	if got.TotalHoursUsed != 2.5 {
		t.Errorf("total_hours_used = %v, want 2.5", got.TotalHoursUsed)
	}
	if got.RemainingHours() != 12.5 {
		t.Errorf("remaining = %v, want 12.5", got.RemainingHours())
	}
}

func TestGrantHoursValidation(t *testing.T) {
	ms := setupMemberTestDB(t)

	if err := ms.GrantHours(9999, 5); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("grant to missing member err = %v, want ErrMemberNotFound", err)
	}

	m, err := ms.Create("dan@example.com", "hash", "Dan", "IJ333333", 0, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if err := ms.GrantHours(m.ID, 0); !errors.Is(err, ErrNonPositiveHours) {
		t.Errorf("grant zero err = %v, want ErrNonPositiveHours", err)
	}
	if err := ms.ConsumeHours(m.ID, -1); !errors.Is(err, ErrNonPositiveHours) {
		t.Errorf("consume negative err = %v, want ErrNonPositiveHours", err)
	}
}
