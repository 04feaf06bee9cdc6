package store

import (
	"errors"
	"testing"
	"time"

	"github.com/mohitgulati1999/rfid-joinery/internal/database"
	"github.com/mohitgulati1999/rfid-joinery/internal/model"
)

func setupPaymentTestDB(t *testing.T) (*PaymentStore, *MemberStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPaymentStore(db), NewMemberStore(db), NewUserStore(db)
}

func TestPaymentCreateAndGet(t *testing.T) {
	ps, ms, _ := setupPaymentTestDB(t)

	m, err := ms.Create("alice@example.com", "hash", "Alice", "AB123456", 0, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	req, err := ps.Create(m.ID, m.Name, 500, 10, "payments/abc.jpg", now)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if req.Status != model.PaymentPending {
		t.Errorf("status = %q, want pending", req.Status)
	}
	if req.ProofRef == nil || *req.ProofRef != "payments/abc.jpg" {
		t.Errorf("proof_ref = %v, want payments/abc.jpg", req.ProofRef)
	}
	if req.ApprovedBy != nil || req.ApprovalDate != nil {
		t.Error("expected no approval fields on a pending request")
	}
	if req.Resolved() {
		t.Error("pending request must not be resolved")
	}
}

func TestPaymentApproveGrantsHours(t *testing.T) {
	ps, ms, us := setupPaymentTestDB(t)

	m, err := ms.Create("bob@example.com", "hash", "Bob", "CD654321", 5, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	admin, err := us.CreateAdmin("admin@example.com", "hash", "Admin", "Manager")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	now := time.Now()
	req, err := ps.Create(m.ID, m.Name, 250, 5, "payments/x.pdf", now)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	approved, err := ps.Approve(req.ID, admin.ID, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("approve request: %v", err)
	}
	if approved.Status != model.PaymentApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != admin.ID {
		t.Errorf("approved_by = %v, want %d", approved.ApprovedBy, admin.ID)
	}
	if approved.ApprovalDate == nil {
		t.Error("expected approval_date to be set")
	}

	got, err := ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if got.MembershipHours != 10 {
		t.Errorf("membership_hours = %v, want 10", got.MembershipHours)
	}
}

func TestPaymentResolveOnlyOnce(t *testing.T) {
	ps, ms, us := setupPaymentTestDB(t)

	m, err := ms.Create("carol@example.com", "hash", "Carol", "EF111111", 0, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	admin, err := us.CreateAdmin("admin@example.com", "hash", "Admin", "Manager")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	now := time.Now()
	req, err := ps.Create(m.ID, m.Name, 100, 2, "payments/y.png", now)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	if _, err := ps.Approve(req.ID, admin.ID, now); err != nil {
		t.Fatalf("approve request: %v", err)
	}
	if _, err := ps.Approve(req.ID, admin.ID, now); !errors.Is(err, ErrPaymentResolved) {
		t.Errorf("second approve err = %v, want ErrPaymentResolved", err)
	}
	if _, err := ps.Reject(req.ID, admin.ID, now); !errors.Is(err, ErrPaymentResolved) {
		t.Errorf("reject after approve err = %v, want ErrPaymentResolved", err)
	}

	// Only the first approval may grant hours
	got, err := ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if got.MembershipHours != 2 {
		t.Errorf("membership_hours = %v, want 2", got.MembershipHours)
	}
}

func TestPaymentRejectLeavesLedgerUntouched(t *testing.T) {
	ps, ms, us := setupPaymentTestDB(t)

	m, err := ms.Create("dan@example.com", "hash", "Dan", "GH222222", 3, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	admin, err := us.CreateAdmin("admin@example.com", "hash", "Admin", "Manager")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	now := time.Now()
	req, err := ps.Create(m.ID, m.Name, 100, 2, "payments/z.jpg", now)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	rejected, err := ps.Reject(req.ID, admin.ID, now)
	if err != nil {
		t.Fatalf("reject request: %v", err)
	}
	if rejected.Status != model.PaymentRejected {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}

	got, err := ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if got.MembershipHours != 3 {
		t.Errorf("membership_hours = %v, want 3", got.MembershipHours)
	}

	if _, err := ps.Approve(req.ID, admin.ID, now); !errors.Is(err, ErrPaymentResolved) {
		t.Errorf("approve after reject err = %v, want ErrPaymentResolved", err)
	}
}

func TestPaymentApproveNotFound(t *testing.T) {
	ps, _, us := setupPaymentTestDB(t)

	admin, err := us.CreateAdmin("admin@example.com", "hash", "Admin", "Manager")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	if _, err := ps.Approve(9999, admin.ID, time.Now()); !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("approve missing request err = %v, want ErrPaymentNotFound", err)
	}
}

func TestPaymentListByMember(t *testing.T) {
	ps, ms, _ := setupPaymentTestDB(t)

	m1, err := ms.Create("a@example.com", "hash", "A", "AB111111", 0, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	m2, err := ms.Create("b@example.com", "hash", "B", "AB222222", 0, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if _, err := ps.Create(m1.ID, m1.Name, 100, 2, "payments/1.jpg", base); err != nil {
		t.Fatalf("create request: %v", err)
	}
	if _, err := ps.Create(m1.ID, m1.Name, 200, 4, "payments/2.jpg", base.Add(time.Hour)); err != nil {
		t.Fatalf("create request: %v", err)
	}
	if _, err := ps.Create(m2.ID, m2.Name, 300, 6, "payments/3.jpg", base.Add(2*time.Hour)); err != nil {
		t.Fatalf("create request: %v", err)
	}

	mine, err := ps.ListByMember(m1.ID)
	if err != nil {
		t.Fatalf("list by member: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("ListByMember len = %d, want 2", len(mine))
	}
	// Most recent first
	if mine[0].Amount != 200 {
		t.Errorf("first amount = %v, want 200", mine[0].Amount)
	}

	all, err := ps.List()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List len = %d, want 3", len(all))
	}
}
