package store

import (
	"testing"

	"github.com/mohitgulati1999/rfid-joinery/internal/database"
)

func setupPushTestDB(t *testing.T) (*PushStore, *UserStore, *MemberStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPushStore(db), NewUserStore(db), NewMemberStore(db)
}

func TestPushSubscriptionUpsert(t *testing.T) {
	ps, us, _ := setupPushTestDB(t)

	admin, err := us.CreateAdmin("admin@example.com", "hash", "Admin", "Manager")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	sub, err := ps.Create(admin.ID, "https://push.example/ep1", "p256dh-a", "auth-a", "Desk tablet")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.P256dhKey != "p256dh-a" {
		t.Errorf("p256dh = %q, want p256dh-a", sub.P256dhKey)
	}

	// Re-subscribing the same endpoint replaces keys instead of duplicating
	again, err := ps.Create(admin.ID, "https://push.example/ep1", "p256dh-b", "auth-b", "Desk tablet")
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if again.P256dhKey != "p256dh-b" {
		t.Errorf("p256dh after upsert = %q, want p256dh-b", again.P256dhKey)
	}

	subs, err := ps.ListByUser(admin.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("ListByUser len = %d, want 1", len(subs))
	}
}

func TestListAdminSubscriptions(t *testing.T) {
	ps, us, ms := setupPushTestDB(t)

	admin, err := us.CreateAdmin("admin@example.com", "hash", "Admin", "Manager")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	member, err := ms.Create("alice@example.com", "hash", "Alice", "AB123456", 0, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	if _, err := ps.Create(admin.ID, "https://push.example/admin", "k", "a", ""); err != nil {
		t.Fatalf("create admin subscription: %v", err)
	}
	if _, err := ps.Create(member.ID, "https://push.example/member", "k", "a", ""); err != nil {
		t.Fatalf("create member subscription: %v", err)
	}

	subs, err := ps.ListAdminSubscriptions()
	if err != nil {
		t.Fatalf("list admin subscriptions: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("ListAdminSubscriptions len = %d, want 1", len(subs))
	}
	if subs[0].UserID != admin.ID {
		t.Errorf("subscription user = %d, want %d", subs[0].UserID, admin.ID)
	}
}

func TestDeleteByEndpoint(t *testing.T) {
	ps, us, _ := setupPushTestDB(t)

	admin, err := us.CreateAdmin("admin@example.com", "hash", "Admin", "Manager")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	sub, err := ps.Create(admin.ID, "https://push.example/gone", "k", "a", "")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	if err := ps.DeleteByEndpoint("https://push.example/gone"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	got, err := ps.GetByID(sub.ID)
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted subscription")
	}
}
