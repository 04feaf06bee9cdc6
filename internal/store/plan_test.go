package store

import (
	"reflect"
	"testing"

	"github.com/mohitgulati1999/rfid-joinery/internal/database"
)

func setupPlanTestDB(t *testing.T) *PlanStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPlanStore(db)
}

func TestPlanCRUD(t *testing.T) {
	ps := setupPlanTestDB(t)

	features := []string{"Priority booking", "Weekend access"}
	plan, err := ps.Create("Standard", "20 hours per month", 20, 25, 450, features, true)
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if plan.Name != "Standard" {
		t.Errorf("name = %q, want Standard", plan.Name)
	}
	if !reflect.DeepEqual(plan.Features, features) {
		t.Errorf("features = %v, want %v", plan.Features, features)
	}
	if !plan.IsPopular {
		t.Error("expected plan to be popular")
	}

	updated, err := ps.Update(plan.ID, "Standard Plus", "30 hours per month", 30, 22, 600, nil, false)
	if err != nil {
		t.Fatalf("update plan: %v", err)
	}
	if updated.Name != "Standard Plus" {
		t.Errorf("updated name = %q, want Standard Plus", updated.Name)
	}
	if len(updated.Features) != 0 {
		t.Errorf("updated features = %v, want empty", updated.Features)
	}

	if err := ps.Delete(plan.ID); err != nil {
		t.Fatalf("delete plan: %v", err)
	}
	got, err := ps.GetByID(plan.ID)
	if err != nil {
		t.Fatalf("get deleted plan: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted plan")
	}
}

func TestPlanListOrderedByHours(t *testing.T) {
	ps := setupPlanTestDB(t)

	if _, err := ps.Create("Large", "", 40, 20, 800, nil, false); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if _, err := ps.Create("Small", "", 10, 30, 300, nil, false); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	plans, err := ps.List()
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("List len = %d, want 2", len(plans))
	}
	if plans[0].Name != "Small" || plans[1].Name != "Large" {
		t.Errorf("order = [%s, %s], want [Small, Large]", plans[0].Name, plans[1].Name)
	}
}
