package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
)

// PlanStore persists membership plans. Features are stored as a JSON
// array in a TEXT column.
type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

const planCols = `id, name, description, hours_included, price_per_hour, total_price, features, is_popular, created_at`

func scanPlan(scanner interface{ Scan(...any) error }) (*model.MembershipPlan, error) {
	var p model.MembershipPlan
	var features string
	var popular int

	err := scanner.Scan(&p.ID, &p.Name, &p.Description, &p.HoursIncluded, &p.PricePerHour,
		&p.TotalPrice, &features, &popular, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	p.IsPopular = popular != 0
	return &p, nil
}

func (s *PlanStore) Create(name, description string, hoursIncluded, pricePerHour, totalPrice float64, features []string, isPopular bool) (*model.MembershipPlan, error) {
	if features == nil {
		features = []string{}
	}
	data, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}

	var popular int
	if isPopular {
		popular = 1
	}
	result, err := s.db.Exec(
		`INSERT INTO membership_plans (name, description, hours_included, price_per_hour, total_price, features, is_popular)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, description, hoursIncluded, pricePerHour, totalPrice, string(data), popular,
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PlanStore) GetByID(id int64) (*model.MembershipPlan, error) {
	row := s.db.QueryRow(`SELECT `+planCols+` FROM membership_plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// List returns plans ordered by included hours, smallest first.
func (s *PlanStore) List() ([]model.MembershipPlan, error) {
	rows, err := s.db.Query(`SELECT ` + planCols + ` FROM membership_plans ORDER BY hours_included ASC`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []model.MembershipPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (s *PlanStore) Update(id int64, name, description string, hoursIncluded, pricePerHour, totalPrice float64, features []string, isPopular bool) (*model.MembershipPlan, error) {
	if features == nil {
		features = []string{}
	}
	data, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}

	var popular int
	if isPopular {
		popular = 1
	}
	_, err = s.db.Exec(
		`UPDATE membership_plans SET name = ?, description = ?, hours_included = ?, price_per_hour = ?, total_price = ?, features = ?, is_popular = ? WHERE id = ?`,
		name, description, hoursIncluded, pricePerHour, totalPrice, string(data), popular, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return s.GetByID(id)
}

func (s *PlanStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM membership_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}
