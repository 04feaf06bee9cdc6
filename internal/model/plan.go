package model

import "time"

// MembershipPlan describes a purchasable block of hours.
type MembershipPlan struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	HoursIncluded float64   `json:"hours_included"`
	PricePerHour  float64   `json:"price_per_hour"`
	TotalPrice    float64   `json:"total_price"`
	Features      []string  `json:"features"`
	IsPopular     bool      `json:"is_popular"`
	CreatedAt     time.Time `json:"created_at"`
}
