package store

import (
	"database/sql"
	"fmt"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
)

// PushStore persists web-push subscriptions.
type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const pushCols = `id, user_id, endpoint, p256dh_key, auth_key, device_name, created_at`

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := scanner.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create registers a subscription. Re-subscribing the same endpoint
// replaces the stored keys.
func (s *PushStore) Create(userID int64, endpoint, p256dhKey, authKey, deviceName string) (*model.PushSubscription, error) {
	result, err := s.db.Exec(
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key, device_name) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET user_id = excluded.user_id, p256dh_key = excluded.p256dh_key,
		 auth_key = excluded.auth_key, device_name = excluded.device_name`,
		userID, endpoint, p256dhKey, authKey, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil && id != 0 {
		if sub, err := s.GetByID(id); err == nil && sub != nil {
			return sub, nil
		}
	}
	return s.getByEndpoint(endpoint)
}

func (s *PushStore) GetByID(id int64) (*model.PushSubscription, error) {
	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE id = ?`, id)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (s *PushStore) getByEndpoint(endpoint string) (*model.PushSubscription, error) {
	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription by endpoint: %w", err)
	}
	return sub, nil
}

// ListByUser returns one user's subscriptions.
func (s *PushStore) ListByUser(userID int64) ([]model.PushSubscription, error) {
	return s.querySubscriptions(
		`SELECT `+pushCols+` FROM push_subscriptions WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	)
}

// ListAdminSubscriptions returns the subscriptions of all admin users,
// the audience for payment-request notifications.
func (s *PushStore) ListAdminSubscriptions() ([]model.PushSubscription, error) {
	return s.querySubscriptions(
		`SELECT p.id, p.user_id, p.endpoint, p.p256dh_key, p.auth_key, p.device_name, p.created_at
		 FROM push_subscriptions p JOIN users u ON u.id = p.user_id
		 WHERE u.role = ? ORDER BY p.created_at ASC`,
		model.RoleAdmin,
	)
}

func (s *PushStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// DeleteByEndpoint removes a subscription the push service reported as
// gone.
func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete subscription by endpoint: %w", err)
	}
	return nil
}

func (s *PushStore) querySubscriptions(query string, args ...any) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}
