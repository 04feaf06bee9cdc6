package store

import (
	"database/sql"
	"fmt"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
)

// MemberStore persists members and owns the two ledger counters. All
// balance mutations go through GrantHours and ConsumeHours, which apply
// atomic in-place increments so concurrent writers cannot lose updates.
type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

const memberCols = `u.id, u.email, u.name, u.phone, u.address, m.rfid_number,
	m.membership_hours, m.total_hours_used, m.plan_id, m.is_active, u.created_at`

const memberFrom = ` FROM users u JOIN members m ON m.user_id = u.id`

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var planID sql.NullInt64
	var active int

	err := scanner.Scan(&m.ID, &m.Email, &m.Name, &m.Phone, &m.Address, &m.RFIDNumber,
		&m.MembershipHours, &m.TotalHoursUsed, &planID, &active, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	if planID.Valid {
		m.PlanID = &planID.Int64
	}
	m.IsActive = active != 0
	return &m, nil
}

// Create inserts the user row and the member row in one transaction.
// The RFID format is validated here, at the entity boundary; scan paths
// do not re-validate it.
func (s *MemberStore) Create(email, passwordHash, name, rfidNumber string, membershipHours float64, isActive bool) (*model.Member, error) {
	if !model.RFIDPattern.MatchString(rfidNumber) {
		return nil, ErrInvalidRFID
	}
	if membershipHours < 0 {
		return nil, ErrNonPositiveHours
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO users (email, password_hash, name, role) VALUES (?, ?, ?, ?)`,
		email, passwordHash, name, model.RoleMember,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var active int
	if isActive {
		active = 1
	}
	_, err = tx.Exec(
		`INSERT INTO members (user_id, rfid_number, membership_hours, total_hours_used, is_active) VALUES (?, ?, ?, 0, ?)`,
		id, rfidNumber, membershipHours, active,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+memberFrom+` WHERE u.id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByRFID(rfidNumber string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+memberFrom+` WHERE m.rfid_number = ?`, rfidNumber)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by rfid: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByEmail(email string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+memberFrom+` WHERE u.email = ?`, email)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by email: %w", err)
	}
	return m, nil
}

// List returns all members ordered by name.
func (s *MemberStore) List() ([]model.Member, error) {
	rows, err := s.db.Query(`SELECT ` + memberCols + memberFrom + ` ORDER BY u.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// MemberUpdate carries optional field changes; nil fields are left as-is.
type MemberUpdate struct {
	Name            *string
	Email           *string
	Phone           *string
	Address         *string
	RFIDNumber      *string
	MembershipHours *float64
	IsActive        *bool
	PlanID          *int64
}

func (s *MemberStore) Update(id int64, upd MemberUpdate) (*model.Member, error) {
	if upd.RFIDNumber != nil && !model.RFIDPattern.MatchString(*upd.RFIDNumber) {
		return nil, ErrInvalidRFID
	}
	if upd.MembershipHours != nil && *upd.MembershipHours < 0 {
		return nil, ErrNonPositiveHours
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if upd.Name != nil {
		if _, err := tx.Exec(`UPDATE users SET name = ? WHERE id = ?`, *upd.Name, id); err != nil {
			return nil, fmt.Errorf("update name: %w", err)
		}
	}
	if upd.Email != nil {
		if _, err := tx.Exec(`UPDATE users SET email = ? WHERE id = ?`, *upd.Email, id); err != nil {
			return nil, fmt.Errorf("update email: %w", err)
		}
	}
	if upd.Phone != nil {
		if _, err := tx.Exec(`UPDATE users SET phone = ? WHERE id = ?`, *upd.Phone, id); err != nil {
			return nil, fmt.Errorf("update phone: %w", err)
		}
	}
	if upd.Address != nil {
		if _, err := tx.Exec(`UPDATE users SET address = ? WHERE id = ?`, *upd.Address, id); err != nil {
			return nil, fmt.Errorf("update address: %w", err)
		}
	}
	if upd.RFIDNumber != nil {
		if _, err := tx.Exec(`UPDATE members SET rfid_number = ? WHERE user_id = ?`, *upd.RFIDNumber, id); err != nil {
			return nil, fmt.Errorf("update rfid: %w", err)
		}
	}
	if upd.MembershipHours != nil {
		if _, err := tx.Exec(`UPDATE members SET membership_hours = ? WHERE user_id = ?`, *upd.MembershipHours, id); err != nil {
			return nil, fmt.Errorf("update membership hours: %w", err)
		}
	}
	if upd.IsActive != nil {
		var active int
		if *upd.IsActive {
			active = 1
		}
		if _, err := tx.Exec(`UPDATE members SET is_active = ? WHERE user_id = ?`, active, id); err != nil {
			return nil, fmt.Errorf("update is_active: %w", err)
		}
	}
	if upd.PlanID != nil {
		if _, err := tx.Exec(`UPDATE members SET plan_id = ? WHERE user_id = ?`, *upd.PlanID, id); err != nil {
			return nil, fmt.Errorf("update plan: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// GrantHours adds to the member's granted total. Applied as a single
// atomic increment; there is no upper cap.
func (s *MemberStore) GrantHours(id int64, hours float64) error {
	if hours <= 0 {
		return ErrNonPositiveHours
	}
	result, err := s.db.Exec(
		`UPDATE members SET membership_hours = membership_hours + ? WHERE user_id = ?`,
		hours, id,
	)
	if err != nil {
		return fmt.Errorf("grant hours: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// ConsumeHours adds to the member's consumed total. Consumption may
// push the derived remaining balance negative; overdraw is allowed and
// surfaces as a signal for admin follow-up rather than a blocked visit.
func (s *MemberStore) ConsumeHours(id int64, hours float64) error {
	if hours <= 0 {
		return ErrNonPositiveHours
	}
	result, err := s.db.Exec(
		`UPDATE members SET total_hours_used = total_hours_used + ? WHERE user_id = ?`,
		hours, id,
	)
	if err != nil {
		return fmt.Errorf("consume hours: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}
