package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
)

// AttendanceStore persists visit records. Open sessions are rows with a
// NULL check_out_time; a partial unique index on (member_id) over those
// rows guarantees at most one open session per member even when two
// check-ins race.
type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

const attendanceCols = `id, member_id, member_name, rfid_number, check_in_time, check_out_time, hours_spent`

func scanAttendance(scanner interface{ Scan(...any) error }) (*model.AttendanceRecord, error) {
	var r model.AttendanceRecord
	var out sql.NullTime
	var hours sql.NullFloat64

	err := scanner.Scan(&r.ID, &r.MemberID, &r.MemberName, &r.RFIDNumber, &r.CheckInTime, &out, &hours)
	if err != nil {
		return nil, err
	}

	if out.Valid {
		t := out.Time
		r.CheckOutTime = &t
	}
	if hours.Valid {
		h := hours.Float64
		r.HoursSpent = &h
	}
	return &r, nil
}

// Open creates a new active session. Returns ErrOpenSessionExists if
// the member already has one; the unique index makes this safe against
// concurrent check-ins, not just the caller's earlier read.
func (s *AttendanceStore) Open(memberID int64, memberName, rfidNumber string, at time.Time) (*model.AttendanceRecord, error) {
	result, err := s.db.Exec(
		`INSERT INTO attendance (member_id, member_name, rfid_number, check_in_time) VALUES (?, ?, ?, ?)`,
		memberID, memberName, rfidNumber, at.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, ErrOpenSessionExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// Close sets the checkout time and billed hours on an open session and
// increments the member's consumed-hours counter, all in one
// transaction so the record and the ledger cannot drift apart.
func (s *AttendanceStore) Close(sessionID, memberID int64, at time.Time, hoursSpent float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE attendance SET check_out_time = ?, hours_spent = ? WHERE id = ? AND check_out_time IS NULL`,
		at.UTC(), hoursSpent, sessionID,
	)
	if err != nil {
		return fmt.Errorf("close attendance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrSessionClosed
	}

	result, err = tx.Exec(
		`UPDATE members SET total_hours_used = total_hours_used + ? WHERE user_id = ?`,
		hoursSpent, memberID,
	)
	if err != nil {
		return fmt.Errorf("consume hours: %w", err)
	}
	n, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrMemberNotFound
	}

	return tx.Commit()
}

func (s *AttendanceStore) GetByID(id int64) (*model.AttendanceRecord, error) {
	row := s.db.QueryRow(`SELECT `+attendanceCols+` FROM attendance WHERE id = ?`, id)
	r, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return r, nil
}

// Active returns the member's open session, or nil if there is none.
func (s *AttendanceStore) Active(memberID int64) (*model.AttendanceRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+attendanceCols+` FROM attendance WHERE member_id = ? AND check_out_time IS NULL`,
		memberID,
	)
	r, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return r, nil
}

// List returns all records, most recent check-in first.
func (s *AttendanceStore) List() ([]model.AttendanceRecord, error) {
	return s.queryRecords(`SELECT ` + attendanceCols + ` FROM attendance ORDER BY check_in_time DESC`)
}

// ListByMember returns one member's records, most recent check-in first.
func (s *AttendanceStore) ListByMember(memberID int64) ([]model.AttendanceRecord, error) {
	return s.queryRecords(
		`SELECT `+attendanceCols+` FROM attendance WHERE member_id = ? ORDER BY check_in_time DESC`,
		memberID,
	)
}

// ListActive returns all open sessions, most recent check-in first.
func (s *AttendanceStore) ListActive() ([]model.AttendanceRecord, error) {
	return s.queryRecords(
		`SELECT ` + attendanceCols + ` FROM attendance WHERE check_out_time IS NULL ORDER BY check_in_time DESC`,
	)
}

// ListCheckedInBetween returns records whose check-in falls in [from, to].
func (s *AttendanceStore) ListCheckedInBetween(from, to time.Time) ([]model.AttendanceRecord, error) {
	return s.queryRecords(
		`SELECT `+attendanceCols+` FROM attendance WHERE check_in_time >= ? AND check_in_time <= ? ORDER BY check_in_time DESC`,
		from.UTC(), to.UTC(),
	)
}

// LastCheckIn returns the most recent record by check-in time, or nil
// when there are no records at all.
func (s *AttendanceStore) LastCheckIn() (*model.AttendanceRecord, error) {
	row := s.db.QueryRow(`SELECT ` + attendanceCols + ` FROM attendance ORDER BY check_in_time DESC LIMIT 1`)
	r, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last check-in: %w", err)
	}
	return r, nil
}

func (s *AttendanceStore) queryRecords(query string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}
