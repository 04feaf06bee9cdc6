package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
)

// PaymentStore persists payment requests. Status transitions are guarded
// in SQL (`WHERE status = 'pending'`) so a request can only be resolved
// once, even under concurrent approvals.
type PaymentStore struct {
	db *sql.DB
}

func NewPaymentStore(db *sql.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

const paymentCols = `id, member_id, member_name, amount, hours_requested, request_date, proof_ref, status, approved_by, approval_date`

func scanPayment(scanner interface{ Scan(...any) error }) (*model.PaymentRequest, error) {
	var p model.PaymentRequest
	var proofRef sql.NullString
	var approvedBy sql.NullInt64
	var approvalDate sql.NullTime

	err := scanner.Scan(&p.ID, &p.MemberID, &p.MemberName, &p.Amount, &p.HoursRequested,
		&p.RequestDate, &proofRef, &p.Status, &approvedBy, &approvalDate)
	if err != nil {
		return nil, err
	}

	if proofRef.Valid {
		p.ProofRef = &proofRef.String
	}
	if approvedBy.Valid {
		p.ApprovedBy = &approvedBy.Int64
	}
	if approvalDate.Valid {
		t := approvalDate.Time
		p.ApprovalDate = &t
	}
	return &p, nil
}

func (s *PaymentStore) Create(memberID int64, memberName string, amount, hoursRequested float64, proofRef string, at time.Time) (*model.PaymentRequest, error) {
	result, err := s.db.Exec(
		`INSERT INTO payment_requests (member_id, member_name, amount, hours_requested, request_date, proof_ref, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		memberID, memberName, amount, hoursRequested, at.UTC(), proofRef, model.PaymentPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PaymentStore) GetByID(id int64) (*model.PaymentRequest, error) {
	row := s.db.QueryRow(`SELECT `+paymentCols+` FROM payment_requests WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment request: %w", err)
	}
	return p, nil
}

// List returns all requests, most recent first.
func (s *PaymentStore) List() ([]model.PaymentRequest, error) {
	return s.queryRequests(`SELECT ` + paymentCols + ` FROM payment_requests ORDER BY request_date DESC`)
}

// ListByMember returns one member's requests, most recent first.
func (s *PaymentStore) ListByMember(memberID int64) ([]model.PaymentRequest, error) {
	return s.queryRequests(
		`SELECT `+paymentCols+` FROM payment_requests WHERE member_id = ? ORDER BY request_date DESC`,
		memberID,
	)
}

// Approve flips a pending request to approved and grants the requested
// hours to the member, both inside one transaction. A request that is
// missing maps to ErrPaymentNotFound, one already resolved to
// ErrPaymentResolved, and a vanished member to ErrMemberNotFound (the
// whole transaction rolls back in that case).
func (s *PaymentStore) Approve(id, approverID int64, at time.Time) (*model.PaymentRequest, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	req, err := s.resolveTx(tx, id, model.PaymentApproved, approverID, at)
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(
		`UPDATE members SET membership_hours = membership_hours + ? WHERE user_id = ?`,
		req.HoursRequested, req.MemberID,
	)
	if err != nil {
		return nil, fmt.Errorf("grant hours: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrMemberNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// Reject flips a pending request to rejected. No ledger mutation.
func (s *PaymentStore) Reject(id, approverID int64, at time.Time) (*model.PaymentRequest, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.resolveTx(tx, id, model.PaymentRejected, approverID, at); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// resolveTx performs the guarded pending -> terminal transition and
// returns the request as it was before the update.
func (s *PaymentStore) resolveTx(tx *sql.Tx, id int64, status string, approverID int64, at time.Time) (*model.PaymentRequest, error) {
	row := tx.QueryRow(`SELECT `+paymentCols+` FROM payment_requests WHERE id = ?`, id)
	req, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment request: %w", err)
	}

	result, err := tx.Exec(
		`UPDATE payment_requests SET status = ?, approved_by = ?, approval_date = ? WHERE id = ? AND status = ?`,
		status, approverID, at.UTC(), id, model.PaymentPending,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve payment request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrPaymentResolved
	}
	return req, nil
}

func (s *PaymentStore) queryRequests(query string, args ...any) ([]model.PaymentRequest, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payment requests: %w", err)
	}
	defer rows.Close()

	var requests []model.PaymentRequest
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment request: %w", err)
		}
		requests = append(requests, *p)
	}
	return requests, rows.Err()
}
