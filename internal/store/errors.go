package store

import (
	"errors"
	"strings"
)

var (
	// ErrMemberNotFound is returned by ledger mutations targeting a
	// member row that does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrInvalidRFID is returned when a card identifier does not match
	// the XX###### format.
	ErrInvalidRFID = errors.New("rfid number must be two uppercase letters followed by six digits")

	// ErrNonPositiveHours guards the ledger counters: grants and
	// consumption must both be positive amounts.
	ErrNonPositiveHours = errors.New("hours must be a positive amount")

	// ErrOpenSessionExists is returned when an insert hits the partial
	// unique index on open attendance sessions.
	ErrOpenSessionExists = errors.New("member already has an open session")

	// ErrSessionClosed is returned when closing a session that was
	// already checked out.
	ErrSessionClosed = errors.New("attendance record already closed")

	// ErrPaymentNotFound is returned for operations on an absent
	// payment request.
	ErrPaymentNotFound = errors.New("payment request not found")

	// ErrPaymentResolved is returned when approving or rejecting a
	// request that already left the pending state.
	ErrPaymentResolved = errors.New("payment request already resolved")
)

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure. The driver exposes no typed error for this, so match on the
// constraint message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
