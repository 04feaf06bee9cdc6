package model

import "time"

// Payment request statuses. Pending is the only non-terminal state;
// approved and rejected are terminal.
const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentRejected = "rejected"
)

// PaymentRequest is a member's request to convert a payment into
// membership hours. ProofRef points at the uploaded payment proof in
// artifact storage.
type PaymentRequest struct {
	ID             int64      `json:"id"`
	MemberID       int64      `json:"member_id"`
	MemberName     string     `json:"member_name"`
	Amount         float64    `json:"amount"`
	HoursRequested float64    `json:"hours_requested"`
	RequestDate    time.Time  `json:"request_date"`
	ProofRef       *string    `json:"proof_ref,omitempty"`
	Status         string     `json:"status"`
	ApprovedBy     *int64     `json:"approved_by,omitempty"`
	ApprovalDate   *time.Time `json:"approval_date,omitempty"`
}

// Resolved reports whether the request has reached a terminal status.
func (p *PaymentRequest) Resolved() bool {
	return p.Status != PaymentPending
}
