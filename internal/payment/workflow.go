package payment

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
)

// Caller-facing failures. A resolved request stays resolved: approving
// or rejecting it again is an error, never a silent no-op.
var (
	ErrRequestNotFound  = errors.New("payment request not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrAlreadyProcessed = errors.New("payment request already processed")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidHours     = errors.New("hours requested must be greater than zero")
	ErrMissingProof     = errors.New("payment proof is required")
)

// Workflow converts approved payment requests into ledger grants. The
// terminal status flip and the hours grant commit together or not at
// all.
type Workflow struct {
	requests *store.PaymentStore
	members  *store.MemberStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewWorkflow(requests *store.PaymentStore, members *store.MemberStore, logger *slog.Logger) *Workflow {
	return &Workflow{
		requests: requests,
		members:  members,
		logger:   logger,
		now:      time.Now,
	}
}

// ApprovalResult is the resolved request plus the member's updated
// balance.
type ApprovalResult struct {
	Request *model.PaymentRequest `json:"request"`
	Balance model.BalanceSnapshot `json:"balance"`
}

// Submit creates a pending request. The proof artifact itself is
// validated and stored by the upload layer; the workflow only insists a
// reference is present.
func (w *Workflow) Submit(memberID int64, amount, hoursRequested float64, proofRef string) (*model.PaymentRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if hoursRequested <= 0 {
		return nil, ErrInvalidHours
	}
	if proofRef == "" {
		return nil, ErrMissingProof
	}

	member, err := w.members.GetByID(memberID)
	if err != nil {
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	req, err := w.requests.Create(member.ID, member.Name, amount, hoursRequested, proofRef, w.now())
	if err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}

	w.logger.Info("payment request submitted",
		"request_id", req.ID, "member_id", member.ID,
		"amount", amount, "hours_requested", hoursRequested)

	return req, nil
}

// Approve resolves a pending request and grants the requested hours to
// the member.
func (w *Workflow) Approve(requestID, approverID int64) (*ApprovalResult, error) {
	req, err := w.requests.Approve(requestID, approverID, w.now())
	if err != nil {
		return nil, w.mapStoreError(err)
	}

	member, err := w.members.GetByID(req.MemberID)
	if err != nil {
		return nil, fmt.Errorf("reload member: %w", err)
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	w.logger.Info("payment request approved",
		"request_id", req.ID, "member_id", req.MemberID,
		"approver_id", approverID, "hours_granted", req.HoursRequested)

	return &ApprovalResult{Request: req, Balance: member.Balance()}, nil
}

// Reject resolves a pending request without touching the ledger.
func (w *Workflow) Reject(requestID, approverID int64) (*model.PaymentRequest, error) {
	req, err := w.requests.Reject(requestID, approverID, w.now())
	if err != nil {
		return nil, w.mapStoreError(err)
	}

	w.logger.Info("payment request rejected",
		"request_id", req.ID, "member_id", req.MemberID, "approver_id", approverID)

	return req, nil
}

func (w *Workflow) mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrPaymentNotFound):
		return ErrRequestNotFound
	case errors.Is(err, store.ErrPaymentResolved):
		return ErrAlreadyProcessed
	case errors.Is(err, store.ErrMemberNotFound):
		return ErrMemberNotFound
	default:
		return err
	}
}
