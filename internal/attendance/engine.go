package attendance

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
)

// Business-rule violations reported to the caller. None of these are
// transient; retrying without changing state will fail the same way.
var (
	ErrMemberNotFound   = errors.New("no member found with this RFID")
	ErrMemberInactive   = errors.New("member account is inactive")
	ErrAlreadyCheckedIn = errors.New("member already checked in")
	ErrNoActiveSession  = errors.New("no active session found for this member")
)

// Engine owns the check-in/check-out state machine and the duration
// billing applied at checkout.
type Engine struct {
	members *store.MemberStore
	records *store.AttendanceStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewEngine(members *store.MemberStore, records *store.AttendanceStore, logger *slog.Logger) *Engine {
	return &Engine{
		members: members,
		records: records,
		logger:  logger,
		now:     time.Now,
	}
}

// CheckInResult is the new session plus a snapshot of the member's hour
// totals at check-in time.
type CheckInResult struct {
	Record  *model.AttendanceRecord `json:"record"`
	Balance model.BalanceSnapshot   `json:"balance"`
}

// CheckOutResult is the closed session plus the member's updated
// balance. RemainingHours may be negative: checkout never blocks on an
// exhausted balance.
type CheckOutResult struct {
	Record  *model.AttendanceRecord `json:"record"`
	Balance model.BalanceSnapshot   `json:"balance"`
}

// CheckIn opens a session for the member holding the given card. The
// member must exist, be active, and have no open session. The balance
// is not touched at check-in.
func (e *Engine) CheckIn(rfidNumber string) (*CheckInResult, error) {
	member, err := e.members.GetByRFID(rfidNumber)
	if err != nil {
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	if !member.IsActive {
		return nil, ErrMemberInactive
	}

	active, err := e.records.Active(member.ID)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	if active != nil {
		return nil, ErrAlreadyCheckedIn
	}

	record, err := e.records.Open(member.ID, member.Name, member.RFIDNumber, e.now())
	if errors.Is(err, store.ErrOpenSessionExists) {
		// A concurrent check-in won the race; same outcome as the
		// read above.
		return nil, ErrAlreadyCheckedIn
	}
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	e.logger.Info("member checked in",
		"member_id", member.ID, "rfid", member.RFIDNumber, "record_id", record.ID)

	return &CheckInResult{Record: record, Balance: member.Balance()}, nil
}

// CheckOut closes the member's open session, bills the elapsed time
// (floored at the minimum billable unit), and adds it to the member's
// consumed hours. Record close and ledger increment commit together.
func (e *Engine) CheckOut(rfidNumber string) (*CheckOutResult, error) {
	member, err := e.members.GetByRFID(rfidNumber)
	if err != nil {
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	active, err := e.records.Active(member.ID)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	if active == nil {
		return nil, ErrNoActiveSession
	}

	now := e.now()
	hoursSpent := BillableHours(active.CheckInTime, now)

	err = e.records.Close(active.ID, member.ID, now, hoursSpent)
	if errors.Is(err, store.ErrSessionClosed) {
		// A concurrent checkout closed it first.
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}

	record, err := e.records.GetByID(active.ID)
	if err != nil {
		return nil, fmt.Errorf("reload session: %w", err)
	}
	member, err = e.members.GetByID(member.ID)
	if err != nil || member == nil {
		return nil, fmt.Errorf("reload member: %w", err)
	}

	e.logger.Info("member checked out",
		"member_id", member.ID, "record_id", record.ID,
		"hours_spent", hoursSpent, "remaining_hours", member.RemainingHours())

	return &CheckOutResult{Record: record, Balance: member.Balance()}, nil
}

// CurrentCheckIns returns all open sessions, most recent first.
func (e *Engine) CurrentCheckIns() ([]model.AttendanceRecord, error) {
	return e.records.ListActive()
}

// Stats summarizes attendance for the admin dashboard. "Today" covers
// records checked in between local midnight boundaries, unioned with
// every open session regardless of its check-in day, so a visit
// spanning midnight still counts. Open sessions contribute their live
// elapsed hours, unfloored.
func (e *Engine) Stats() (*model.AttendanceStats, error) {
	now := e.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24*time.Hour - time.Nanosecond)

	active, err := e.records.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	today, err := e.records.ListCheckedInBetween(startOfDay, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("list today's sessions: %w", err)
	}

	var total float64
	seen := make(map[int64]bool, len(active)+len(today))
	for _, r := range active {
		seen[r.ID] = true
		total += ElapsedHours(r.CheckInTime, now)
	}
	for _, r := range today {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		if r.HoursSpent != nil {
			total += *r.HoursSpent
		} else {
			total += ElapsedHours(r.CheckInTime, now)
		}
	}

	last, err := e.records.LastCheckIn()
	if err != nil {
		return nil, fmt.Errorf("get last check-in: %w", err)
	}

	return &model.AttendanceStats{
		PresentCount:    len(active),
		TotalHoursToday: round2(total),
		LastCheckIn:     last,
	}, nil
}
