package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mohitgulati1999/rfid-joinery/internal/attendance"
	"github.com/mohitgulati1999/rfid-joinery/internal/auth"
	"github.com/mohitgulati1999/rfid-joinery/internal/model"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
	"github.com/mohitgulati1999/rfid-joinery/internal/websocket"
)

type AttendanceHandler struct {
	engine  *attendance.Engine
	records *store.AttendanceStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewAttendanceHandler(engine *attendance.Engine, records *store.AttendanceStore, hub *websocket.Hub, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{engine: engine, records: records, hub: hub, logger: logger}
}

func (h *AttendanceHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type rfidRequest struct {
	RFIDNumber string `json:"rfid_number"`
}

func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req rfidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.RFIDNumber = strings.TrimSpace(req.RFIDNumber)
	if req.RFIDNumber == "" {
		writeError(w, http.StatusBadRequest, "rfid_number is required")
		return
	}

	result, err := h.engine.CheckIn(req.RFIDNumber)
	switch {
	case errors.Is(err, attendance.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, attendance.ErrMemberInactive),
		errors.Is(err, attendance.ErrAlreadyCheckedIn):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("check in", "rfid", req.RFIDNumber, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check in member")
		return
	}

	h.broadcast(websocket.NewMessage("attendance", "checked_in", result.Record.ID, map[string]any{
		"member_id":   result.Record.MemberID,
		"member_name": result.Record.MemberName,
	}))

	writeJSON(w, http.StatusCreated, result)
}

func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req rfidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.RFIDNumber = strings.TrimSpace(req.RFIDNumber)
	if req.RFIDNumber == "" {
		writeError(w, http.StatusBadRequest, "rfid_number is required")
		return
	}

	result, err := h.engine.CheckOut(req.RFIDNumber)
	switch {
	case errors.Is(err, attendance.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, attendance.ErrNoActiveSession):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("check out", "rfid", req.RFIDNumber, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check out member")
		return
	}

	h.broadcast(websocket.NewMessage("attendance", "checked_out", result.Record.ID, map[string]any{
		"member_id":   result.Record.MemberID,
		"hours_spent": result.Record.HoursSpent,
	}))

	writeJSON(w, http.StatusOK, result)
}

// Current lists all members presently checked in.
func (h *AttendanceHandler) Current(w http.ResponseWriter, r *http.Request) {
	records, err := h.engine.CurrentCheckIns()
	if err != nil {
		h.logger.Error("list current check-ins", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list current check-ins")
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *AttendanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats()
	if err != nil {
		h.logger.Error("attendance stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute attendance stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// List returns every attendance record, most recent first.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.List()
	if err != nil {
		h.logger.Error("list attendance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list attendance records")
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// ListByMember returns one member's history. Members may only read
// their own.
func (h *AttendanceHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !auth.CanAccessUser(r.Context(), id) {
		writeError(w, http.StatusForbidden, "not authorized")
		return
	}

	records, err := h.records.ListByMember(id)
	if err != nil {
		h.logger.Error("list member attendance", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list attendance records")
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
