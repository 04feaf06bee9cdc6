package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mohitgulati1999/rfid-joinery/internal/auth"
	"github.com/mohitgulati1999/rfid-joinery/internal/model"
	"github.com/mohitgulati1999/rfid-joinery/internal/payment"
	"github.com/mohitgulati1999/rfid-joinery/internal/proof"
	"github.com/mohitgulati1999/rfid-joinery/internal/push"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
	"github.com/mohitgulati1999/rfid-joinery/internal/websocket"
)

type PaymentHandler struct {
	workflow *payment.Workflow
	payments *store.PaymentStore
	proofs   proof.Store
	notifier *push.Notifier
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewPaymentHandler(workflow *payment.Workflow, payments *store.PaymentStore, proofs proof.Store, notifier *push.Notifier, hub *websocket.Hub, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		workflow: workflow,
		payments: payments,
		proofs:   proofs,
		notifier: notifier,
		hub:      hub,
		logger:   logger,
	}
}

func (h *PaymentHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// Submit accepts a multipart form with amount, hours_requested and a
// payment_proof file, stores the proof and creates a pending request
// for the authenticated member.
func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok || ac.Role != model.RoleMember {
		writeError(w, http.StatusForbidden, "only members can submit payment requests")
		return
	}

	// Proof cap plus headroom for the other form fields.
	r.Body = http.MaxBytesReader(w, r.Body, proof.MaxSize+64<<10)
	if err := r.ParseMultipartForm(proof.MaxSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("amount")), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a number")
		return
	}
	hours, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("hours_requested")), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "hours_requested must be a number")
		return
	}

	file, header, err := r.FormFile("payment_proof")
	if err != nil {
		writeError(w, http.StatusBadRequest, payment.ErrMissingProof.Error())
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := proof.Validate(contentType, header.Size); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref, err := h.proofs.Put(r.Context(), contentType, file)
	if err != nil {
		if errors.Is(err, proof.ErrEmpty) || errors.Is(err, proof.ErrTooLarge) || errors.Is(err, proof.ErrUnsupportedType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("store payment proof", "member_id", ac.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store payment proof")
		return
	}

	req, err := h.workflow.Submit(ac.UserID, amount, hours, ref)
	switch {
	case errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrInvalidHours),
		errors.Is(err, payment.ErrMissingProof):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, payment.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		h.logger.Error("submit payment request", "member_id", ac.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to submit payment request")
		return
	}

	h.broadcast(websocket.NewMessage("payment", "submitted", req.ID, map[string]any{
		"member_id": req.MemberID,
	}))
	if h.notifier != nil {
		go h.notifier.PaymentSubmitted(req)
	}

	writeJSON(w, http.StatusCreated, req)
}

// List returns every payment request, newest first.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.payments.List()
	if err != nil {
		h.logger.Error("list payment requests", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list payment requests")
		return
	}
	if requests == nil {
		requests = []model.PaymentRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

// ListByMember returns one member's requests. Members may only read
// their own.
func (h *PaymentHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !auth.CanAccessUser(r.Context(), id) {
		writeError(w, http.StatusForbidden, "not authorized")
		return
	}

	requests, err := h.payments.ListByMember(id)
	if err != nil {
		h.logger.Error("list member payment requests", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list payment requests")
		return
	}
	if requests == nil {
		requests = []model.PaymentRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *PaymentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	result, err := h.workflow.Approve(id, auth.UserID(r.Context()))
	switch {
	case errors.Is(err, payment.ErrRequestNotFound),
		errors.Is(err, payment.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, payment.ErrAlreadyProcessed):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("approve payment request", "request_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to approve payment request")
		return
	}

	h.broadcast(websocket.NewMessage("payment", "approved", result.Request.ID, map[string]any{
		"member_id":     result.Request.MemberID,
		"hours_granted": result.Request.HoursRequested,
	}))

	writeJSON(w, http.StatusOK, result)
}

func (h *PaymentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	req, err := h.workflow.Reject(id, auth.UserID(r.Context()))
	switch {
	case errors.Is(err, payment.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, payment.ErrAlreadyProcessed):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("reject payment request", "request_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reject payment request")
		return
	}

	h.broadcast(websocket.NewMessage("payment", "rejected", req.ID, map[string]any{
		"member_id": req.MemberID,
	}))

	writeJSON(w, http.StatusOK, req)
}

// Proof streams the stored proof artifact back for admin review.
func (h *PaymentHandler) Proof(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	req, err := h.payments.GetByID(id)
	if err != nil {
		h.logger.Error("get payment request", "request_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load payment request")
		return
	}
	if req == nil || req.ProofRef == nil || *req.ProofRef == "" {
		writeError(w, http.StatusNotFound, "payment proof not found")
		return
	}

	body, contentType, err := h.proofs.Get(r.Context(), *req.ProofRef)
	if err != nil {
		h.logger.Error("fetch payment proof", "request_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch payment proof")
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, body)
}
