package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mohitgulati1999/rfid-joinery/internal/auth"
	"github.com/mohitgulati1999/rfid-joinery/internal/model"
	"github.com/mohitgulati1999/rfid-joinery/internal/push"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
)

type PushHandler struct {
	subs   *store.PushStore
	svc    *push.Service
	logger *slog.Logger
}

func NewPushHandler(subs *store.PushStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{subs: subs, svc: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	DeviceName string `json:"device_name"`
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	sub, err := h.subs.Create(auth.UserID(r.Context()), req.Endpoint, req.Keys.P256dh, req.Keys.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("create subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register subscription")
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subs.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	sub, err := h.subs.GetByID(id)
	if err != nil {
		h.logger.Error("get subscription", "subscription_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove subscription")
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	if !auth.CanAccessUser(r.Context(), sub.UserID) {
		writeError(w, http.StatusForbidden, "not authorized")
		return
	}

	if err := h.subs.Delete(id); err != nil {
		h.logger.Error("delete subscription", "subscription_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove subscription")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// VAPIDKey exposes the server's public key for browser subscription.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"key": h.svc.VAPIDPublicKey()})
}
