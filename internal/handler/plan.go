package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
)

type PlanHandler struct {
	plans  *store.PlanStore
	logger *slog.Logger
}

func NewPlanHandler(plans *store.PlanStore, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{plans: plans, logger: logger}
}

type planRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	HoursIncluded float64  `json:"hours_included"`
	PricePerHour  float64  `json:"price_per_hour"`
	TotalPrice    float64  `json:"total_price"`
	Features      []string `json:"features"`
	IsPopular     bool     `json:"is_popular"`
}

func (p *planRequest) validate() string {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return "name is required"
	}
	if p.HoursIncluded < 0 || p.PricePerHour < 0 || p.TotalPrice < 0 {
		return "plan prices and hours must not be negative"
	}
	return ""
}

// List is public so prospective members can browse plans before signing
// up.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.List()
	if err != nil {
		h.logger.Error("list plans", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	if plans == nil {
		plans = []model.MembershipPlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	plan, err := h.plans.GetByID(id)
	if err != nil {
		h.logger.Error("get plan", "plan_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	plan, err := h.plans.Create(req.Name, req.Description, req.HoursIncluded, req.PricePerHour, req.TotalPrice, req.Features, req.IsPopular)
	if err != nil {
		h.logger.Error("create plan", "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create plan")
		return
	}

	writeJSON(w, http.StatusCreated, plan)
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.plans.GetByID(id)
	if err != nil {
		h.logger.Error("get plan", "plan_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update plan")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	plan, err := h.plans.Update(id, req.Name, req.Description, req.HoursIncluded, req.PricePerHour, req.TotalPrice, req.Features, req.IsPopular)
	if err != nil {
		h.logger.Error("update plan", "plan_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update plan")
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.plans.GetByID(id)
	if err != nil {
		h.logger.Error("get plan", "plan_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete plan")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	if err := h.plans.Delete(id); err != nil {
		h.logger.Error("delete plan", "plan_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete plan")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
