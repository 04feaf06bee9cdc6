package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mohitgulati1999/rfid-joinery/internal/auth"
	"github.com/mohitgulati1999/rfid-joinery/internal/model"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
)

type MemberHandler struct {
	members *store.MemberStore
	users   *store.UserStore
	logger  *slog.Logger
}

func NewMemberHandler(members *store.MemberStore, users *store.UserStore, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: members, users: users, logger: logger}
}

// ListUsers returns every account, admins and members alike.
func (h *MemberHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List()
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !auth.CanAccessUser(r.Context(), id) {
		writeError(w, http.StatusForbidden, "not authorized")
		return
	}

	member, err := h.members.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

type createMemberRequest struct {
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	Name            string  `json:"name"`
	RFIDNumber      string  `json:"rfid_number"`
	MembershipHours float64 `json:"membership_hours"`
	IsActive        *bool   `json:"is_active"`
}

func (h *MemberHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.RFIDNumber = strings.ToUpper(strings.TrimSpace(req.RFIDNumber))

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if !model.RFIDPattern.MatchString(req.RFIDNumber) {
		writeError(w, http.StatusBadRequest, store.ErrInvalidRFID.Error())
		return
	}
	if req.MembershipHours < 0 {
		writeError(w, http.StatusBadRequest, "membership_hours must not be negative")
		return
	}

	taken, err := h.users.EmailExists(req.Email)
	if err != nil {
		h.logger.Error("check email", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}
	if taken {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	existing, err := h.members.GetByRFID(req.RFIDNumber)
	if err != nil {
		h.logger.Error("check rfid", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "RFID number already assigned")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	member, err := h.members.Create(req.Email, string(hash), req.Name, req.RFIDNumber, req.MembershipHours, isActive)
	if err != nil {
		if errors.Is(err, store.ErrInvalidRFID) || errors.Is(err, store.ErrNonPositiveHours) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create member", "email", req.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	h.logger.Info("member created", "member_id", member.ID, "rfid", member.RFIDNumber)
	writeJSON(w, http.StatusCreated, member)
}

type updateMemberRequest struct {
	Name            *string  `json:"name"`
	Email           *string  `json:"email"`
	Phone           *string  `json:"phone"`
	Address         *string  `json:"address"`
	RFIDNumber      *string  `json:"rfid_number"`
	MembershipHours *float64 `json:"membership_hours"`
	IsActive        *bool    `json:"is_active"`
	PlanID          *int64   `json:"plan_id"`
}

func (h *MemberHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	member, err := h.members.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	if req.RFIDNumber != nil {
		rfid := strings.ToUpper(strings.TrimSpace(*req.RFIDNumber))
		req.RFIDNumber = &rfid
		if rfid != member.RFIDNumber {
			existing, err := h.members.GetByRFID(rfid)
			if err != nil {
				h.logger.Error("check rfid", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to update member")
				return
			}
			if existing != nil {
				writeError(w, http.StatusConflict, "RFID number already assigned")
				return
			}
		}
	}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		req.Email = &email
		if email != member.Email {
			taken, err := h.users.EmailExists(email)
			if err != nil {
				h.logger.Error("check email", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to update member")
				return
			}
			if taken {
				writeError(w, http.StatusConflict, "email already registered")
				return
			}
		}
	}

	updated, err := h.members.Update(id, store.MemberUpdate{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		RFIDNumber:      req.RFIDNumber,
		MembershipHours: req.MembershipHours,
		IsActive:        req.IsActive,
		PlanID:          req.PlanID,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidRFID) || errors.Is(err, store.ErrNonPositiveHours) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("update member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

type addHoursRequest struct {
	HoursToAdd float64 `json:"hours_to_add"`
}

// AddHours applies a manual grant outside the payment workflow, for
// adjustments and comps handled at the front desk.
func (h *MemberHandler) AddHours(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req addHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.HoursToAdd <= 0 {
		writeError(w, http.StatusBadRequest, "hours_to_add must be greater than zero")
		return
	}

	if err := h.members.GrantHours(id, req.HoursToAdd); err != nil {
		if errors.Is(err, store.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if errors.Is(err, store.ErrNonPositiveHours) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("add hours", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add hours")
		return
	}

	member, err := h.members.GetByID(id)
	if err != nil || member == nil {
		h.logger.Error("reload member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload member")
		return
	}

	h.logger.Info("hours granted manually",
		"member_id", id, "hours", req.HoursToAdd, "admin_id", auth.UserID(r.Context()))
	writeJSON(w, http.StatusOK, member)
}

type updateProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// UpdateProfile lets any authenticated user edit their own contact
// details.
func (h *MemberHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.users.UpdateProfile(auth.UserID(r.Context()), req.Name, req.Phone, req.Address)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
