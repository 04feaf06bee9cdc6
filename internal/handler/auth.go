package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mohitgulati1999/rfid-joinery/internal/auth"
	"github.com/mohitgulati1999/rfid-joinery/internal/model"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
)

type AuthHandler struct {
	users   *store.UserStore
	members *store.MemberStore
	secret  []byte
	logger  *slog.Logger
}

func NewAuthHandler(users *store.UserStore, members *store.MemberStore, secret []byte, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, members: members, secret: secret, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// Login checks credentials for the requested role and issues a bearer
// token. Wrong password, unknown email and wrong role all produce the
// same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeError(w, http.StatusBadRequest, "role must be admin or member")
		return
	}

	creds, err := h.users.GetCredentials(req.Email, req.Role)
	if err != nil {
		h.logger.Error("get credentials", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if creds == nil {
		writeError(w, http.StatusBadRequest, "invalid credentials or role")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusBadRequest, "invalid credentials or role")
		return
	}

	token, err := auth.IssueToken(h.secret, creds.ID, creds.Role, time.Now())
	if err != nil {
		h.logger.Error("issue token", "user_id", creds.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	resp := loginResponse{Token: token, User: creds.User}
	if creds.Role == model.RoleMember {
		member, err := h.members.GetByID(creds.ID)
		if err != nil {
			h.logger.Error("load member", "user_id", creds.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}
		if member != nil {
			resp.User = member
		}
	}

	h.logger.Info("user logged in", "user_id", creds.ID, "role", creds.Role)
	writeJSON(w, http.StatusOK, resp)
}

// Me returns the authenticated account, with membership fields for
// members.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if ac.Role == model.RoleMember {
		member, err := h.members.GetByID(ac.UserID)
		if err != nil {
			h.logger.Error("load member", "user_id", ac.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load account")
			return
		}
		if member == nil {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeJSON(w, http.StatusOK, member)
		return
	}

	user, err := h.users.GetByID(ac.UserID)
	if err != nil {
		h.logger.Error("load user", "user_id", ac.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
