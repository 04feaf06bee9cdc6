package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mohitgulati1999/rfid-joinery/internal/attendance"
	"github.com/mohitgulati1999/rfid-joinery/internal/handler"
	"github.com/mohitgulati1999/rfid-joinery/internal/middleware"
	"github.com/mohitgulati1999/rfid-joinery/internal/payment"
	"github.com/mohitgulati1999/rfid-joinery/internal/proof"
	"github.com/mohitgulati1999/rfid-joinery/internal/push"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
	ws "github.com/mohitgulati1999/rfid-joinery/internal/websocket"
)

// Config carries the pieces main assembles from the environment.
type Config struct {
	JWTSecret []byte
	Proofs    proof.Store
	Push      push.Config
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	attendanceH *handler.AttendanceHandler
	paymentH    *handler.PaymentHandler
	memberH     *handler.MemberHandler
	planH       *handler.PlanHandler
	authH       *handler.AuthHandler
	pushH       *handler.PushHandler
	rateLimiter *middleware.RateLimiter
	secret      []byte
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	memberStore := store.NewMemberStore(db)
	attendanceStore := store.NewAttendanceStore(db)
	paymentStore := store.NewPaymentStore(db)
	userStore := store.NewUserStore(db)
	planStore := store.NewPlanStore(db)
	pushStore := store.NewPushStore(db)

	engine := attendance.NewEngine(memberStore, attendanceStore, logger.With("component", "attendance"))
	workflow := payment.NewWorkflow(paymentStore, memberStore, logger.With("component", "payment"))

	// Push is optional: without VAPID keys the API still works, admins
	// just rely on the dashboard websocket instead.
	var pushSvc *push.Service
	var notifier *push.Notifier
	var pushH *handler.PushHandler
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
		notifier = push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	return &Server{
		db:          db,
		hub:         hub,
		attendanceH: handler.NewAttendanceHandler(engine, attendanceStore, hub, logger.With("component", "attendance_handler")),
		paymentH:    handler.NewPaymentHandler(workflow, paymentStore, cfg.Proofs, notifier, hub, logger.With("component", "payment_handler")),
		memberH:     handler.NewMemberHandler(memberStore, userStore, logger.With("component", "member_handler")),
		planH:       handler.NewPlanHandler(planStore, logger.With("component", "plan_handler")),
		authH:       handler.NewAuthHandler(userStore, memberStore, cfg.JWTSecret, logger.With("component", "auth")),
		pushH:       pushH,
		rateLimiter: middleware.NewRateLimiter(),
		secret:      cfg.JWTSecret,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /api/memberships", s.planH.List)
	outerMux.HandleFunc("GET /api/memberships/{id}", s.planH.Get)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes wrapped with the bearer-token middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.secret)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAdmin(h)
	}

	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("PUT /api/users/profile", s.memberH.UpdateProfile)

	// Attendance routes; the RFID reader sits at the admin desk
	mux.Handle("POST /api/attendance/checkin", admin(s.attendanceH.CheckIn))
	mux.Handle("PUT /api/attendance/checkout", admin(s.attendanceH.CheckOut))
	mux.Handle("GET /api/attendance", admin(s.attendanceH.List))
	mux.Handle("GET /api/attendance/current", admin(s.attendanceH.Current))
	mux.Handle("GET /api/attendance/stats", admin(s.attendanceH.Stats))
	mux.HandleFunc("GET /api/attendance/member/{id}", s.attendanceH.ListByMember)

	// Payment routes
	mux.HandleFunc("POST /api/payments", s.paymentH.Submit)
	mux.Handle("GET /api/payments", admin(s.paymentH.List))
	mux.HandleFunc("GET /api/payments/member/{id}", s.paymentH.ListByMember)
	// Not /api/payments/{id}/proof: that pattern conflicts with
	// /api/payments/member/{id} in the stdlib mux.
	mux.Handle("GET /api/payments/proof/{id}", admin(s.paymentH.Proof))
	mux.Handle("PUT /api/payments/{id}/approve", admin(s.paymentH.Approve))
	mux.Handle("PUT /api/payments/{id}/reject", admin(s.paymentH.Reject))

	// User management routes
	mux.Handle("GET /api/users", admin(s.memberH.ListUsers))
	mux.Handle("GET /api/users/members", admin(s.memberH.ListMembers))
	mux.Handle("POST /api/users/members", admin(s.memberH.CreateMember))
	mux.HandleFunc("GET /api/users/members/{id}", s.memberH.GetMember)
	mux.Handle("PUT /api/users/members/{id}", admin(s.memberH.UpdateMember))
	mux.Handle("PUT /api/users/members/{id}/hours", admin(s.memberH.AddHours))

	// Plan management; browsing is public, editing is not
	mux.Handle("POST /api/memberships", admin(s.planH.Create))
	mux.Handle("PUT /api/memberships/{id}", admin(s.planH.Update))
	mux.Handle("DELETE /api/memberships/{id}", admin(s.planH.Delete))

	// Push notification routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.List)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	}

	// Real-time dashboard updates
	mux.Handle("GET /ws", ws.HandleWebSocket(s.hub))
}
