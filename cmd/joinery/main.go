package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mohitgulati1999/rfid-joinery/internal/database"
	"github.com/mohitgulati1999/rfid-joinery/internal/logging"
	"github.com/mohitgulati1999/rfid-joinery/internal/proof"
	"github.com/mohitgulati1999/rfid-joinery/internal/push"
	"github.com/mohitgulati1999/rfid-joinery/internal/server"
	"github.com/mohitgulati1999/rfid-joinery/internal/store"
)

func main() {
	logger := logging.Setup(os.Getenv("JOINERY_LOG_LEVEL"))

	port := os.Getenv("JOINERY_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("JOINERY_DB_PATH")
	if dbPath == "" {
		dbPath = "joinery.db"
	}

	secret := os.Getenv("JOINERY_JWT_SECRET")
	if secret == "" {
		logger.Error("JOINERY_JWT_SECRET is required")
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := seedAdmin(db, logger); err != nil {
		logger.Error("failed to seed admin account", "error", err)
		os.Exit(1)
	}

	// Proof storage: S3-compatible bucket when configured, local disk
	// otherwise.
	s3cfg := proof.S3Config{
		Endpoint:  os.Getenv("JOINERY_S3_ENDPOINT"),
		Bucket:    os.Getenv("JOINERY_S3_BUCKET"),
		Region:    os.Getenv("JOINERY_S3_REGION"),
		AccessKey: os.Getenv("JOINERY_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("JOINERY_S3_SECRET_KEY"),
	}
	var proofs proof.Store
	if s3cfg.Configured() {
		proofs = proof.NewS3Store(s3cfg)
		logger.Info("proof storage: s3", "bucket", s3cfg.Bucket)
	} else {
		dir := os.Getenv("JOINERY_UPLOAD_DIR")
		if dir == "" {
			dir = "uploads"
		}
		diskStore, err := proof.NewDiskStore(dir)
		if err != nil {
			logger.Error("failed to create upload directory", "dir", dir, "error", err)
			os.Exit(1)
		}
		proofs = diskStore
		logger.Info("proof storage: disk", "dir", dir)
	}

	srv := server.New(db, server.Config{
		JWTSecret: []byte(secret),
		Proofs:    proofs,
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("JOINERY_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("JOINERY_VAPID_PRIVATE_KEY"),
		},
	}, logger)

	// Expired rate-limit entries accumulate otherwise
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("joinery listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// seedAdmin creates the first admin account from the environment when
// the database has none. Without it a fresh install has no way to log
// in.
func seedAdmin(db *sql.DB, logger *slog.Logger) error {
	users := store.NewUserStore(db)

	n, err := users.CountAdmins()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	email := os.Getenv("JOINERY_ADMIN_EMAIL")
	password := os.Getenv("JOINERY_ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Warn("no admin accounts exist and JOINERY_ADMIN_EMAIL/JOINERY_ADMIN_PASSWORD are unset")
		return nil
	}

	name := os.Getenv("JOINERY_ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin, err := users.CreateAdmin(email, string(hash), name, "Manager")
	if err != nil {
		return err
	}

	logger.Info("seeded initial admin account", "user_id", admin.ID, "email", email)
	return nil
}
