package store

import (
	"database/sql"
	"fmt"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
)

// UserStore covers the identity side shared by admins and members: login
// credential lookup, listing, profile edits, and admin accounts.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `id, email, name, role, phone, address, created_at`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Phone, &u.Address, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetCredentials looks up a user by email and role for login. The
// password hash never travels further than the auth handler.
func (s *UserStore) GetCredentials(email, role string) (*model.Credentials, error) {
	var c model.Credentials
	err := s.db.QueryRow(
		`SELECT `+userCols+`, password_hash FROM users WHERE email = ? AND role = ?`,
		email, role,
	).Scan(&c.ID, &c.Email, &c.Name, &c.Role, &c.Phone, &c.Address, &c.CreatedAt, &c.PasswordHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	return &c, nil
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// List returns all users ordered by creation, never exposing password
// hashes.
func (s *UserStore) List() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + ` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateProfile updates the caller-editable identity fields; nil fields
// are left untouched.
func (s *UserStore) UpdateProfile(id int64, name, phone, address *string) (*model.User, error) {
	if name != nil {
		if _, err := s.db.Exec(`UPDATE users SET name = ? WHERE id = ?`, *name, id); err != nil {
			return nil, fmt.Errorf("update name: %w", err)
		}
	}
	if phone != nil {
		if _, err := s.db.Exec(`UPDATE users SET phone = ? WHERE id = ?`, *phone, id); err != nil {
			return nil, fmt.Errorf("update phone: %w", err)
		}
	}
	if address != nil {
		if _, err := s.db.Exec(`UPDATE users SET address = ? WHERE id = ?`, *address, id); err != nil {
			return nil, fmt.Errorf("update address: %w", err)
		}
	}
	return s.GetByID(id)
}

// EmailExists reports whether any account already uses the email,
// regardless of role.
func (s *UserStore) EmailExists(email string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

// CreateAdmin inserts an admin user with its role-specific row.
func (s *UserStore) CreateAdmin(email, passwordHash, name, position string) (*model.Admin, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO users (email, password_hash, name, role) VALUES (?, ?, ?, ?)`,
		email, passwordHash, name, model.RoleAdmin,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO admins (user_id, position) VALUES (?, ?)`, id, position); err != nil {
		return nil, fmt.Errorf("insert admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	u, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	return &model.Admin{User: *u, Position: position}, nil
}

// CountAdmins reports how many admin accounts exist; used for first-run
// seeding.
func (s *UserStore) CountAdmins() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE role = ?`, model.RoleAdmin).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}
