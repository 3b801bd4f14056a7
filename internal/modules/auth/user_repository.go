package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthdesk/wealthdesk/internal/database"
	"github.com/wealthdesk/wealthdesk/internal/domain"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db  database.Queryer
	log zerolog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(q database.Queryer, log zerolog.Logger) *UserRepository {
	return &UserRepository{
		db:  q,
		log: log.With().Str("repo", "users").Logger(),
	}
}

const userColumns = `id, email, password_hash, first_name, last_name, risk_profile, created_at, updated_at`

// Create inserts a new user and fills in the generated ID.
func (r *UserRepository) Create(u *domain.User) error {
	result, err := r.db.Exec(
		`INSERT INTO users (email, password_hash, first_name, last_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt.Unix(), u.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id
	return nil
}

// GetByEmail returns the user with the given email address
func (r *UserRepository) GetByEmail(email string) (*domain.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetByID returns the user with the given id
func (r *UserRepository) GetByID(id int64) (*domain.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// UpdateRiskProfile stamps the user's current risk classification
func (r *UserRepository) UpdateRiskProfile(userID int64, level domain.RiskLevel, updatedAt time.Time) error {
	result, err := r.db.Exec(
		`UPDATE users SET risk_profile = ?, updated_at = ? WHERE id = ?`,
		string(level), updatedAt.Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update risk profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u                    domain.User
		firstName, lastName  sql.NullString
		riskProfile          sql.NullString
		createdAt, updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &firstName, &lastName,
		&riskProfile, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.RiskProfile = riskProfile.String
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	u.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &u, nil
}
