package store

import (
	"context"
	"time"

	"tailorshop/internal/models"

	"github.com/lib/pq"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, username, email, password_hash, full_name, phone, role, is_active, email_verified,
	verification_token, verification_token_expires, failed_login_attempts, locked_until,
	last_login_at, last_login_ip, current_login_at, current_login_ip, login_count,
	reset_token, reset_token_expires, refresh_token_hash, created_at, updated_at`

type UserInput struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	FullName      string
	Phone         string
	Role          string
	IsActive      bool
	EmailVerified bool
}

func (s *UserStore) Create(ctx context.Context, tx Execer, input UserInput) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, full_name, phone, role, is_active, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.Username, input.Email, input.PasswordHash,
		nullIfEmpty(input.FullName), nullIfEmpty(input.Phone), input.Role, input.IsActive, input.EmailVerified)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return row, err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return row, err
}

func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (models.User, error) {
	var row models.User
	err := tx.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
	return row, err
}

func (s *UserStore) Exists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID)
	return exists, err
}

func (s *UserStore) HasAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE role = 'admin')`)
	return exists, err
}

func (s *UserStore) ListByRoles(ctx context.Context, roles []string) ([]models.User, error) {
	var rows []models.User
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = ANY($1)
		ORDER BY created_at DESC
	`, pq.Array(roles))
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *UserStore) UpdateLoginState(ctx context.Context, tx Execer, userID string, failedAttempts int, lockedUntil *time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = $1, locked_until = $2, updated_at = NOW()
		WHERE id = $3
	`, failedAttempts, lockedUntil, userID)
	return err
}

// RecordLogin shifts the current login into the last-login slot; the
// right-hand sides see the pre-update row.
func (s *UserStore) RecordLogin(ctx context.Context, tx Execer, userID, ip string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET last_login_at = current_login_at,
		    last_login_ip = current_login_ip,
		    current_login_at = $1,
		    current_login_ip = $2,
		    login_count = login_count + 1,
		    failed_login_attempts = 0,
		    locked_until = NULL,
		    updated_at = NOW()
		WHERE id = $3
	`, at, nullIfEmpty(ip), userID)
	return err
}

func (s *UserStore) SetRefreshTokenHash(ctx context.Context, tx Execer, userID string, hash *string) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET refresh_token_hash = $1, updated_at = NOW() WHERE id = $2`, hash, userID)
	return err
}

func (s *UserStore) SetResetToken(ctx context.Context, tx Execer, userID, token string, expires time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET reset_token = $1, reset_token_expires = $2, updated_at = NOW()
		WHERE id = $3
	`, token, expires, userID)
	return err
}

// ConsumeResetToken swaps the password hash and clears the token in one
// statement, so a token can be redeemed at most once. sql.ErrNoRows means
// the token is unknown or expired.
func (s *UserStore) ConsumeResetToken(ctx context.Context, tx Getter, token, passwordHash string, now time.Time) (string, error) {
	var id string
	err := tx.GetContext(ctx, &id, `
		UPDATE users
		SET password_hash = $1,
		    reset_token = NULL,
		    reset_token_expires = NULL,
		    refresh_token_hash = NULL,
		    updated_at = NOW()
		WHERE reset_token = $2 AND reset_token_expires > $3
		RETURNING id
	`, passwordHash, token, now)
	return id, err
}

func (s *UserStore) SetVerificationToken(ctx context.Context, tx Execer, userID, token string, expires time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET verification_token = $1, verification_token_expires = $2, updated_at = NOW()
		WHERE id = $3
	`, token, expires, userID)
	return err
}

func (s *UserStore) ConsumeVerificationToken(ctx context.Context, tx Getter, token string, now time.Time) (string, error) {
	var id string
	err := tx.GetContext(ctx, &id, `
		UPDATE users
		SET email_verified = TRUE,
		    verification_token = NULL,
		    verification_token_expires = NULL,
		    updated_at = NOW()
		WHERE verification_token = $1 AND verification_token_expires > $2
		RETURNING id
	`, token, now)
	return id, err
}

func (s *UserStore) UpdatePassword(ctx context.Context, tx Execer, userID, passwordHash string) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, userID)
	return err
}

func (s *UserStore) SetActive(ctx context.Context, tx Execer, userID string, active bool) (int64, error) {
	res, err := tx.ExecContext(ctx, `UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
