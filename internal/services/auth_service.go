package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"tailorshop/internal/auth"
	"tailorshop/internal/config"
	"tailorshop/internal/db"
	"tailorshop/internal/models"
	"tailorshop/internal/store"
	"tailorshop/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, input store.UserInput) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.User, error)
	HasAdmin(ctx context.Context) (bool, error)
	UpdateLoginState(ctx context.Context, tx store.Execer, userID string, failedAttempts int, lockedUntil *time.Time) error
	RecordLogin(ctx context.Context, tx store.Execer, userID, ip string, at time.Time) error
	SetRefreshTokenHash(ctx context.Context, tx store.Execer, userID string, hash *string) error
	SetResetToken(ctx context.Context, tx store.Execer, userID, token string, expires time.Time) error
	ConsumeResetToken(ctx context.Context, tx store.Getter, token, passwordHash string, now time.Time) (string, error)
	SetVerificationToken(ctx context.Context, tx store.Execer, userID, token string, expires time.Time) error
	ConsumeVerificationToken(ctx context.Context, tx store.Getter, token string, now time.Time) (string, error)
	UpdatePassword(ctx context.Context, tx store.Execer, userID, passwordHash string) error
	SetActive(ctx context.Context, tx store.Execer, userID string, active bool) (int64, error)
}

type AuthSettings struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
	VerifyTTL  time.Duration
	BcryptCost int
}

func AuthSettingsFromConfig(cfg config.Config) AuthSettings {
	return AuthSettings{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		ResetTTL:   cfg.ResetTTL,
		VerifyTTL:  cfg.VerifyTTL,
		BcryptCost: cfg.BcryptCost,
	}
}

// AuthService owns credentials, lockout and token issuance.
type AuthService struct {
	txRunner db.TxRunner
	users    UserStore
	audit    AuditStore
	settings AuthSettings
	lockout  auth.LockoutPolicy
	now      func() time.Time
	newToken func() (string, error)
}

func NewAuthService(txRunner db.TxRunner, users UserStore, audit AuditStore, settings AuthSettings) *AuthService {
	return &AuthService{
		txRunner: txRunner,
		users:    users,
		audit:    audit,
		settings: settings,
		lockout:  auth.DefaultLockout,
		now:      time.Now,
		newToken: auth.RandomToken,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Authenticate checks credentials under a row lock so concurrent failures
// for one account are counted one at a time. Unknown email and wrong
// password both yield ErrInvalidCredential; lock and disabled state are
// only reported once the password matches.
func (s *AuthService) Authenticate(ctx context.Context, email, password, ip string) (models.User, error) {
	email = validator.NormalizeEmail(email)
	found, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrInvalidCredential
		}
		return models.User{}, err
	}
	now := s.now()
	var user models.User
	var outcome error
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.users.GetForUpdate(ctx, tx, found.ID)
		if err != nil {
			return err
		}
		if !auth.CheckPassword(locked.PasswordHash, password) {
			outcome = ErrInvalidCredential
			if err := s.registerFailure(ctx, tx, locked, now); err != nil {
				return err
			}
			return s.audit.Log(ctx, tx, "", "login_failed", "user", locked.ID, auditData(map[string]string{"ip": ip}))
		}
		state := auth.LoginState{FailedAttempts: locked.FailedLoginAttempts, LockedUntil: locked.LockedUntil}
		if s.lockout.IsLocked(state, now) {
			outcome = ErrAccountLocked
			return nil
		}
		if !locked.IsActive {
			outcome = ErrAccountDisabled
			return nil
		}
		if err := s.users.RecordLogin(ctx, tx, locked.ID, ip, now); err != nil {
			return err
		}
		user = loggedIn(locked, ip, now)
		return s.audit.Log(ctx, tx, locked.ID, "login", "user", locked.ID, auditData(map[string]string{"ip": ip}))
	})
	if err != nil {
		return models.User{}, err
	}
	if outcome != nil {
		return models.User{}, outcome
	}
	return user, nil
}

func loggedIn(user models.User, ip string, at time.Time) models.User {
	user.LastLoginAt = user.CurrentLoginAt
	user.LastLoginIP = user.CurrentLoginIP
	user.CurrentLoginAt = &at
	if ip != "" {
		user.CurrentLoginIP = &ip
	} else {
		user.CurrentLoginIP = nil
	}
	user.LoginCount++
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	return user
}

// RecordFailedAttempt counts one failed login against userID.
func (s *AuthService) RecordFailedAttempt(ctx context.Context, userID string) error {
	now := s.now()
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
		return s.registerFailure(ctx, tx, user, now)
	})
}

func (s *AuthService) registerFailure(ctx context.Context, tx *sqlx.Tx, user models.User, now time.Time) error {
	next := s.lockout.RegisterFailure(auth.LoginState{
		FailedAttempts: user.FailedLoginAttempts,
		LockedUntil:    user.LockedUntil,
	}, now)
	return s.users.UpdateLoginState(ctx, tx, user.ID, next.FailedAttempts, next.LockedUntil)
}

func (s *AuthService) IssueAccessToken(user models.User) (string, error) {
	return auth.GenerateAccessToken(s.settings.Secret, auth.Identity{
		UserID:   user.ID,
		Role:     user.Role,
		Username: user.Username,
	}, s.settings.AccessTTL, s.now())
}

func (s *AuthService) IssueRefreshToken(ctx context.Context, user models.User) (string, error) {
	token, err := auth.GenerateRefreshToken(s.settings.Secret, user.ID, s.settings.RefreshTTL, s.now())
	if err != nil {
		return "", err
	}
	hash := auth.HashToken(token)
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.users.SetRefreshTokenHash(ctx, tx, user.ID, &hash)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) IssueTokens(ctx context.Context, user models.User) (TokenPair, error) {
	access, err := s.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.settings.AccessTTL}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password, ip string) (models.User, TokenPair, error) {
	user, err := s.Authenticate(ctx, email, password, ip)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	tokens, err := s.IssueTokens(ctx, user)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	return user, tokens, nil
}

// Refresh mints a new access token. The refresh token must be the one most
// recently issued to an account that still exists and is active.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := auth.ParseRefreshToken(s.settings.Secret, refreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if !user.IsActive || user.RefreshTokenHash == nil || *user.RefreshTokenHash != auth.HashToken(refreshToken) {
		return "", ErrInvalidToken
	}
	return s.IssueAccessToken(user)
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.users.SetRefreshTokenHash(ctx, tx, userID, nil)
	})
}

func (s *AuthService) GenerateVerificationToken(ctx context.Context, userID string) (string, error) {
	token, err := s.newToken()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(s.settings.VerifyTTL)
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.users.SetVerificationToken(ctx, tx, userID, auth.HashToken(token), expires)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidOrExpiredToken
	}
	now := s.now()
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		userID, err := s.users.ConsumeVerificationToken(ctx, tx, auth.HashToken(token), now)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrInvalidOrExpiredToken
			}
			return err
		}
		return s.audit.Log(ctx, tx, userID, "verify_email", "user", userID, "{}")
	})
}

func (s *AuthService) GenerateResetToken(ctx context.Context, userID string) (string, error) {
	token, err := s.newToken()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(s.settings.ResetTTL)
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.users.SetResetToken(ctx, tx, userID, auth.HashToken(token), expires)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// RequestPasswordReset returns an empty token and no error for unknown emails.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, validator.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return s.GenerateResetToken(ctx, user.ID)
}

func (s *AuthService) ConsumeResetToken(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidOrExpiredToken
	}
	if err := validator.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := auth.HashPasswordCost(newPassword, s.settings.BcryptCost)
	if err != nil {
		return err
	}
	now := s.now()
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		userID, err := s.users.ConsumeResetToken(ctx, tx, auth.HashToken(token), hash, now)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrInvalidOrExpiredToken
			}
			return err
		}
		return s.audit.Log(ctx, tx, userID, "reset_password", "user", userID, "{}")
	})
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, currentPassword) {
		return ErrWrongPassword
	}
	if err := validator.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := auth.HashPasswordCost(newPassword, s.settings.BcryptCost)
	if err != nil {
		return err
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.users.UpdatePassword(ctx, tx, userID, hash); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, userID, "change_password", "user", userID, "{}")
	})
}

type StaffInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
	Role     string
}

// CreateStaff creates an active, verified staff account. Roles outside
// admin/tailor/cashier become tailor.
func (s *AuthService) CreateStaff(ctx context.Context, actorID string, input StaffInput) (models.User, error) {
	input.Email = validator.NormalizeEmail(input.Email)
	if err := validator.ValidateUsername(input.Username); err != nil {
		return models.User{}, err
	}
	if err := validator.ValidateEmail(input.Email); err != nil {
		return models.User{}, err
	}
	if err := validator.ValidatePassword(input.Password); err != nil {
		return models.User{}, err
	}
	hash, err := auth.HashPasswordCost(input.Password, s.settings.BcryptCost)
	if err != nil {
		return models.User{}, err
	}
	record := store.UserInput{
		ID:            uuid.NewString(),
		Username:      input.Username,
		Email:         input.Email,
		PasswordHash:  hash,
		FullName:      input.FullName,
		Phone:         input.Phone,
		Role:          auth.NormalizeStaffRole(input.Role),
		IsActive:      true,
		EmailVerified: true,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.users.Create(ctx, tx, record); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actorID, "create_staff", "user", record.ID, auditData(map[string]string{"role": record.Role}))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, err
	}
	return userFromInput(record, s.now()), nil
}

func (s *AuthService) SetStaffActive(ctx context.Context, actorID, userID string, active bool) error {
	if actorID == userID && !active {
		return ErrForbidden
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.users.SetActive(ctx, tx, userID, active)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrUserNotFound
		}
		return s.audit.Log(ctx, tx, actorID, "set_active", "user", userID, auditData(map[string]bool{"active": active}))
	})
}

// EnsureAdmin creates the bootstrap admin when no admin account exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, admin config.BootstrapAdmin) (bool, error) {
	exists, err := s.users.HasAdmin(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	hash, err := auth.HashPasswordCost(admin.Password, s.settings.BcryptCost)
	if err != nil {
		return false, err
	}
	record := store.UserInput{
		ID:            uuid.NewString(),
		Username:      admin.Username,
		Email:         validator.NormalizeEmail(admin.Email),
		PasswordHash:  hash,
		FullName:      admin.FullName,
		Role:          auth.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.users.Create(ctx, tx, record)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func userFromInput(input store.UserInput, now time.Time) models.User {
	user := models.User{
		ID:            input.ID,
		Username:      input.Username,
		Email:         input.Email,
		PasswordHash:  input.PasswordHash,
		Role:          input.Role,
		IsActive:      input.IsActive,
		EmailVerified: input.EmailVerified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.FullName != "" {
		user.FullName = &input.FullName
	}
	if input.Phone != "" {
		user.Phone = &input.Phone
	}
	return user
}

func auditData(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(data)
}
