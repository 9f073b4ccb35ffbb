package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"tailorshop/internal/auth"
	"tailorshop/internal/config"
	"tailorshop/internal/models"
	"tailorshop/internal/store"
	"tailorshop/internal/validator"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserStore(users ...models.User) *memUserStore {
	m := &memUserStore{users: map[string]models.User{}}
	for _, user := range users {
		m.users[user.ID] = user
	}
	return m
}

func (m *memUserStore) get(id string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memUserStore) Create(ctx context.Context, tx store.Execer, input store.UserInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[input.ID] = userFromInput(input, time.Now())
	return nil
}

func (m *memUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, sql.ErrNoRows
}

func (m *memUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (m *memUserStore) GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.User, error) {
	return m.GetByID(ctx, userID)
}

func (m *memUserStore) HasAdmin(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Role == auth.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserStore) update(userID string, fn func(*models.User)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := m.users[userID]
	fn(&user)
	m.users[userID] = user
}

func (m *memUserStore) UpdateLoginState(ctx context.Context, tx store.Execer, userID string, failedAttempts int, lockedUntil *time.Time) error {
	m.update(userID, func(u *models.User) {
		u.FailedLoginAttempts = failedAttempts
		u.LockedUntil = lockedUntil
	})
	return nil
}

func (m *memUserStore) RecordLogin(ctx context.Context, tx store.Execer, userID, ip string, at time.Time) error {
	m.update(userID, func(u *models.User) {
		*u = loggedIn(*u, ip, at)
	})
	return nil
}

func (m *memUserStore) SetRefreshTokenHash(ctx context.Context, tx store.Execer, userID string, hash *string) error {
	m.update(userID, func(u *models.User) { u.RefreshTokenHash = hash })
	return nil
}

func (m *memUserStore) SetResetToken(ctx context.Context, tx store.Execer, userID, token string, expires time.Time) error {
	m.update(userID, func(u *models.User) {
		u.ResetToken = &token
		u.ResetTokenExpires = &expires
	})
	return nil
}

func (m *memUserStore) ConsumeResetToken(ctx context.Context, tx store.Getter, token, passwordHash string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, user := range m.users {
		if user.ResetToken != nil && *user.ResetToken == token && user.ResetTokenExpires != nil && now.Before(*user.ResetTokenExpires) {
			user.PasswordHash = passwordHash
			user.ResetToken = nil
			user.ResetTokenExpires = nil
			user.RefreshTokenHash = nil
			m.users[id] = user
			return id, nil
		}
	}
	return "", sql.ErrNoRows
}

func (m *memUserStore) SetVerificationToken(ctx context.Context, tx store.Execer, userID, token string, expires time.Time) error {
	m.update(userID, func(u *models.User) {
		u.VerificationToken = &token
		u.VerificationTokenExpires = &expires
	})
	return nil
}

func (m *memUserStore) ConsumeVerificationToken(ctx context.Context, tx store.Getter, token string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, user := range m.users {
		if user.VerificationToken != nil && *user.VerificationToken == token && user.VerificationTokenExpires != nil && now.Before(*user.VerificationTokenExpires) {
			user.EmailVerified = true
			user.VerificationToken = nil
			user.VerificationTokenExpires = nil
			m.users[id] = user
			return id, nil
		}
	}
	return "", sql.ErrNoRows
}

func (m *memUserStore) UpdatePassword(ctx context.Context, tx store.Execer, userID, passwordHash string) error {
	m.update(userID, func(u *models.User) { u.PasswordHash = passwordHash })
	return nil
}

func (m *memUserStore) SetActive(ctx context.Context, tx store.Execer, userID string, active bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return 0, nil
	}
	user.IsActive = active
	m.users[userID] = user
	return 1, nil
}

var testSettings = AuthSettings{
	Secret:     "test-secret",
	AccessTTL:  24 * time.Hour,
	RefreshTTL: 7 * 24 * time.Hour,
	ResetTTL:   time.Hour,
	VerifyTTL:  time.Hour,
	BcryptCost: bcrypt.MinCost,
}

func seededUser(t *testing.T, id, email, password string, active bool) models.User {
	t.Helper()
	hash, err := auth.HashPasswordCost(password, bcrypt.MinCost)
	require.NoError(t, err)
	return models.User{
		ID:           id,
		Username:     id,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleCashier,
		IsActive:     active,
	}
}

func newAuthService(users *memUserStore, audit *recordingAudit, now time.Time) *AuthService {
	svc := NewAuthService(fakeTxRunner{}, users, audit, testSettings)
	svc.now = fixedClock(now)
	return svc
}

func TestAuthenticateLocksAfterFiveFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	users := newMemUserStore(seededUser(t, "u1", "jane@shop.test", "secret1", true))
	svc := newAuthService(users, &recordingAudit{}, now)

	for i := 0; i < 5; i++ {
		_, err := svc.Authenticate(ctx, "jane@shop.test", "wrong", "10.0.0.1")
		require.ErrorIs(t, err, ErrInvalidCredential)
	}
	stored := users.get("u1")
	require.Equal(t, 5, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockedUntil)
	require.Equal(t, now.Add(30*time.Minute), *stored.LockedUntil)

	_, err := svc.Authenticate(ctx, "jane@shop.test", "secret1", "10.0.0.1")
	require.ErrorIs(t, err, ErrAccountLocked)
	_, err = svc.Authenticate(ctx, "jane@shop.test", "still-wrong", "10.0.0.1")
	require.ErrorIs(t, err, ErrInvalidCredential)
	require.Equal(t, now.Add(30*time.Minute), *users.get("u1").LockedUntil)

	svc.now = fixedClock(now.Add(31 * time.Minute))
	user, err := svc.Authenticate(ctx, "jane@shop.test", "secret1", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)
	require.Zero(t, users.get("u1").FailedLoginAttempts)
	require.Nil(t, users.get("u1").LockedUntil)
}

func TestAuthenticateSuccessResetsCounter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	users := newMemUserStore(seededUser(t, "u1", "jane@shop.test", "secret1", true))
	audit := &recordingAudit{}
	svc := newAuthService(users, audit, now)

	for i := 0; i < 3; i++ {
		_, err := svc.Authenticate(ctx, "jane@shop.test", "wrong", "")
		require.ErrorIs(t, err, ErrInvalidCredential)
	}
	require.Equal(t, 3, users.get("u1").FailedLoginAttempts)

	user, err := svc.Authenticate(ctx, "  JANE@shop.test ", "secret1", "10.0.0.9")
	require.NoError(t, err)
	require.Equal(t, 1, user.LoginCount)
	require.NotNil(t, user.CurrentLoginIP)
	require.Equal(t, "10.0.0.9", *user.CurrentLoginIP)

	stored := users.get("u1")
	require.Zero(t, stored.FailedLoginAttempts)
	require.Equal(t, 1, stored.LoginCount)
	require.Contains(t, audit.actions(), "login")
	require.Contains(t, audit.actions(), "login_failed")
}

func TestAuthenticateRejectsUnknownAndDisabled(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	users := newMemUserStore(seededUser(t, "u2", "off@shop.test", "secret1", false))
	svc := newAuthService(users, &recordingAudit{}, now)

	_, err := svc.Authenticate(ctx, "nobody@shop.test", "secret1", "")
	require.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Authenticate(ctx, "off@shop.test", "secret1", "")
	require.ErrorIs(t, err, ErrAccountDisabled)

	_, err = svc.Authenticate(ctx, "off@shop.test", "bad", "")
	require.ErrorIs(t, err, ErrInvalidCredential)
	require.Equal(t, 1, users.get("u2").FailedLoginAttempts)
}

func TestRecordFailedAttempt(t *testing.T) {
	ctx := context.Background()
	users := newMemUserStore(seededUser(t, "u1", "jane@shop.test", "secret1", true))
	svc := newAuthService(users, &recordingAudit{}, time.Now())

	require.NoError(t, svc.RecordFailedAttempt(ctx, "u1"))
	require.Equal(t, 1, users.get("u1").FailedLoginAttempts)
	require.ErrorIs(t, svc.RecordFailedAttempt(ctx, "missing"), ErrUserNotFound)
}

func TestLoginIssuesTokensAndRefreshChecksStoredHash(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	users := newMemUserStore(seededUser(t, "u1", "jane@shop.test", "secret1", true))
	svc := newAuthService(users, &recordingAudit{}, now)

	_, tokens, err := svc.Login(ctx, "jane@shop.test", "secret1", "")
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.Equal(t, 24*time.Hour, tokens.ExpiresIn)

	claims, err := auth.ParseAccessToken(testSettings.Secret, tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID())
	require.Equal(t, auth.RoleCashier, claims.Role)

	access, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	_, err = svc.Refresh(ctx, tokens.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, svc.Logout(ctx, "u1"))
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetTokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	users := newMemUserStore(seededUser(t, "u1", "jane@shop.test", "secret1", true))
	svc := newAuthService(users, &recordingAudit{}, now)
	svc.newToken = func() (string, error) { return "reset-token", nil }

	token, err := svc.RequestPasswordReset(ctx, "Jane@Shop.test")
	require.NoError(t, err)
	require.Equal(t, "reset-token", token)

	require.NoError(t, svc.ConsumeResetToken(ctx, token, "brand-new"))
	require.True(t, auth.CheckPassword(users.get("u1").PasswordHash, "brand-new"))

	err = svc.ConsumeResetToken(ctx, token, "another-one")
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestResetTokenExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	users := newMemUserStore(seededUser(t, "u1", "jane@shop.test", "secret1", true))
	svc := newAuthService(users, &recordingAudit{}, now)

	token, err := svc.GenerateResetToken(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, token, 43)

	svc.now = fixedClock(now.Add(2 * time.Hour))
	require.ErrorIs(t, svc.ConsumeResetToken(ctx, token, "brand-new"), ErrInvalidOrExpiredToken)
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc := newAuthService(newMemUserStore(), &recordingAudit{}, time.Now())
	token, err := svc.RequestPasswordReset(context.Background(), "ghost@shop.test")
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestVerifyEmailRoundTrip(t *testing.T) {
	ctx := context.Background()
	users := newMemUserStore(seededUser(t, "u1", "jane@shop.test", "secret1", true))
	svc := newAuthService(users, &recordingAudit{}, time.Now())

	token, err := svc.GenerateVerificationToken(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, svc.VerifyEmail(ctx, token))
	require.True(t, users.get("u1").EmailVerified)
	require.ErrorIs(t, svc.VerifyEmail(ctx, token), ErrInvalidOrExpiredToken)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	users := newMemUserStore(seededUser(t, "u1", "jane@shop.test", "secret1", true))
	svc := newAuthService(users, &recordingAudit{}, time.Now())

	require.ErrorIs(t, svc.ChangePassword(ctx, "u1", "nope", "newpass"), ErrWrongPassword)
	require.ErrorIs(t, svc.ChangePassword(ctx, "u1", "secret1", "abc"), validator.ErrInvalidPassword)
	require.NoError(t, svc.ChangePassword(ctx, "u1", "secret1", "newpass"))
	require.True(t, auth.CheckPassword(users.get("u1").PasswordHash, "newpass"))
}

func TestCreateStaffNormalizesRole(t *testing.T) {
	ctx := context.Background()
	users := newMemUserStore()
	audit := &recordingAudit{}
	svc := newAuthService(users, audit, time.Now())

	user, err := svc.CreateStaff(ctx, "admin-1", StaffInput{
		Username: "mwangi",
		Email:    " Mwangi@Shop.test",
		Password: "secret1",
		Role:     "superuser",
	})
	require.NoError(t, err)
	require.Equal(t, auth.RoleTailor, user.Role)
	require.Equal(t, "mwangi@shop.test", user.Email)
	require.True(t, user.IsActive)
	require.Equal(t, []string{"create_staff"}, audit.actions())

	_, err = svc.CreateStaff(ctx, "admin-1", StaffInput{Username: "x", Email: "x@shop.test", Password: "secret1"})
	require.ErrorIs(t, err, validator.ErrInvalidUsername)
}

func TestSetStaffActive(t *testing.T) {
	ctx := context.Background()
	users := newMemUserStore(seededUser(t, "u1", "jane@shop.test", "secret1", true))
	svc := newAuthService(users, &recordingAudit{}, time.Now())

	require.NoError(t, svc.SetStaffActive(ctx, "admin-1", "u1", false))
	require.False(t, users.get("u1").IsActive)
	require.ErrorIs(t, svc.SetStaffActive(ctx, "admin-1", "missing", true), ErrUserNotFound)
	require.ErrorIs(t, svc.SetStaffActive(ctx, "admin-1", "admin-1", false), ErrForbidden)
}

func TestEnsureAdminCreatesOnce(t *testing.T) {
	ctx := context.Background()
	users := newMemUserStore()
	svc := newAuthService(users, &recordingAudit{}, time.Now())
	admin := config.BootstrapAdmin{Username: "admin", Email: "admin@tailor.com", Password: "admin123", FullName: "Admin User"}

	created, err := svc.EnsureAdmin(ctx, admin)
	require.NoError(t, err)
	require.True(t, created)

	created, err = svc.EnsureAdmin(ctx, admin)
	require.NoError(t, err)
	require.False(t, created)

	user, err := users.GetByEmail(ctx, "admin@tailor.com")
	require.NoError(t, err)
	require.Equal(t, auth.RoleAdmin, user.Role)
	require.True(t, auth.CheckPassword(user.PasswordHash, "admin123"))
}

func TestVerifyEmailKeepsDisabledAccountDisabled(t *testing.T) {
	ctx := context.Background()
	users := newMemUserStore(seededUser(t, "u1", "jane@shop.test", "secret1", true))
	svc := newAuthService(users, &recordingAudit{}, time.Now())

	token, err := svc.GenerateVerificationToken(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, svc.SetStaffActive(ctx, "admin", "u1", false))
	require.NoError(t, svc.VerifyEmail(ctx, token))

	stored := users.get("u1")
	require.True(t, stored.EmailVerified)
	require.False(t, stored.IsActive)
	_, err = svc.Authenticate(ctx, "jane@shop.test", "secret1", "")
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestOneTimeTokensAreStoredHashed(t *testing.T) {
	ctx := context.Background()
	users := newMemUserStore(seededUser(t, "u1", "jane@shop.test", "secret1", true))
	svc := newAuthService(users, &recordingAudit{}, time.Now())

	reset, err := svc.GenerateResetToken(ctx, "u1")
	require.NoError(t, err)
	verify, err := svc.GenerateVerificationToken(ctx, "u1")
	require.NoError(t, err)

	stored := users.get("u1")
	require.NotNil(t, stored.ResetToken)
	require.Equal(t, auth.HashToken(reset), *stored.ResetToken)
	require.NotNil(t, stored.VerificationToken)
	require.Equal(t, auth.HashToken(verify), *stored.VerificationToken)

	require.ErrorIs(t, svc.ConsumeResetToken(ctx, *stored.ResetToken, "brand-new"), ErrInvalidOrExpiredToken)
	require.NoError(t, svc.ConsumeResetToken(ctx, reset, "brand-new"))
}
