package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPasswordCost("s3cret-pass", 4)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.True(t, CheckPassword(hash, "s3cret-pass"))
	require.False(t, CheckPassword(hash, "other"))
	require.False(t, CheckPassword("", "s3cret-pass"))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("secret", Identity{UserID: "user-1", Role: RoleCashier, Username: "cash"}, time.Hour, time.Now())
	require.NoError(t, err)
	claims, err := ParseAccessToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, Identity{UserID: "user-1", Role: RoleCashier, Username: "cash"}, claims.Identity())
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("secret", Identity{UserID: "user-1"}, time.Hour, time.Now())
	require.NoError(t, err)
	_, err = ParseAccessToken("other", token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateAccessToken("secret", Identity{UserID: "user-1"}, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = ParseToken("secret", token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	refresh, err := GenerateRefreshToken("secret", "user-1", time.Hour, time.Now())
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", refresh)
	require.ErrorIs(t, err, ErrInvalidToken)

	claims, err := ParseRefreshToken("secret", refresh)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID())
	require.Empty(t, claims.Role)

	access, err := GenerateAccessToken("secret", Identity{UserID: "user-1"}, time.Hour, time.Now())
	require.NoError(t, err)
	_, err = ParseRefreshToken("secret", access)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	now := time.Now()
	first, err := GenerateRefreshToken("secret", "user-1", time.Hour, now)
	require.NoError(t, err)
	second, err := GenerateRefreshToken("secret", "user-1", time.Hour, now)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestRandomToken(t *testing.T) {
	first, err := RandomToken()
	require.NoError(t, err)
	second, err := RandomToken()
	require.NoError(t, err)
	require.Len(t, first, 43)
	require.NotEqual(t, first, second)
	require.NotContains(t, first, "+")
	require.NotContains(t, first, "/")
	require.Len(t, HashToken(first), 64)
}

func TestLockoutAfterThreshold(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	state := LoginState{}
	for i := 0; i < 4; i++ {
		state = DefaultLockout.RegisterFailure(state, now)
		require.False(t, DefaultLockout.IsLocked(state, now))
	}
	state = DefaultLockout.RegisterFailure(state, now)
	require.Equal(t, 5, state.FailedAttempts)
	require.True(t, DefaultLockout.IsLocked(state, now))
	require.True(t, DefaultLockout.IsLocked(state, now.Add(29*time.Minute)))
	require.False(t, DefaultLockout.IsLocked(state, now.Add(30*time.Minute)))
}

func TestLockoutExpiryClearsCounter(t *testing.T) {
	now := time.Now()
	until := now.Add(-time.Second)
	state := DefaultLockout.Expire(LoginState{FailedAttempts: 5, LockedUntil: &until}, now)
	require.Equal(t, LoginState{}, state)

	state = DefaultLockout.RegisterFailure(LoginState{FailedAttempts: 5, LockedUntil: &until}, now)
	require.Equal(t, 1, state.FailedAttempts)
	require.Nil(t, state.LockedUntil)
}

func TestLockoutDoesNotExtendActiveLock(t *testing.T) {
	now := time.Now()
	state := LoginState{}
	for i := 0; i < 5; i++ {
		state = DefaultLockout.RegisterFailure(state, now)
	}
	first := *state.LockedUntil
	state = DefaultLockout.RegisterFailure(state, now.Add(time.Minute))
	require.Equal(t, first, *state.LockedUntil)
}

func TestAuthorize(t *testing.T) {
	require.NoError(t, Authorize(RoleAdmin, RoleAdmin))
	require.NoError(t, Authorize(RoleCashier, RoleAdmin, RoleCashier))
	require.ErrorIs(t, Authorize(RoleCashier, RoleAdmin), ErrForbidden)
	require.ErrorIs(t, Authorize("", RoleAdmin), ErrForbidden)
	require.ErrorIs(t, Authorize(RoleAdmin), ErrForbidden)
}

func TestNormalizeStaffRole(t *testing.T) {
	require.Equal(t, RoleCashier, NormalizeStaffRole(RoleCashier))
	require.Equal(t, RoleTailor, NormalizeStaffRole("owner"))
	require.Equal(t, RoleTailor, NormalizeStaffRole(RoleUser))
}
