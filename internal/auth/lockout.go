package auth

import "time"

type LockoutPolicy struct {
	Threshold int
	Cooldown  time.Duration
}

var DefaultLockout = LockoutPolicy{Threshold: 5, Cooldown: 30 * time.Minute}

type LoginState struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

func (p LockoutPolicy) IsLocked(state LoginState, now time.Time) bool {
	return state.LockedUntil != nil && now.Before(*state.LockedUntil)
}

// Expire clears a lock (and the counter that produced it) once it has run out.
func (p LockoutPolicy) Expire(state LoginState, now time.Time) LoginState {
	if state.LockedUntil != nil && !now.Before(*state.LockedUntil) {
		return LoginState{}
	}
	return state
}

func (p LockoutPolicy) RegisterFailure(state LoginState, now time.Time) LoginState {
	next := p.Expire(state, now)
	next.FailedAttempts++
	if next.FailedAttempts >= p.Threshold && next.LockedUntil == nil {
		until := now.Add(p.Cooldown)
		next.LockedUntil = &until
	}
	return next
}
