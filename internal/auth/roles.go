package auth

import (
	"errors"

	"github.com/samber/lo"
)

var ErrForbidden = errors.New("forbidden")

const (
	RoleAdmin   = "admin"
	RoleTailor  = "tailor"
	RoleCashier = "cashier"
	RoleUser    = "user"
)

var StaffRoles = []string{RoleAdmin, RoleTailor, RoleCashier}

// Authorize is a strict allow-list check on the role claim.
func Authorize(role string, allowed ...string) error {
	if role == "" || !lo.Contains(allowed, role) {
		return ErrForbidden
	}
	return nil
}

// NormalizeStaffRole maps anything outside the staff roles to tailor.
func NormalizeStaffRole(role string) string {
	if lo.Contains(StaffRoles, role) {
		return role
	}
	return RoleTailor
}
