package domain

import dErrors "campusvoice/pkg/domain-errors"

// Role is the session role attached to every identity and to everything it
// authors.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role received at a trust boundary.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleAdmin:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "role must be student or admin")
	}
}
