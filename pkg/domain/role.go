package domain

import dErrors "placement/pkg/domain-errors"

// Role is the caller's role as asserted by the identity collaborator.
// Services use it to refuse admin-only and owner-only operations; it is never
// read from ambient global state, only from the request context.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleStudent, RoleAdmin:
		return Role(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
}
