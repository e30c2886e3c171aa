package domain

import "slices"

// Role is an application role carried in the caller's token.
type Role string

const (
	RoleEmployer  Role = "employer"
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
	RoleAdmin     Role = "admin"
)

// Caller is the authenticated identity an operation runs on behalf of.
// Authentication happens upstream; services trust these fields.
type Caller struct {
	ID    string
	Email string
	Roles []Role
}

// HasRole reports whether the caller carries any of the given roles.
func (c Caller) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if slices.Contains(c.Roles, r) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller is an administrator.
func (c Caller) IsAdmin() bool { return c.HasRole(RoleAdmin) }

// ParseRoles keeps the recognised roles from raw token claims.
func ParseRoles(raw []string) []Role {
	out := make([]Role, 0, len(raw))
	for _, s := range raw {
		switch r := Role(s); r {
		case RoleEmployer, RoleRecruiter, RoleCandidate, RoleAdmin:
			out = append(out, r)
		}
	}
	return out
}

// TokenIssuer issues bearer tokens for a user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string) (string, error)
}

// TokenVerifier verifies a bearer token and returns the caller it identifies.
type TokenVerifier interface {
	Verify(token string) (Caller, error)
}
