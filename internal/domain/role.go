package domain

import "strings"

type Role string

const (
	RoleUser             Role = "USER"
	RoleModerator        Role = "MODERATOR"
	RoleModeratorManager Role = "MODERATOR_MANAGER"
	RoleAdmin            Role = "ADMIN"
)

var roleLevels = map[Role]int{
	RoleUser:             1,
	RoleModerator:        2,
	RoleModeratorManager: 3,
	RoleAdmin:            4,
}

// LandlordValidators may decide on pending landlord accounts. Membership is exact,
// not hierarchical.
var LandlordValidators = []Role{RoleAdmin, RoleModeratorManager}

// Level returns the rank of the role; unknown roles rank 0.
func (r Role) Level() int {
	return roleLevels[r]
}

func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Satisfies reports whether r dominates at least one of the required roles.
// An empty requirement is always satisfied.
func (r Role) Satisfies(required ...Role) bool {
	if len(required) == 0 {
		return true
	}
	level := r.Level()
	for _, req := range required {
		if level >= req.Level() {
			return true
		}
	}
	return false
}

// InAllowList reports exact membership, ignoring the hierarchy.
func (r Role) InAllowList(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Authorize applies the standard guard: the account must exist, be approved and
// satisfy the role hierarchy.
func Authorize(actor *User, required ...Role) error {
	if actor == nil {
		return Unauthorized("authentication required")
	}
	if actor.AccountStatus != AccountStatusApproved {
		return Forbidden("account is not approved")
	}
	if !actor.Role.Satisfies(required...) {
		return Forbidden("insufficient role")
	}
	return nil
}

// AuthorizeAllowList is Authorize with exact role membership instead of the hierarchy.
func AuthorizeAllowList(actor *User, allowed ...Role) error {
	if actor == nil {
		return Unauthorized("authentication required")
	}
	if actor.AccountStatus != AccountStatusApproved {
		return Forbidden("account is not approved")
	}
	if !actor.Role.InAllowList(allowed...) {
		return Forbidden("insufficient role")
	}
	return nil
}
