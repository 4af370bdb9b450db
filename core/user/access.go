package user

import "github.com/luct/reports/core"

// Identity is the authenticated caller, as carried by an identity token.
type Identity struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// HasAnyRole reports whether the identity holds one of roles.
// An empty role set allows any authenticated identity.
func (id Identity) HasAnyRole(roles ...Role) bool {
	if len(roles) == 0 {
		return id.UserID != ""
	}
	for _, role := range roles {
		if id.Role == role {
			return true
		}
	}
	return false
}

// Require returns core.ErrForbidden unless the identity holds one of roles.
func (id Identity) Require(roles ...Role) error {
	if id.UserID == "" || !id.HasAnyRole(roles...) {
		return core.ErrForbidden
	}
	return nil
}

func (id Identity) Is(role Role) bool {
	return id.Role == role
}
