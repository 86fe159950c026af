package domain

// Application role codes.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Actor identifies the caller of a service method: the authenticated user and
// the roles attached to their session. Role checks are plain set intersection,
// not inheritance.
type Actor struct {
	UserID string
	Roles  []string
}

// HasAnyRole reports whether the actor holds at least one of the given roles.
func (a Actor) HasAnyRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range a.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
