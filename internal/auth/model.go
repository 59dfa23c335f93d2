package auth

type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// User is a credential record. PasswordHash and CachedToken never leave the
// server.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	CachedToken  string `json:"-"`
}

// Identity is the authenticated username, taken from verified credentials or
// a valid token.
type Identity struct {
	Username string
}

// RoleSet is the set of roles a route accepts.
type RoleSet map[Role]struct{}

func Roles(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(r Role) bool {
	if r == "" {
		return false
	}
	_, ok := s[r]
	return ok
}
