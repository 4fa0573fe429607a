package domain

// Authority names. RoleAnonymous is a sentinel: an identity carrying it is
// authenticated but never authorized, and the gate rejects it outright.
const (
	RoleAdmin     = "ROLE_ADMIN"
	RoleUser      = "ROLE_USER"
	RoleAnonymous = "ROLE_ANONYMOUS"
)

// DefaultAuthorities is the role set granted on self-registration regardless
// of what the request asked for. Admin elevation via registration is ignored.
var DefaultAuthorities = []string{RoleUser}
