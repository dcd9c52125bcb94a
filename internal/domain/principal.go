package domain

// Role is the coarse capability level supplied by the identity collaborator.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Principal is the authenticated caller, threaded explicitly into every
// orchestrator call. The core trusts the identity collaborator and does not
// re-verify credentials.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal has administrative capability.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccessAccount reports whether the principal owns the account or has
// administrative capability.
func (p Principal) CanAccessAccount(a *Account) bool {
	return p.IsAdmin() || p.UserID == a.UserID
}
