package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAirline  Role = "airline"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAirline, RoleAdmin:
		return true
	}
	return false
}

// Subject is the authenticated caller as extracted from a verified token.
type Subject struct {
	UserID int64
	Role   Role
}
