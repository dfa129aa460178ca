package model

// Identity is the validated caller handed to the engine by the identity
// collaborator.  The engine performs no authentication itself.
//
// Fields:
//
//	UserID – stable user identifier (JWT subject).
//	Email  – user's email; tickets are listed by it.
//	Role   – role claim (CUSTOMER or ADMIN).
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Role names understood by the HTTP layer.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// IsAdmin reports whether the identity carries the ADMIN role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
