package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Age          int    `json:"age"`
	PasswordHash string `json:"-"`
	CartID       string `json:"cart_id,omitempty"`
	Role         string `json:"role"`
}

// SessionUser is the subset of User kept in the session cookie.
type SessionUser struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Age       int
	Role      string
	CartID    string
}

func (u User) SessionUser() SessionUser {
	return SessionUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Age:       u.Age,
		Role:      u.Role,
		CartID:    u.CartID,
	}
}
