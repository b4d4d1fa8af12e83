package domain

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleKitchen Role = "KITCHEN"
	RoleClient  Role = "CLIENT"
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the flattened payload of the login endpoint.
type LoginResult struct {
	Token    string `json:"token"`
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}

// User projects the login payload into the persisted user shape.
func (r LoginResult) User() User {
	return User{ID: r.ID, Username: r.Username, Email: r.Email, Role: r.Role}
}
