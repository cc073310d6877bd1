package domain

type UserID int64

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleHead    Role = "head"
	RoleManager Role = "manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHead, RoleManager:
		return true
	default:
		return false
	}
}

type User struct {
	ID        UserID    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
}

type UserCreate struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type UserUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *Role   `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Password *string `json:"password,omitempty"`
}
