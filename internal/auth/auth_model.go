package auth

import (
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
)

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150" example:"john_doe"`
	Email     string `json:"email" binding:"required,email" example:"john@example.com"`
	Password  string `json:"password" binding:"required,min=8,max=72" example:"password123"`
	FirstName string `json:"first_name" binding:"max=150" example:"John"`
	LastName  string `json:"last_name" binding:"max=150" example:"Doe"`
	// Public sign-up may only ask for player or manager; coaches come from
	// promotion and admins from other admins.
	Role string `json:"role" binding:"omitempty,oneof=player manager" example:"player"`
}

// CreateUserRequest is the admin variant of RegisterRequest: any role but
// coach, which needs a sport and goes through /admin/coaches.
type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	Role      string `json:"role" binding:"required,oneof=player manager admin"`
}

type LoginRequest struct {
	LoginIdentifier string `json:"login_identifier" binding:"required" example:"john@example.com"` // email or username
	Password        string `json:"password" binding:"required" example:"password123"`
}

type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      user.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// MeResponse is the caller with the profile tied to their role.
type MeResponse struct {
	User        UserResponse         `json:"user"`
	Kind        registry.ProfileKind `json:"kind"`
	Player      *registry.Player     `json:"player,omitempty"`
	Coach       *registry.Coach      `json:"coach,omitempty"`
	Manager     *registry.Manager    `json:"manager,omitempty"`
	RoleHistory []user.RoleHistory   `json:"role_history"`
}

func FilterUserRecord(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
