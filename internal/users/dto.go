package users

import (
	"time"

	"jobboard-backend/internal/shared/identity"
)

// UserResponse is the outward-facing representation of a user.
type UserResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Role      identity.Role `json:"role"`
	CreatedAt time.Time     `json:"createdAt"`
}

type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toResponse(u User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func toSessionResponse(s Session) SessionResponse {
	return SessionResponse{Token: s.Token, User: toResponse(s.User)}
}
