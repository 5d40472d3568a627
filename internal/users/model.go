package users

import (
	"time"

	"jobboard-backend/internal/shared/identity"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         identity.Role
	GoogleSub    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the public slice of a user joined into other resources.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (u User) Identity() identity.Identity {
	return identity.Identity{UserID: u.ID, Role: u.Role}
}
