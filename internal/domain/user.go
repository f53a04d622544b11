package domain

import (
	"context"
	"time"
)

// User is a registered user; the core only ever reads users.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRepository is the user lookup collaborator.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}
