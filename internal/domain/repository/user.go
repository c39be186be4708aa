package repository

import (
	"context"
	"time"
)

// User es el principal que aprueba el consent y dueño de los recursos.
// PasswordHash es argon2id en formato PHC.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	Active       bool
	CreatedAt    time.Time
}

// UserRepository persiste usuarios.
type UserRepository interface {
	// Create inserta un usuario. ErrConflict si el email ya existe.
	Create(ctx context.Context, u *User) error

	// GetByID retorna el usuario o ErrNotFound.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retorna el usuario o ErrNotFound. Email case-insensitive.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
