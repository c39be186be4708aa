package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (ej: duplicado, constraint violation).
	ErrConflict = errors.New("conflict")

	// ErrCodeUsed indica que el authorization code ya fue canjeado.
	ErrCodeUsed = errors.New("authorization code already used")

	// ErrExpired indica que el code o token ya expiró.
	ErrExpired = errors.New("expired")

	// ErrRevoked indica que el token fue revocado.
	ErrRevoked = errors.New("revoked")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsCodeUsed verifica si el error es ErrCodeUsed.
func IsCodeUsed(err error) bool {
	return errors.Is(err, ErrCodeUsed)
}

// IsExpired verifica si el error es ErrExpired.
func IsExpired(err error) bool {
	return errors.Is(err, ErrExpired)
}

// IsRevoked verifica si el error es ErrRevoked.
func IsRevoked(err error) bool {
	return errors.Is(err, ErrRevoked)
}
