// Package sessionjwt emite y verifica los JWT de sesión first-party (HS256).
//
// Son cookies de la web de Track, NO access tokens OAuth: solo sirven para que
// un usuario ya logueado no re-tipee credenciales en la pantalla de consent.
package sessionjwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("invalid session token")

type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func New(secret, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

type claims struct {
	jwt.RegisteredClaims
}

// Mint firma un token de sesión para userID.
func (i *Issuer) Mint(userID string) (string, error) {
	if len(i.secret) == 0 {
		return "", fmt.Errorf("sessionjwt: secret vacío")
	}
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

// Verify valida firma y expiración; retorna el userID (claim sub).
func (i *Issuer) Verify(token string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrInvalidSession
	}
	var c claims
	tk, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithExpirationRequired())
	if err != nil || !tk.Valid || c.Subject == "" {
		return "", ErrInvalidSession
	}
	return c.Subject, nil
}
