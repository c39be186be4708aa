package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Tamaños en bytes de entropía de los secretos opacos.
const (
	ClientIDBytes     = 16
	ClientSecretBytes = 32
	CodeBytes         = 32
	AccessTokenBytes  = 32
	RefreshTokenBytes = 48
)

// ClientIDPrefix identifica los client IDs emitidos por Track.
const ClientIDPrefix = "track_"

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateClientID genera un client ID con el prefijo track_.
func GenerateClientID() (string, error) {
	s, err := GenerateOpaqueToken(ClientIDBytes)
	if err != nil {
		return "", err
	}
	return ClientIDPrefix + s, nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding (para guardar en DB).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// ConstantTimeEquals compara dos strings en tiempo constante.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
