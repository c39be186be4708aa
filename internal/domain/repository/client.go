package repository

import (
	"context"
	"time"
)

// Client es una aplicación OAuth2 registrada.
//
// SecretHash es sha256 base64url del client secret; el secret en claro solo
// existe en la respuesta del registro.
type Client struct {
	ID            string
	SecretHash    string
	Name          string
	Description   string
	RedirectURIs  []string
	AllowedScopes []Scope

	// Active en false es un soft-delete terminal: el cliente deja de poder
	// autorizar y canjear, sin borrado físico.
	Active bool

	// FirstParty marca apps propias que pueden saltarse la pantalla de
	// consent. Es una decisión de presentación, acá solo se persiste.
	FirstParty bool

	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRedirectURI verifica pertenencia por igualdad exacta de strings.
// Nada de prefijos ni wildcards.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// ClientRepository persiste clientes OAuth.
type ClientRepository interface {
	// Create inserta un cliente. ErrConflict si el ID ya existe.
	Create(ctx context.Context, c *Client) error

	// GetByID retorna el cliente o ErrNotFound.
	GetByID(ctx context.Context, id string) (*Client, error)
}
