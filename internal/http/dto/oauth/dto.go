// Package oauth contiene los DTOs JSON de los endpoints OAuth.
package oauth

// RegisterRequest es el body de POST /oauth/register.
type RegisterRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	RedirectURIs []string `json:"redirect_uris"`
	Scope        string   `json:"scope,omitempty"`
}

// RegisterResponse devuelve el secret EN CLARO, una única vez.
type RegisterResponse struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	RedirectURIs []string `json:"redirect_uris"`
	Scope        string   `json:"scope"`
}

// RevokeRequest es el body JSON opcional de POST /oauth/revoke.
type RevokeRequest struct {
	Token string `json:"token"`
}

// RevokeResponse se devuelve SIEMPRE con 200, exista el token o no.
type RevokeResponse struct {
	Message string `json:"message"`
}
