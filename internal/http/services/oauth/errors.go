// Package oauth implementa los services del core OAuth2 de Track:
// registro de clientes, authorize, token exchange, validación y revocación.
package oauth

import "net/http"

// Error es un error de protocolo OAuth2 (RFC 6749 §5.2). El controller lo
// serializa como {"error": Code, "error_description": Description}.
type Error struct {
	Code        string
	Description string
	Status      int
}

func (e *Error) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

func invalidRequest(desc string) *Error {
	return &Error{Code: "invalid_request", Description: desc, Status: http.StatusBadRequest}
}

func invalidClient(desc string) *Error {
	return &Error{Code: "invalid_client", Description: desc, Status: http.StatusUnauthorized}
}

func invalidGrant(desc string) *Error {
	return &Error{Code: "invalid_grant", Description: desc, Status: http.StatusBadRequest}
}

func unsupportedGrantType() *Error {
	return &Error{Code: "unsupported_grant_type", Description: "Grant type not supported", Status: http.StatusBadRequest}
}

func serverError() *Error {
	return &Error{Code: "server_error", Description: "An unexpected error occurred", Status: http.StatusInternalServerError}
}
