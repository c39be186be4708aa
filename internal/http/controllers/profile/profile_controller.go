// Package profile expone la identidad del usuario autenticado.
package profile

import (
	"net/http"

	"github.com/damont/track/internal/domain/repository"
	apperrors "github.com/damont/track/internal/http/errors"
	"github.com/damont/track/internal/http/helpers"
	"github.com/damont/track/internal/http/middlewares"
)

// Response es el body de GET /profile.
type Response struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Scopes      []string `json:"scopes"`
}

type Controller struct{}

func NewController() *Controller {
	return &Controller{}
}

// Profile maneja GET /profile. Asume RequireAuth aguas arriba.
func (c *Controller) Profile(w http.ResponseWriter, r *http.Request) {
	p := middlewares.GetPrincipal(r.Context())
	if p == nil || p.User == nil {
		apperrors.WriteError(w, apperrors.ErrUnauthorized)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, Response{
		UserID:      p.User.ID,
		Email:       p.User.Email,
		DisplayName: p.User.DisplayName,
		Scopes:      scopeStrings(p.Scopes),
	})
}

func scopeStrings(scopes []repository.Scope) []string {
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		out = append(out, string(s))
	}
	return out
}
