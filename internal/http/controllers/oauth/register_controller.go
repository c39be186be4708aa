// Package oauth contiene los controllers HTTP del core OAuth2.
package oauth

import (
	"net/http"

	dto "github.com/damont/track/internal/http/dto/oauth"
	httperrors "github.com/damont/track/internal/http/errors"
	"github.com/damont/track/internal/http/helpers"
	svc "github.com/damont/track/internal/http/services/oauth"
	"github.com/damont/track/internal/observability/logger"
)

// RegisterController handles POST /oauth/register.
type RegisterController struct {
	service svc.RegisterService
}

func NewRegisterController(s svc.RegisterService) *RegisterController {
	return &RegisterController{service: s}
}

// Register creates an OAuth client. The client secret is returned exactly
// once; only its hash is stored.
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.register"))

	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Register(ctx, svc.RegisterRequest{
		Name:         req.Name,
		Description:  req.Description,
		RedirectURIs: req.RedirectURIs,
		Scope:        req.Scope,
	})
	if err != nil {
		log.Warn("client registration rejected", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.RegisterResponse{
		ClientID:     resp.ClientID,
		ClientSecret: resp.ClientSecret,
		Name:         resp.Name,
		Description:  resp.Description,
		RedirectURIs: resp.RedirectURIs,
		Scope:        resp.Scope,
	})
}
