package oauth

import (
	"encoding/json"
	"net/http"
	"strings"

	dto "github.com/damont/track/internal/http/dto/oauth"
	apperrors "github.com/damont/track/internal/http/errors"
	"github.com/damont/track/internal/http/helpers"
	svc "github.com/damont/track/internal/http/services/oauth"
	"github.com/damont/track/internal/observability/logger"
)

type RevokeController struct {
	service svc.RevokeService
}

func NewRevokeController(s svc.RevokeService) *RevokeController {
	return &RevokeController{service: s}
}

// Revoke maneja POST /oauth/revoke. Acepta el token como form value,
// body JSON o Bearer header, y responde 200 siempre: revelar si el
// token existía es un canal lateral (RFC 7009 §2.2).
func (c *RevokeController) Revoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apperrors.WriteError(w, apperrors.ErrMethodNotAllowed)
		return
	}

	token := c.extractToken(r)
	if err := c.service.Revoke(r.Context(), token); err != nil {
		logger.From(r.Context()).Error("token revocation failed", logger.Err(err))
		apperrors.WriteError(w, apperrors.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.RevokeResponse{Message: "Token revoked"})
}

func (c *RevokeController) extractToken(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var req dto.RevokeRequest
		if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10)).Decode(&req); err == nil && req.Token != "" {
			return req.Token
		}
	} else {
		r.Body = http.MaxBytesReader(nil, r.Body, 64<<10)
		if err := r.ParseForm(); err == nil {
			if t := r.PostFormValue("token"); t != "" {
				return t
			}
		}
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
