package middlewares

import (
	"context"

	oauthsvc "github.com/damont/track/internal/http/services/oauth"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyPrincipal
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID retorna el request ID inyectado por WithRequestID, o "".
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

func setPrincipal(ctx context.Context, p *oauthsvc.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// GetPrincipal retorna el principal autenticado por RequireAuth, o nil.
func GetPrincipal(ctx context.Context) *oauthsvc.Principal {
	if v, ok := ctx.Value(ctxKeyPrincipal).(*oauthsvc.Principal); ok {
		return v
	}
	return nil
}
