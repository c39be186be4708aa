package middlewares

import "net/http"

// Middleware envuelve un http.Handler con comportamiento adicional.
type Middleware func(http.Handler) http.Handler

// Chain arma la cadena de middlewares sobre h. El orden de la lista es el
// orden en que interceptan el request: Chain(h, a, b) atiende como a(b(h)),
// con a lo más afuera.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	wrapped := h
	for i := range mws {
		wrapped = mws[len(mws)-1-i](wrapped)
	}
	return wrapped
}
