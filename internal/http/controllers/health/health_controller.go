// Package health contiene los controllers de health check.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/damont/track/internal/http/helpers"
)

// Pinger comprueba la conectividad con el storage.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Controller struct {
	store Pinger
}

func NewController(store Pinger) *Controller {
	return &Controller{store: store}
}

// Health maneja GET /health. Liveness: responde ok si el proceso atiende.
func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready maneja GET /ready. Readiness: exige storage alcanzable.
func (c *Controller) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := c.store.Ping(ctx); err != nil {
		helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"detail": "storage unreachable",
		})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
