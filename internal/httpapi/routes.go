package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ludo-live/ludo-backend/internal/hub"
	"github.com/ludo-live/ludo-backend/internal/ws"
)

// SetupRoutes wires the liveness endpoint and the websocket upgrade.
func SetupRoutes(h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/", Liveness)
	r.Get("/ws", ws.Handler(h, log))
	return r
}

// Liveness answers plain text so load balancers have something to poke.
func Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ludo server is running\n"))
}
