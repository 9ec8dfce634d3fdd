package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"gameroom/internal/config"
	"gameroom/internal/game"
	"gameroom/internal/http/handlers"
	"gameroom/internal/http/middleware"
	"gameroom/internal/lobby"
	"gameroom/internal/ws"
)

// RegisterRoutes wires the HTTP surface: discovery, health probes, the
// rate-limited debug dump and the websocket upgrade.
func RegisterRoutes(r *gin.Engine, coord *lobby.Coordinator, hub *ws.Hub, factory *game.Factory, cfg *config.Config, version string) {
	healthHandler := handlers.NewHealthHandler(version)
	infoHandler := handlers.NewInfoHandler(factory, cfg)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/", infoHandler.Index)

	// Debug serializes every game in the registry; keep it cheap to abuse.
	r.GET("/debug", middleware.SimpleRateLimit(10, time.Minute), handlers.Debug(coord))

	// WebSocket gameplay endpoint
	r.GET("/ws", ws.Handler(hub, coord, cfg.AllowedOrigin))
}
