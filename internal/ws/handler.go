package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gameroom/internal/logger"
)

// Handler upgrades the request and starts the session pumps. Each
// connection is its own anonymous session, identified by a fresh UUID.
func Handler(hub *Hub, session Session, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "remote", c.ClientIP(), "error", err)
			return
		}
		client := newClient(uuid.NewString(), conn, hub, session)
		go client.run()
	}
}
