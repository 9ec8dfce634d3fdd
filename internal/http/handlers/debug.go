package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gameroom/internal/lobby"
)

// Debug dumps the coordinator's full session state. Handy when a room
// looks stuck; rate-limited at the route level.
func Debug(coord *lobby.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, coord.DebugSnapshot())
	}
}
