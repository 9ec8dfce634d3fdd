package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gameroom/internal/config"
	"gameroom/internal/game"
)

// InfoHandler serves server discovery: which kinds exist, which layouts
// and agents are available, and the limits clients should respect.
type InfoHandler struct {
	factory *game.Factory
	cfg     *config.Config
}

func NewInfoHandler(factory *game.Factory, cfg *config.Config) *InfoHandler {
	return &InfoHandler{factory: factory, cfg: cfg}
}

func (h *InfoHandler) Index(c *gin.Context) {
	kinds := make([]string, 0)
	for _, k := range h.factory.Kinds() {
		kinds = append(kinds, string(k))
	}

	layoutAgents := make(map[string][]string, len(h.cfg.Layouts))
	for _, layout := range h.cfg.Layouts {
		layoutAgents[layout] = h.factory.Policies().AgentNames(layout)
	}

	c.JSON(http.StatusOK, gin.H{
		"game_kinds":       kinds,
		"layouts":          h.cfg.Layouts,
		"layout_to_agents": layoutAgents,
		"limits": gin.H{
			"max_games":           h.cfg.MaxGames,
			"max_fps":             h.cfg.MaxFPS,
			"max_game_length_sec": int(h.cfg.MaxGameLength / time.Second),
		},
	})
}
