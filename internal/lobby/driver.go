package lobby

import (
	"time"

	"gameroom/internal/game"
	"gameroom/internal/logger"
)

// runGame is the per-game tick driver. One goroutine per active game; it
// holds the instance lock only for the tick and the state snapshot, never
// across the broadcast or the inter-frame sleep. Exits when the game
// reports done or inactive, or on the first game error.
func (c *Coordinator) runGame(g game.Instance) {
	defer c.drivers.Done()

	fps := g.FPS()
	if c.maxFPS > 0 && fps > c.maxFPS {
		fps = c.maxFPS
	}
	if fps <= 0 {
		fps = 1
	}
	frame := time.Second / time.Duration(fps)

	status := game.StatusActive
	for status != game.StatusDone && status != game.StatusInactive {
		err := game.Call(g, "tick", func() error {
			g.Lock()
			defer g.Unlock()
			var tickErr error
			status, tickErr = g.Tick()
			return tickErr
		})
		if err != nil {
			c.failGame(g, err)
			return
		}
		ticksTotal.WithLabelValues(string(g.Kind())).Inc()

		switch status {
		case game.StatusReset:
			g.Lock()
			payload := map[string]any{
				"state":   g.ToJSON(),
				"timeout": g.ResetTimeout().Milliseconds(),
				"data":    g.Data(),
			}
			g.Unlock()
			c.emitter.EmitRoom(g.ID(), EventResetGame, payload)
			time.Sleep(g.ResetTimeout())
		case game.StatusInactive:
			// Deactivation does not change game state; nothing to show.
		default:
			g.Lock()
			state := g.State()
			g.Unlock()
			c.emitter.EmitRoom(g.ID(), EventStatePong, map[string]any{"state": state})
		}
		time.Sleep(frame)
	}

	g.Lock()
	defer g.Unlock()
	c.emitter.EmitRoom(g.ID(), EventEndGame, map[string]any{
		"status": status,
		"data":   g.Data(),
	})
	if status != game.StatusInactive && g.IsActive() {
		g.Deactivate()
	}
	gamesFinished.WithLabelValues(string(g.Kind()), string(status)).Inc()
	c.cleanupGameLocked(g)
}

// failGame ends a game whose own logic raised. Game errors take the room
// down cleanly; anything else is an infrastructure fault, reported without
// touching the registries so the state stays inspectable.
func (c *Coordinator) failGame(g game.Instance, err error) {
	logger.Error("game tick failed", "game_id", g.ID(), "kind", g.Kind(), "error", err)
	if !game.IsGameError(err) {
		c.emitter.EmitRoom(g.ID(), EventServerError, errorPayload(err, nil))
		return
	}

	g.Lock()
	defer g.Unlock()
	data := map[string]any{}
	if dataErr := game.Call(g, "data", func() error {
		data = g.Data()
		return nil
	}); dataErr != nil {
		logger.Warn("data collection after game error", "game_id", g.ID(), "error", dataErr)
	}
	c.emitter.EmitRoom(g.ID(), EventGameError, errorPayload(err, data))
	if g.IsActive() {
		g.Deactivate()
	}
	gamesFinished.WithLabelValues(string(g.Kind()), string(game.StatusError)).Inc()
	c.cleanupGameLocked(g)
}
