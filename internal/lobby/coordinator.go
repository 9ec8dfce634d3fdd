package lobby

import (
	"fmt"
	"sync"

	"gameroom/internal/game"
	"gameroom/internal/logger"
	"gameroom/internal/registry"
)

// Coordinator owns the session lifecycle: room IDs, game registries, user
// membership and the per-game tick drivers. All user-facing handlers
// serialize on a per-user mutex, so a client spamming create/join/leave
// cannot interleave its own transitions. Cross-user consistency comes from
// the lock order: user lock, then game lock, then leaf locks.
type Coordinator struct {
	factory *game.Factory
	emitter Emitter
	maxFPS  int

	pool    *registry.IDPool
	games   *registry.Map[int, game.Instance]
	active  *registry.Set[int]
	waiting map[game.Kind]*registry.Queue[int]

	users     *registry.Map[string, *sync.Mutex]
	userRooms *registry.Map[string, int]

	drivers sync.WaitGroup

	sweepStop chan struct{}
	stopOnce  sync.Once
}

func NewCoordinator(factory *game.Factory, emitter Emitter, maxGames, maxFPS int) *Coordinator {
	c := &Coordinator{
		factory:   factory,
		emitter:   emitter,
		maxFPS:    maxFPS,
		pool:      registry.NewIDPool(maxGames),
		games:     registry.NewMap[int, game.Instance](),
		active:    registry.NewSet[int](),
		waiting:   make(map[game.Kind]*registry.Queue[int]),
		users:     registry.NewMap[string, *sync.Mutex](),
		userRooms: registry.NewMap[string, int](),
		sweepStop: make(chan struct{}),
	}
	for _, kind := range factory.Kinds() {
		c.waiting[kind] = registry.NewQueue[int]()
	}
	return c
}

// Connect registers a session and allocates its lock. Idempotent.
func (c *Coordinator) Connect(userID string) {
	if _, ok := c.users.Get(userID); ok {
		return
	}
	c.users.Set(userID, &sync.Mutex{})
	logger.Info("user connected", "user_id", userID)
}

// Disconnect tears the session down: the user leaves whatever room it was
// in and its lock entry is removed. Safe to call for unknown users.
func (c *Coordinator) Disconnect(userID string) {
	mu, ok := c.users.Get(userID)
	if !ok {
		return
	}
	mu.Lock()
	c.leaveGame(userID)
	mu.Unlock()
	c.users.Delete(userID)
	logger.Info("user disconnected", "user_id", userID)
}

// withUser runs fn under the user's session lock. Unknown users (never
// connected, or already disconnected) are ignored. A panic escaping a
// handler is reported to the caller as server_error instead of killing the
// process.
func (c *Coordinator) withUser(userID string, fn func()) {
	mu, ok := c.users.Get(userID)
	if !ok {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panic", "user_id", userID, "panic", r)
			c.emitter.EmitUser(userID, EventServerError, map[string]any{
				"error": fmt.Sprintf("internal error: %v", r),
			})
		}
	}()
	fn()
}

// Create makes a fresh game of the requested kind and enrolls the caller.
// A user already in a room is ignored; creation failures (unknown kind,
// bad params, pool exhausted) come back as creation_failed.
func (c *Coordinator) Create(userID string, kind game.Kind, params game.Params) {
	c.withUser(userID, func() {
		if _, in := c.userRooms.Get(userID); in {
			return
		}
		g, err := c.createGame(kind, params)
		if err != nil {
			logger.Warn("game creation failed", "user_id", userID, "kind", kind, "error", err)
			c.emitter.EmitUser(userID, EventCreationFailed, errorPayload(err, nil))
			return
		}
		c.enroll(userID, g, true)
	})
}

// Join seats the caller in the oldest waiting game of the requested kind.
// With createIfNone set, an empty queue falls back to Create semantics;
// otherwise the caller is told to keep waiting.
func (c *Coordinator) Join(userID string, kind game.Kind, params game.Params, createIfNone bool) {
	c.withUser(userID, func() {
		if !c.factory.Known(kind) {
			return
		}
		if _, in := c.userRooms.Get(userID); in {
			return
		}
		g := c.popWaiting(kind)
		if g == nil {
			if !createIfNone {
				c.emitter.EmitUser(userID, EventWaiting, map[string]any{"in_game": false})
				return
			}
			created, err := c.createGame(kind, params)
			if err != nil {
				logger.Warn("game creation failed", "user_id", userID, "kind", kind, "error", err)
				c.emitter.EmitUser(userID, EventCreationFailed, errorPayload(err, nil))
				return
			}
			g = created
		}
		c.enroll(userID, g, false)
	})
}

// Leave removes the caller from its current room. The caller learns whether
// it left a running game (end_game) or just a lobby (end_lobby).
func (c *Coordinator) Leave(userID string) {
	c.withUser(userID, func() {
		if c.leaveGame(userID) {
			c.emitter.EmitUser(userID, EventEndGame, map[string]any{
				"status": game.StatusDone,
				"data":   map[string]any{},
			})
		} else {
			c.emitter.EmitUser(userID, EventEndLobby, map[string]any{})
		}
	})
}

// Action forwards a move into the caller's current game. This path takes no
// session or instance lock: enqueueing is internally synchronized, and a
// rejected action is simply dropped.
func (c *Coordinator) Action(userID string, act game.Action) {
	roomID, ok := c.userRooms.Get(userID)
	if !ok {
		return
	}
	g, ok := c.games.Get(roomID)
	if !ok {
		return
	}
	if _, err := g.EnqueueAction(userID, act); err != nil {
		logger.Warn("action rejected", "user_id", userID, "game_id", roomID, "error", err)
	}
}

// createGame claims a room ID and builds the instance. The ID is handed
// back on construction failure, so a rejected create never leaks capacity.
func (c *Coordinator) createGame(kind game.Kind, params game.Params) (game.Instance, error) {
	id, err := c.pool.Acquire()
	if err != nil {
		return nil, err
	}
	g, err := c.factory.Create(kind, id, params)
	if err != nil {
		if relErr := c.pool.Release(id); relErr != nil {
			logger.Error("id release after failed create", "game_id", id, "error", relErr)
		}
		return nil, err
	}
	c.games.Set(id, g)
	return g, nil
}

// popWaiting returns the oldest joinable game of the kind. Queue entries
// whose games already ended (the ID is back in the pool) are discarded on
// the way; the queue itself is never rewritten in place.
func (c *Coordinator) popWaiting(kind game.Kind) game.Instance {
	q, ok := c.waiting[kind]
	if !ok {
		return nil
	}
	for {
		id, ok := q.TryPop()
		if !ok {
			return nil
		}
		if c.pool.Free(id) {
			continue // stale entry, game already cleaned up
		}
		if g, found := c.games.Get(id); found {
			return g
		}
	}
}

// enroll seats (or, for a full game the user created into, spectates) the
// user and either starts the game or parks it on the waiting queue.
func (c *Coordinator) enroll(userID string, g game.Instance, creating bool) {
	g.Lock()
	defer g.Unlock()

	spectating := false
	err := game.Call(g, "enroll", func() error {
		if creating && g.IsFull() {
			spectating = true
			return g.AddSpectator(userID)
		}
		return g.AddPlayer(userID)
	})
	if err != nil {
		c.emitter.EmitRoom(g.ID(), EventGameError, errorPayload(err, nil))
		c.cleanupGameLocked(g)
		return
	}

	c.emitter.JoinRoom(userID, g.ID())
	c.userRooms.Set(userID, g.ID())

	if !g.IsReady() {
		c.waiting[g.Kind()].Push(g.ID())
		c.emitter.EmitRoom(g.ID(), EventWaiting, map[string]any{"in_game": true})
		return
	}

	if err := game.Call(g, "activate", g.Activate); err != nil {
		c.emitter.EmitRoom(g.ID(), EventGameError, errorPayload(err, nil))
		c.cleanupGameLocked(g)
		return
	}
	c.active.Add(g.ID())
	c.emitter.EmitRoom(g.ID(), EventStartGame, map[string]any{
		"spectating": spectating,
		"start_info": g.ToJSON(),
	})
	gamesStarted.WithLabelValues(string(g.Kind())).Inc()
	logger.Info("game started", "game_id", g.ID(), "kind", g.Kind(), "players", g.Players())

	c.drivers.Add(1)
	go c.runGame(g)
}

// leaveGame detaches the user from its room and resolves the game's next
// state. Reports whether the game was active when the user left; a user in
// no room at all reports false.
func (c *Coordinator) leaveGame(userID string) bool {
	roomID, ok := c.userRooms.Get(userID)
	if !ok {
		return false
	}
	g, ok := c.games.Get(roomID)
	if !ok {
		c.userRooms.Delete(userID)
		return false
	}

	g.Lock()
	defer g.Unlock()

	wasActive := c.active.Has(g.ID())
	err := game.Call(g, "leave", func() error {
		c.emitter.LeaveRoom(userID, g.ID())
		c.userRooms.Delete(userID)
		if !g.RemovePlayer(userID) {
			g.RemoveSpectator(userID)
		}

		switch {
		case wasActive && g.IsEmpty():
			// Driver sees the inactive status and runs the cleanup.
			g.Deactivate()
		case g.IsEmpty():
			c.cleanupGameLocked(g)
		case !wasActive:
			c.emitter.EmitRoom(g.ID(), EventWaiting, map[string]any{"in_game": true})
		case g.IsReady():
			// Enough participants remain; the game plays on.
		default:
			g.Deactivate()
		}
		return nil
	})
	if err != nil {
		c.emitter.EmitRoom(g.ID(), EventGameError, errorPayload(err, nil))
		c.cleanupGameLocked(g)
		return false
	}
	return wasActive
}

// cleanupGameLocked retires the game: room ID back to the pool, every
// participant's room mapping cleared, the transport room closed, registry
// entries removed. Caller holds the instance lock. A second cleanup of the
// same game is a consistency bug and is logged loudly, with the registries
// left untouched.
func (c *Coordinator) cleanupGameLocked(g game.Instance) {
	if err := c.pool.Release(g.ID()); err != nil {
		logger.Error("game cleanup", "game_id", g.ID(), "error", err)
		return
	}
	for _, id := range g.Players() {
		c.userRooms.Delete(id)
	}
	for _, id := range g.Spectators() {
		c.userRooms.Delete(id)
	}
	c.emitter.CloseRoom(g.ID())
	c.games.Delete(g.ID())
	c.active.Remove(g.ID())
	if g.IsActive() {
		g.Deactivate()
	}
	logger.Info("game cleaned up", "game_id", g.ID(), "kind", g.Kind())
}

// Shutdown broadcasts a final end_game to every room, deactivates all
// games and waits for the tick drivers to drain. Called once, during
// server teardown.
func (c *Coordinator) Shutdown() {
	c.stopOnce.Do(func() { close(c.sweepStop) })

	c.games.Range(func(id int, g game.Instance) bool {
		g.Lock()
		data := map[string]any{}
		if err := game.Call(g, "data", func() error {
			data = g.Data()
			return nil
		}); err != nil {
			logger.Warn("final data collection failed", "game_id", id, "error", err)
		}
		c.emitter.EmitRoom(id, EventEndGame, map[string]any{
			"status": game.StatusInactive,
			"data":   data,
		})
		if g.IsActive() {
			g.Deactivate()
		}
		g.Unlock()
		return true
	})
	c.drivers.Wait()
	logger.Info("coordinator shut down")
}

// DebugSnapshot reports the full session state for the debug endpoint.
// Games are serialized under their own locks; the snapshot is not a single
// atomic cut across registries.
func (c *Coordinator) DebugSnapshot() map[string]any {
	activeGames := make([]map[string]any, 0)
	for _, id := range c.active.Items() {
		g, ok := c.games.Get(id)
		if !ok {
			continue
		}
		g.Lock()
		state := g.ToJSON()
		g.Unlock()
		activeGames = append(activeGames, map[string]any{"id": id, "state": state})
	}

	waitingGames := make(map[string]any, len(c.waiting))
	for kind, q := range c.waiting {
		entries := make([]map[string]any, 0)
		for _, id := range q.Items() {
			entry := map[string]any{"id": id}
			if !c.pool.Free(id) {
				if g, ok := c.games.Get(id); ok {
					g.Lock()
					entry["state"] = g.ToJSON()
					g.Unlock()
				}
			} else {
				entry["stale"] = true
			}
			entries = append(entries, entry)
		}
		waitingGames[string(kind)] = entries
	}

	users := make(map[string]any)
	for _, id := range c.users.Keys() {
		if roomID, ok := c.userRooms.Get(id); ok {
			users[id] = roomID
		} else {
			users[id] = nil
		}
	}

	return map[string]any{
		"active_games":  activeGames,
		"waiting_games": waitingGames,
		"all_games":     c.games.Keys(),
		"users":         users,
		"free_ids":      c.pool.FreeIDs(),
		"free_map":      c.pool.FreeMap(),
	}
}
