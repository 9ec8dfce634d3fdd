package lobby

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gameroom/internal/game"
)

func TestDriverRunsGameToCompletion(t *testing.T) {
	c, em := newTestCoordinator(4)
	c.Connect("alice")
	c.Create("alice", game.KindHarvest, game.Params{
		"playerOne": "stay",
		"game_time": 0.2,
		"layouts":   []string{"corridor"},
	})
	roomID, ok := c.userRooms.Get("alice")
	require.True(t, ok)
	em.waitForRoomEvent(t, roomID, EventStartGame, time.Second)
	em.waitForRoomEvent(t, roomID, EventStatePong, time.Second)
	em.waitForRoomEvent(t, roomID, EventEndGame, 3*time.Second)

	last, found := em.lastRoomEvent(roomID)
	require.True(t, found)
	require.Equal(t, EventEndGame, last.event)
	payload := last.data.(map[string]any)
	require.Equal(t, game.StatusDone, payload["status"])

	deadline := time.Now().Add(2 * time.Second)
	for c.games.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Len(t, c.pool.FreeIDs(), 4)
	_, inRoom := c.userRooms.Get("alice")
	require.False(t, inRoom)

	c.Shutdown()
}

func TestDriverBroadcastsWinningState(t *testing.T) {
	c, em := newTestCoordinator(4)
	c.Connect("alice")
	c.Create("alice", game.KindConnectFour, game.Params{
		"playerOne": "stack",
		"num_games": 1,
	})
	roomID, ok := c.userRooms.Get("alice")
	require.True(t, ok)
	em.waitForRoomEvent(t, roomID, EventStartGame, time.Second)

	// The NPC stacks column 0; alice stacks column 6 and wins first.
	stop := make(chan struct{})
	go func() {
		tick := time.NewTicker(20 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				c.Action("alice", 6)
			}
		}
	}()
	em.waitForRoomEvent(t, roomID, EventEndGame, 5*time.Second)
	close(stop)

	// The tick that completed four in a row must still be broadcast: the
	// last state_pong before end_game carries the full winning column.
	var lastState map[string]any
	for _, e := range em.roomEventRecords(roomID) {
		if e.event == EventEndGame {
			break
		}
		if e.event == EventStatePong {
			lastState = e.data.(map[string]any)["state"].(map[string]any)
		}
	}
	require.NotNil(t, lastState)
	board := lastState["board"].([]int)
	marks := 0
	for _, cell := range board {
		if cell == 1 {
			marks++
		}
	}
	require.Equal(t, 4, marks, "final board must show all four winning pieces")

	c.Shutdown()
}

func TestDriverGameErrorTearsRoomDown(t *testing.T) {
	c, em := newTestCoordinator(4)
	c.Connect("alice")

	// A game whose tick raises cannot be built through the factory, so it is
	// planted into the registries by hand, the way enroll would.
	id, err := c.pool.Acquire()
	require.NoError(t, err)
	g := game.NewBuggyGame(id, game.Params{"buggy_tick": true}, game.Settings{
		MaxFPS:        30,
		MaxGameLength: 600 * time.Second,
	})
	require.NoError(t, g.AddPlayer("alice"))
	require.NoError(t, g.AddPlayer("bob"))
	c.games.Set(id, g)
	c.userRooms.Set("alice", id)
	require.NoError(t, g.Activate())
	c.active.Add(id)

	c.drivers.Add(1)
	go c.runGame(g)

	em.waitForRoomEvent(t, id, EventGameError, 2*time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for c.games.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 0, c.games.Len())
	require.Len(t, c.pool.FreeIDs(), 4)
	require.False(t, g.IsActive())
	require.False(t, c.active.Has(id))
	_, inRoom := c.userRooms.Get("alice")
	require.False(t, inRoom)

	c.Shutdown()
}

func TestDriverBroadcastsSeriesReset(t *testing.T) {
	c, em := newTestCoordinator(4)
	c.Connect("alice")
	c.Create("alice", game.KindConnectFour, game.Params{
		"playerOne":     "stack",
		"num_games":     2,
		"reset_timeout": 0.2,
	})
	roomID, ok := c.userRooms.Get("alice")
	require.True(t, ok)
	em.waitForRoomEvent(t, roomID, EventStartGame, time.Second)

	// Keep feeding the winning column; the stack opponent fills column 0, so
	// the human stacks column 6 and takes game one.
	stop := make(chan struct{})
	go func() {
		tick := time.NewTicker(20 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				c.Action("alice", 6)
			}
		}
	}()
	em.waitForRoomEvent(t, roomID, EventResetGame, 5*time.Second)
	em.waitForRoomEvent(t, roomID, EventEndGame, 10*time.Second)
	close(stop)

	c.Shutdown()
}
