package game

import (
	"fmt"
	"sync"
	"time"

	"gameroom/internal/logger"
)

// TurnBase layers single-player-turn discipline on top of NPCBase. Each
// seated player holds a turn token; only the token holder can enqueue, and
// only once per turn. A watchdog goroutine synthesizes the game's default
// action when a turn stalls past turnTimeout.
type TurnBase struct {
	NPCBase

	turnTimeout time.Duration

	tokenMu sync.RWMutex
	tokens  map[string]*turnToken

	turnMu         sync.Mutex
	currPlayer     string
	currTurnNumber int
	turnTimedOut   bool

	// currGameNumber counts games across the series; it picks the start
	// player so openings alternate between games.
	currGameNumber int

	watchdogStop chan struct{}
	watchdogDone chan struct{}
}

func (t *TurnBase) initTurnBased(id int, kind Kind, maxPlayers int, p Params, st Settings, policies *PolicySet) {
	t.initNPC(id, kind, maxPlayers, p, st, policies)
	t.turnTimeout = p.Seconds("turn_timeout", 10*time.Second)
	t.tokens = make(map[string]*turnToken)
	t.currTurnNumber = -1
	t.currGameNumber = -1
}

func (t *TurnBase) AddPlayer(id string) error {
	if err := t.NPCBase.AddPlayer(id); err != nil {
		return err
	}
	t.registerToken(id)
	return nil
}

func (t *TurnBase) addNPC(id string, seat int) error {
	if err := t.NPCBase.addNPC(id, seat); err != nil {
		return err
	}
	t.registerToken(id)
	return nil
}

func (t *TurnBase) registerToken(id string) {
	t.tokenMu.Lock()
	t.tokens[id] = newTurnToken()
	t.tokenMu.Unlock()
}

func (t *TurnBase) token(id string) *turnToken {
	t.tokenMu.RLock()
	defer t.tokenMu.RUnlock()
	return t.tokens[id]
}

// Activate starts a new game in the series: NPC workers come up first, then
// tokens are drained so a stale grant from the previous game cannot leak a
// turn, the start player is chosen by game number, and the watchdog starts.
func (t *TurnBase) Activate() error {
	if err := t.NPCBase.Activate(); err != nil {
		return err
	}

	t.tokenMu.RLock()
	for _, tok := range t.tokens {
		tok.drain()
	}
	t.tokenMu.RUnlock()

	t.turnMu.Lock()
	t.currPlayer = ""
	t.turnTimedOut = false
	t.turnMu.Unlock()

	t.currGameNumber++
	t.advanceTurn()

	t.watchdogStop = make(chan struct{})
	t.watchdogDone = make(chan struct{})
	go t.watchdog(t.watchdogStop, t.watchdogDone)
	return nil
}

func (t *TurnBase) Deactivate() {
	t.NPCBase.Deactivate()
	if t.watchdogStop != nil {
		close(t.watchdogStop)
		<-t.watchdogDone
		t.watchdogStop = nil
	}
}

// EnqueueAction admits one action per turn per player: a failed token
// acquire means it is not the caller's turn, or they already played.
// The token is returned when the underlying enqueue does not stick.
func (t *TurnBase) EnqueueAction(id string, act Action) (bool, error) {
	tok := t.token(id)
	if tok == nil {
		return false, nil
	}
	if !tok.tryAcquire() {
		if t.debug {
			logger.Debug("enqueue denied: no turn token", "game_id", t.id, "player", id, "curr_player", t.CurrPlayer())
		}
		return false, nil
	}
	ok, err := t.NPCBase.EnqueueAction(id, act)
	if !ok {
		tok.grant()
	}
	return ok, err
}

// applyActions drains at most one action per seat. Exactly one seat may
// have played this tick, and it must be the current player; anything else
// is a broken invariant worth killing the game over.
func (t *TurnBase) applyActions() error {
	seats := t.Seats()
	var played []string
	for i, id := range seats {
		if id == EmptySeat {
			continue
		}
		q := t.seatQueue(i)
		if q == nil {
			continue
		}
		act, ok := q.tryGet()
		if !ok {
			continue
		}
		played = append(played, id)
		if err := t.self.applyAction(i, act); err != nil {
			return err
		}
	}

	if len(played) == 0 {
		return nil
	}
	if len(played) != 1 {
		return fmt.Errorf("more than one player played this turn: %v", played)
	}
	if curr := t.CurrPlayer(); played[0] != curr {
		return fmt.Errorf("player %s played but it was %s's turn", played[0], curr)
	}

	t.advanceTurn()
	return nil
}

// advanceTurn bumps the turn counter, rotates to the next player, grants
// their token, and feeds an NPC the state it should act on. Called under
// the instance lock.
func (t *TurnBase) advanceTurn() {
	t.turnMu.Lock()
	t.currTurnNumber++
	next := t.nextPlayer(t.currPlayer)
	t.currPlayer = next
	t.turnMu.Unlock()

	if tok := t.token(next); tok != nil {
		tok.grant()
	}
	if t.IsNPC(next) {
		t.feedNPC(next)
	}
}

// nextPlayer rotates round-robin through the seats. An empty current player
// means a fresh game: the opener is chosen by game number so the start
// alternates across a series.
func (t *TurnBase) nextPlayer(curr string) string {
	seats := t.Seats()
	if len(seats) == 0 {
		return ""
	}
	if curr == "" {
		return seats[t.currGameNumber%len(seats)]
	}
	for i, id := range seats {
		if id == curr {
			return seats[(i+1)%len(seats)]
		}
	}
	return seats[0]
}

// CurrPlayer returns the ID of the player whose turn it is.
func (t *TurnBase) CurrPlayer() string {
	t.turnMu.Lock()
	defer t.turnMu.Unlock()
	return t.currPlayer
}

// CurrTurnNumber counts turns across the whole series.
func (t *TurnBase) CurrTurnNumber() int {
	t.turnMu.Lock()
	defer t.turnMu.Unlock()
	return t.currTurnNumber
}

// CurrGameNumber is the index of the current game within the series.
func (t *TurnBase) CurrGameNumber() int { return t.currGameNumber }

func (t *TurnBase) turnSnapshot() (string, int) {
	t.turnMu.Lock()
	defer t.turnMu.Unlock()
	return t.currPlayer, t.currTurnNumber
}

// takeTurnTimeout reports whether the last applied turn was synthesized by
// the watchdog, clearing the flag.
func (t *TurnBase) takeTurnTimeout() bool {
	t.turnMu.Lock()
	defer t.turnMu.Unlock()
	out := t.turnTimedOut
	t.turnTimedOut = false
	return out
}

// watchdog wakes every turnTimeout; if the turn has not advanced since the
// previous wake it enqueues the game's default action for the current
// player, through the full enqueue chain.
func (t *TurnBase) watchdog(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.turnTimeout)
	defer ticker.Stop()

	prevPlayer, prevTurn := t.turnSnapshot()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			player, turn := t.turnSnapshot()
			if player == prevPlayer && turn == prevTurn {
				act := t.self.defaultAction(player)
				ok, err := t.self.EnqueueAction(player, act)
				if err != nil {
					logger.Warn("turn timeout enqueue failed", "game_id", t.id, "player", player, "error", err)
				}
				// The player may have slipped their move in between the
				// snapshot and the enqueue; only a stuck turn we actually
				// filled counts as timed out.
				if ok {
					t.turnMu.Lock()
					t.turnTimedOut = true
					t.turnMu.Unlock()
				}
			} else {
				prevPlayer, prevTurn = player, turn
			}
		}
	}
}
