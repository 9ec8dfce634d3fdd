package game

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// hooks are the overridable pieces of the game template. Base methods always
// dispatch through the bound hooks value, so an embedding game kind refines
// the behavior the coordinator and driver observe — the Go rendition of a
// subclass override chain.
type hooks interface {
	IsFull() bool
	IsReady() bool
	IsEmpty() bool
	IsFinished() bool
	CurrGameOver() bool
	isLastGame() bool
	IsValidAction(id string, act Action) bool
	Activate() error
	Deactivate()
	Reset() (Status, error)
	EnqueueAction(id string, act Action) (bool, error)
	applyActions() error
	applyAction(seat int, act Action) error
	defaultAction(id string) Action
	policyState() any
	State() map[string]any
	ToJSON() map[string]any
	Data() map[string]any
}

// Base carries the state and template logic shared by every game kind:
// seat bookkeeping, spectators, per-seat pending action queues, the active
// flag, and the tick/reset state machine.
//
// The instance mutex (Lock/Unlock) serializes state mutation and ticks.
// Seat membership is additionally guarded by seatsMu so that EnqueueAction
// can run without the instance lock.
type Base struct {
	id   int
	kind Kind
	mu   sync.Mutex

	active atomic.Bool

	seatsMu    sync.RWMutex
	players    []string
	queues     []*actionQueue
	spectators map[string]struct{}

	maxPlayers           int
	fps                  int
	debug                bool
	ignoreInvalidActions bool
	resetTimeout         time.Duration

	self hooks
}

func (b *Base) initBase(id int, kind Kind, maxPlayers int, p Params, st Settings) {
	b.id = id
	b.kind = kind
	b.maxPlayers = maxPlayers
	b.spectators = make(map[string]struct{})
	b.fps = p.Int("fps", st.MaxFPS)
	if st.MaxFPS > 0 && b.fps > st.MaxFPS {
		b.fps = st.MaxFPS
	}
	b.debug = p.Bool("debug", false)
	b.ignoreInvalidActions = p.Bool("ignore_invalid_actions", true)
	b.resetTimeout = p.Seconds("reset_timeout", 3*time.Second)
}

// bind attaches the outermost value so template methods dispatch to it.
// Constructors must call it before any other method.
func (b *Base) bind(self hooks) { b.self = self }

func (b *Base) ID() int    { return b.id }
func (b *Base) Kind() Kind { return b.kind }
func (b *Base) Lock()      { b.mu.Lock() }
func (b *Base) Unlock()    { b.mu.Unlock() }
func (b *Base) FPS() int   { return b.fps }

func (b *Base) ResetTimeout() time.Duration { return b.resetTimeout }

func (b *Base) IsActive() bool { return b.active.Load() }

func (b *Base) IsFull() bool {
	return b.NumPlayers() >= b.maxPlayers
}

// IsReady defaults to "full". NPC variants additionally require a human.
func (b *Base) IsReady() bool { return b.self.IsFull() }

// IsEmpty reports whether the instance can be garbage collected: nobody
// playing and nobody watching.
func (b *Base) IsEmpty() bool {
	b.seatsMu.RLock()
	defer b.seatsMu.RUnlock()
	return b.numPlayersLocked() == 0 && len(b.spectators) == 0
}

func (b *Base) IsFinished() bool {
	return b.self.CurrGameOver() && b.self.isLastGame()
}

// CurrGameOver defaults to false; concrete kinds override it.
func (b *Base) CurrGameOver() bool { return false }

// isLastGame defaults to true, so single-game kinds finish when the current
// game is over. Series kinds override it.
func (b *Base) isLastGame() bool { return true }

func (b *Base) NeedsReset() bool {
	return b.self.CurrGameOver() && !b.self.IsFinished()
}

// Activate flips the active flag. Activating twice is an error: the
// coordinator's lifecycle never double-activates, so a second call means a
// state machine bug somewhere.
func (b *Base) Activate() error {
	if !b.active.CompareAndSwap(false, true) {
		return fmt.Errorf("game %d already active", b.id)
	}
	return nil
}

// Deactivate flips the active flag off. Safe to call twice.
func (b *Base) Deactivate() {
	b.active.Store(false)
}

// Reset restarts the current sub-game while keeping all enrolled players.
// Finished instances report done instead.
func (b *Base) Reset() (Status, error) {
	if !b.IsActive() {
		return StatusError, errors.New("inactive games cannot be reset")
	}
	if b.self.IsFinished() {
		return StatusDone, nil
	}
	b.self.Deactivate()
	if err := b.self.Activate(); err != nil {
		return StatusError, err
	}
	return StatusReset, nil
}

// Tick advances the instance one frame: drain pending actions into state,
// or perform a reset between sub-games. Callers hold the instance lock.
//
// EnqueueAction is "git add"; Tick is "git commit".
func (b *Base) Tick() (Status, error) {
	if !b.IsActive() {
		return StatusInactive, nil
	}
	if b.NeedsReset() {
		if _, err := b.self.Reset(); err != nil {
			return StatusError, err
		}
		return StatusReset, nil
	}
	if err := b.self.applyActions(); err != nil {
		return StatusError, err
	}
	if b.self.IsFinished() {
		return StatusDone, nil
	}
	return StatusActive, nil
}

// applyActions drains every seat's queue fully, in seat order. Kinds that
// need joint actions or one-action-per-turn semantics override this.
func (b *Base) applyActions() error {
	b.seatsMu.RLock()
	queues := make([]*actionQueue, len(b.queues))
	copy(queues, b.queues)
	b.seatsMu.RUnlock()

	for i, q := range queues {
		if q == nil {
			continue
		}
		for {
			act, ok := q.tryGet()
			if !ok {
				break
			}
			if err := b.self.applyAction(i, act); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyAction is a no-op by default; kinds that serialize per-player
// actions override it.
func (b *Base) applyAction(seat int, act Action) error { return nil }

// defaultAction is what the turn watchdog enqueues on timeout.
func (b *Base) defaultAction(id string) Action { return nil }

// policyState is the state object handed to NPC policies.
func (b *Base) policyState() any { return b.self.State() }

// AddPlayer seats id in the first empty slot. Rejects full or active games.
func (b *Base) AddPlayer(id string) error {
	return b.addPlayer(id, -1, 0)
}

// addPlayer seats id at the given index, padding with empty seats if the
// index is past the end. seat < 0 means "first empty slot or append" — the
// sentinel is deliberately distinct from index 0.
func (b *Base) addPlayer(id string, seat, queueDepth int) error {
	if b.self.IsFull() {
		return errors.New("cannot add players to a full game")
	}
	if b.IsActive() {
		return errors.New("cannot add players to an active game")
	}

	b.seatsMu.Lock()
	defer b.seatsMu.Unlock()

	if seat < 0 {
		seat = len(b.players)
		for i, p := range b.players {
			if p == EmptySeat {
				seat = i
				break
			}
		}
	} else if seat < len(b.players) && b.players[seat] != EmptySeat {
		return fmt.Errorf("seat %d is already taken", seat)
	}

	for len(b.players) <= seat {
		b.players = append(b.players, EmptySeat)
		b.queues = append(b.queues, nil)
	}
	b.players[seat] = id
	b.queues[seat] = newActionQueue(queueDepth)
	return nil
}

// AddSpectator registers a watching user. Players cannot spectate.
func (b *Base) AddSpectator(id string) error {
	b.seatsMu.Lock()
	defer b.seatsMu.Unlock()
	for _, p := range b.players {
		if p == id {
			return errors.New("cannot spectate and play at the same time")
		}
	}
	b.spectators[id] = struct{}{}
	return nil
}

// RemovePlayer vacates id's seat, preserving seat indexes. Idempotent.
func (b *Base) RemovePlayer(id string) bool {
	b.seatsMu.Lock()
	defer b.seatsMu.Unlock()
	return b.removePlayerLocked(id)
}

func (b *Base) removePlayerLocked(id string) bool {
	for i, p := range b.players {
		if p == id {
			b.players[i] = EmptySeat
			b.queues[i] = nil
			return true
		}
	}
	return false
}

// RemoveSpectator drops id from the spectator set. Idempotent.
func (b *Base) RemoveSpectator(id string) bool {
	b.seatsMu.Lock()
	defer b.seatsMu.Unlock()
	if _, ok := b.spectators[id]; !ok {
		return false
	}
	delete(b.spectators, id)
	return true
}

// EnqueueAction buffers an action for id's seat without touching game state.
// Safe to call without the instance lock.
func (b *Base) EnqueueAction(id string, act Action) (bool, error) {
	if !b.IsActive() {
		return false, nil
	}

	b.seatsMu.RLock()
	seat := -1
	var q *actionQueue
	for i, p := range b.players {
		if p == id {
			seat = i
			q = b.queues[i]
			break
		}
	}
	b.seatsMu.RUnlock()

	if seat < 0 || q == nil {
		// Only seated players may submit actions.
		return false, nil
	}

	if !b.self.IsValidAction(id, act) {
		if b.ignoreInvalidActions {
			return false, nil
		}
		return false, &GameError{
			GameID: b.id,
			Op:     "enqueue_action",
			Err:    fmt.Errorf("action %v is invalid for player %s in the current state", act, id),
		}
	}
	return q.tryPut(act), nil
}

// IsValidAction defaults to accepting everything.
func (b *Base) IsValidAction(id string, act Action) bool { return true }

// Players returns the seated player IDs in seat order, skipping empty seats.
func (b *Base) Players() []string {
	b.seatsMu.RLock()
	defer b.seatsMu.RUnlock()
	out := make([]string, 0, len(b.players))
	for _, p := range b.players {
		if p != EmptySeat {
			out = append(out, p)
		}
	}
	return out
}

// Seats returns the raw seat array, empty seats included.
func (b *Base) Seats() []string {
	b.seatsMu.RLock()
	defer b.seatsMu.RUnlock()
	out := make([]string, len(b.players))
	copy(out, b.players)
	return out
}

func (b *Base) NumPlayers() int {
	b.seatsMu.RLock()
	defer b.seatsMu.RUnlock()
	return b.numPlayersLocked()
}

func (b *Base) numPlayersLocked() int {
	n := 0
	for _, p := range b.players {
		if p != EmptySeat {
			n++
		}
	}
	return n
}

func (b *Base) Spectators() []string {
	b.seatsMu.RLock()
	defer b.seatsMu.RUnlock()
	out := make([]string, 0, len(b.spectators))
	for s := range b.spectators {
		out = append(out, s)
	}
	return out
}

// seatOf returns the seat index of id, or -1.
func (b *Base) seatOf(id string) int {
	b.seatsMu.RLock()
	defer b.seatsMu.RUnlock()
	for i, p := range b.players {
		if p == id {
			return i
		}
	}
	return -1
}

// seatQueue returns the pending-action queue for a seat, or nil.
func (b *Base) seatQueue(seat int) *actionQueue {
	b.seatsMu.RLock()
	defer b.seatsMu.RUnlock()
	if seat < 0 || seat >= len(b.queues) {
		return nil
	}
	return b.queues[seat]
}

// clearPendingActions empties every seat's queue.
func (b *Base) clearPendingActions() {
	b.seatsMu.RLock()
	defer b.seatsMu.RUnlock()
	for _, q := range b.queues {
		if q != nil {
			q.clear()
		}
	}
}

// State is the minimal per-frame snapshot broadcast to clients.
func (b *Base) State() map[string]any {
	return map[string]any{"players": b.Players()}
}

// ToJSON is the full snapshot, sent once on start and on reset.
func (b *Base) ToJSON() map[string]any {
	return b.self.State()
}

// Data is the opaque end-of-game payload hook.
func (b *Base) Data() map[string]any {
	return map[string]any{}
}
