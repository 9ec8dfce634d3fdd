package game

import (
	"errors"
	"fmt"
	"time"
)

// Kind names a registered game variant ("c4", "harvest", ...).
type Kind string

// Action is a client-submitted move. Values arrive as decoded JSON, so a
// column index may show up as float64 or string; each game parses its own.
type Action any

// Status is the result of driving an instance one step forward.
type Status string

const (
	StatusActive   Status = "active"
	StatusReset    Status = "reset"
	StatusDone     Status = "done"
	StatusInactive Status = "inactive"
	StatusError    Status = "error"
)

// EmptySeat marks a vacated player slot. Seats keep their index for the
// lifetime of the instance so rejoining players and NPC bindings stay stable.
const EmptySeat = "<empty>"

// Instance is the uniform contract between a game and the coordinator/driver.
//
// Callers serialize all state mutation through Lock/Unlock. EnqueueAction is
// the exception: it is safe to call without the instance lock and is
// synchronized internally (per-seat queues plus, for turn-based games, turn
// tokens).
type Instance interface {
	ID() int
	Kind() Kind
	Lock()
	Unlock()

	IsFull() bool
	IsReady() bool
	IsEmpty() bool
	IsActive() bool
	IsFinished() bool
	CurrGameOver() bool
	NeedsReset() bool

	Activate() error
	Deactivate()
	Reset() (Status, error)

	AddPlayer(id string) error
	AddSpectator(id string) error
	RemovePlayer(id string) bool
	RemoveSpectator(id string) bool
	Players() []string
	NumPlayers() int
	Spectators() []string

	EnqueueAction(id string, act Action) (bool, error)
	IsValidAction(id string, act Action) bool
	Tick() (Status, error)

	State() map[string]any
	ToJSON() map[string]any
	Data() map[string]any

	FPS() int
	ResetTimeout() time.Duration
}

// GameError wraps any failure raised inside game logic. The driver and
// coordinator use it to tell a broken game (end that one game, keep the
// server alive) from an infrastructure fault.
type GameError struct {
	GameID int
	Op     string
	Err    error
}

func (e *GameError) Error() string {
	return fmt.Sprintf("game %d: %s: %v", e.GameID, e.Op, e.Err)
}

func (e *GameError) Unwrap() error { return e.Err }

// IsGameError reports whether err is (or wraps) a *GameError.
func IsGameError(err error) bool {
	var ge *GameError
	return errors.As(err, &ge)
}

// Call runs fn and funnels both returned errors and panics out of game code
// into *GameError, keyed by the instance and operation. Apply it at every
// public call site of the instance contract.
func Call(g Instance, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &GameError{GameID: g.ID(), Op: op, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err = fn(); err != nil {
		var ge *GameError
		if errors.As(err, &ge) {
			return err
		}
		return &GameError{GameID: g.ID(), Op: op, Err: err}
	}
	return nil
}
