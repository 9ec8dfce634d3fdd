package game

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const KindConnectFourStudy Kind = "c4_study"

// ConnectFourStudy is ConnectFour with per-turn trajectory recording for
// behavioral studies. One transition is logged per applied turn; the
// trial ID changes with every game in the series so trajectories can be
// split downstream.
type ConnectFourStudy struct {
	ConnectFour

	uid string

	trajMu      sync.Mutex
	trialID     string
	activatedAt time.Time
	lastTurnAt  time.Time
	trajectory  []map[string]any
}

func NewConnectFourStudy(id int, p Params, st Settings, policies *PolicySet) (*ConnectFourStudy, error) {
	g := &ConnectFourStudy{uid: p.String("uid", "-1")}
	g.bind(g)
	if err := g.configure(KindConnectFourStudy, id, p, st, policies); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *ConnectFourStudy) Activate() error {
	if err := g.ConnectFour.Activate(); err != nil {
		return err
	}
	now := time.Now()
	g.trajMu.Lock()
	g.trialID = fmt.Sprintf("%s_%d", g.uid, now.UnixNano())
	g.activatedAt = now
	g.lastTurnAt = now
	g.trajMu.Unlock()
	return nil
}

func (g *ConnectFourStudy) applyAction(seat int, act Action) error {
	prev := g.Board()
	if err := g.ConnectFour.applyAction(seat, act); err != nil {
		return err
	}
	g.record(seat, act, prev)
	return nil
}

func (g *ConnectFourStudy) record(seat int, act Action, prevBoard []int) {
	now := time.Now()
	seats := g.Seats()

	jointAction := make([]int, len(seats))
	if col := tryParseColumn(act); seat < len(jointAction) {
		jointAction[seat] = col
	}
	stateJSON, _ := json.Marshal(prevBoard)
	actionJSON, _ := json.Marshal(jointAction)

	rewards := g.turnRewards(seat)
	wasTimeout := g.takeTurnTimeout()

	g.trajMu.Lock()
	defer g.trajMu.Unlock()

	t := map[string]any{
		"state":            string(stateJSON),
		"joint_action":     string(actionJSON),
		"time_elapsed":     now.Sub(g.activatedAt).Seconds(),
		"curr_turn_time":   now.Sub(g.lastTurnAt).Seconds(),
		"curr_turn_number": g.CurrTurnNumber(),
		"was_turn_timeout": wasTimeout,
		"trial_id":         g.trialID,
	}
	for i, id := range seats {
		prefix := fmt.Sprintf("player_%d", i)
		t[prefix+"_id"] = id
		t[prefix+"_is_human"] = !g.IsNPC(id)
		t[prefix+"_played_this_turn"] = i == seat
		t[prefix+"_reward"] = rewards[i]
	}
	g.trajectory = append(g.trajectory, t)
	g.lastTurnAt = now
}

// turnRewards is zero for every seat until a game concludes; the concluding
// turn pays the winner +1 and the loser -1, or 0/0 on a draw.
func (g *ConnectFourStudy) turnRewards(seat int) []int {
	rewards := make([]int, len(g.Seats()))
	if !g.CurrGameOver() {
		return rewards
	}
	winner := g.WinnerSeat()
	if winner < 0 {
		return rewards
	}
	for i := range rewards {
		if i == winner {
			rewards[i] = 1
		} else {
			rewards[i] = -1
		}
	}
	return rewards
}

// Data returns the accumulated trajectory and clears the buffer.
func (g *ConnectFourStudy) Data() map[string]any {
	g.trajMu.Lock()
	defer g.trajMu.Unlock()
	out := map[string]any{
		"uid":        g.uid,
		"trajectory": g.trajectory,
	}
	g.trajectory = nil
	return out
}
