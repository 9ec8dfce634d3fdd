package game

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// Policy is the opaque brain behind an NPC seat: state in, action out.
// Reset is called once per game in a series.
type Policy interface {
	Action(state any) (Action, error)
	Reset()
}

// PolicySet resolves policy names to implementations per game kind, and
// lists serialized agents found under the agent directory for discovery.
// Loading serialized agents themselves is out of scope; only the builtin
// policies below are playable.
type PolicySet struct {
	agentDir string
}

func NewPolicySet(agentDir string) *PolicySet {
	return &PolicySet{agentDir: agentDir}
}

// Resolve returns the builtin policy registered for kind under name.
// seat tells positional policies which player they are.
func (s *PolicySet) Resolve(kind Kind, name string, seat int) (Policy, error) {
	switch kind {
	case KindConnectFour, KindConnectFourStudy:
		switch name {
		case "stack":
			return &stackPolicy{}, nil
		case "random":
			return &randomColumnPolicy{}, nil
		}
	case KindHarvest:
		switch name {
		case "stay":
			return &stayPolicy{}, nil
		case "random":
			return &randomMovePolicy{}, nil
		case "greedy":
			return &greedyHarvestPolicy{seat: seat}, nil
		}
	}
	return nil, fmt.Errorf("unknown policy %q for game kind %q", name, kind)
}

// AgentNames lists directories under agentDir/<layout> and agentDir/all.
// Missing directories are fine: a fresh server simply has no agents yet.
func (s *PolicySet) AgentNames(layout string) []string {
	names := []string{}
	for _, dir := range []string{layout, "all"} {
		entries, err := os.ReadDir(filepath.Join(s.agentDir, dir))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	return names
}

// openColumns pulls the open-column list out of a connect-four policy state.
func openColumns(state any) []int {
	m, ok := state.(map[string]any)
	if !ok {
		return nil
	}
	cols, _ := m["open_columns"].([]int)
	return cols
}

// stackPolicy always drops into the leftmost open column.
type stackPolicy struct{}

func (p *stackPolicy) Action(state any) (Action, error) {
	cols := openColumns(state)
	if len(cols) == 0 {
		return nil, fmt.Errorf("no open columns")
	}
	return cols[0], nil
}

func (p *stackPolicy) Reset() {}

// randomColumnPolicy samples a uniformly random open column.
type randomColumnPolicy struct{}

func (p *randomColumnPolicy) Action(state any) (Action, error) {
	cols := openColumns(state)
	if len(cols) == 0 {
		return nil, fmt.Errorf("no open columns")
	}
	return cols[rand.Intn(len(cols))], nil
}

func (p *randomColumnPolicy) Reset() {}

// stayPolicy never moves.
type stayPolicy struct{}

func (p *stayPolicy) Action(state any) (Action, error) { return MoveStay, nil }
func (p *stayPolicy) Reset()                           {}

// randomMovePolicy samples a random harvest move.
type randomMovePolicy struct{}

func (p *randomMovePolicy) Action(state any) (Action, error) {
	moves := []string{MoveUp, MoveDown, MoveLeft, MoveRight, MoveStay}
	return moves[rand.Intn(len(moves))], nil
}

func (p *randomMovePolicy) Reset() {}

// greedyHarvestPolicy steps toward the nearest apple, ignoring walls; the
// game clamps illegal moves so the worst case is standing still.
type greedyHarvestPolicy struct {
	seat int
}

func (p *greedyHarvestPolicy) Action(state any) (Action, error) {
	m, ok := state.(map[string]any)
	if !ok {
		return MoveStay, nil
	}
	positions, _ := m["positions"].([][2]int)
	apples, _ := m["apples"].([][2]int)
	if p.seat >= len(positions) || len(apples) == 0 {
		return MoveStay, nil
	}
	pos := positions[p.seat]

	best := apples[0]
	bestDist := manhattan(pos, best)
	for _, a := range apples[1:] {
		if d := manhattan(pos, a); d < bestDist {
			best, bestDist = a, d
		}
	}

	switch {
	case best[0] < pos[0]:
		return MoveUp, nil
	case best[0] > pos[0]:
		return MoveDown, nil
	case best[1] < pos[1]:
		return MoveLeft, nil
	case best[1] > pos[1]:
		return MoveRight, nil
	}
	return MoveStay, nil
}

func (p *greedyHarvestPolicy) Reset() {}

func manhattan(a, b [2]int) int {
	return abs(a[0]-b[0]) + abs(a[1]-b[1])
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
