package game

import "errors"

// DummyGame is a stand-in kind used to exercise server plumbing: every tick
// bumps a counter and the game finishes once the counter hits max_count.
type DummyGame struct {
	Base
	counter  int
	maxCount int
}

func NewDummyGame(id int, p Params, st Settings) *DummyGame {
	g := &DummyGame{maxCount: p.Int("max_count", 100)}
	g.bind(g)
	g.initBase(id, "dummy", p.Int("num_players", 2), p, st)
	return g
}

func (g *DummyGame) applyActions() error {
	g.counter++
	return nil
}

func (g *DummyGame) IsFinished() bool {
	return g.counter >= g.maxCount
}

func (g *DummyGame) State() map[string]any {
	s := g.Base.State()
	s["count"] = g.counter
	return s
}

// DummyInteractiveGame adds per-player counters moved by UP/DOWN actions,
// for testing the enqueue/apply path end to end.
type DummyInteractiveGame struct {
	Base
	counter  int
	maxCount int
	counts   []int
}

func NewDummyInteractiveGame(id int, p Params, st Settings) *DummyInteractiveGame {
	n := p.Int("num_players", 2)
	g := &DummyInteractiveGame{
		maxCount: p.Int("max_count", 30),
		counts:   make([]int, n),
	}
	g.bind(g)
	g.initBase(id, "dummy_interactive", n, p, st)
	return g
}

func (g *DummyInteractiveGame) IsFinished() bool {
	for _, c := range g.counts {
		if c >= g.maxCount {
			return true
		}
	}
	return false
}

func (g *DummyInteractiveGame) applyAction(seat int, act Action) error {
	if seat >= len(g.counts) {
		return nil
	}
	switch act {
	case MoveUp:
		g.counts[seat]++
	case MoveDown:
		g.counts[seat]--
	}
	return nil
}

func (g *DummyInteractiveGame) applyActions() error {
	if err := g.Base.applyActions(); err != nil {
		return err
	}
	g.counter++
	return nil
}

func (g *DummyInteractiveGame) Counts() []int {
	out := make([]int, len(g.counts))
	copy(out, g.counts)
	return out
}

func (g *DummyInteractiveGame) State() map[string]any {
	s := g.Base.State()
	s["count"] = g.counter
	s["player_counts"] = g.Counts()
	return s
}

// BuggyGame injects failures into chosen operations so driver and
// coordinator error paths can be tested deliberately.
type BuggyGame struct {
	DummyInteractiveGame
	buggyActivate bool
	buggyTick     bool
	buggyEnqueue  bool
}

var errInducedBug = errors.New("this is a bug")

func NewBuggyGame(id int, p Params, st Settings) *BuggyGame {
	g := &BuggyGame{
		buggyActivate: p.Bool("buggy_activate", false),
		buggyTick:     p.Bool("buggy_tick", true),
		buggyEnqueue:  p.Bool("buggy_enqueue_action", false),
	}
	g.bind(g)
	n := p.Int("num_players", 2)
	g.maxCount = p.Int("max_count", 30)
	g.counts = make([]int, n)
	g.initBase(id, "buggy", n, p, st)
	return g
}

func (g *BuggyGame) Activate() error {
	if err := g.Base.Activate(); err != nil {
		return err
	}
	if g.buggyActivate {
		return errInducedBug
	}
	return nil
}

func (g *BuggyGame) Tick() (Status, error) {
	status, err := g.Base.Tick()
	if err == nil && g.buggyTick {
		return StatusError, errInducedBug
	}
	return status, err
}

func (g *BuggyGame) EnqueueAction(id string, act Action) (bool, error) {
	ok, err := g.Base.EnqueueAction(id, act)
	if err == nil && g.buggyEnqueue {
		return ok, errInducedBug
	}
	return ok, err
}
