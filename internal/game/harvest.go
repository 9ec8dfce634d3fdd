package game

import (
	"fmt"
	"time"
)

const KindHarvest Kind = "harvest"

// Harvest movement actions, as sent by clients.
const (
	MoveUp    = "UP"
	MoveDown  = "DOWN"
	MoveLeft  = "LEFT"
	MoveRight = "RIGHT"
	MoveStay  = "STAY"
)

// Grid cells: '#' wall, '.' floor, 'A' apple, 'P' spawn point.
var harvestLayouts = map[string][]string{
	"orchard": {
		"#########",
		"#P..A..P#",
		"#.A...A.#",
		"#...A...#",
		"#.A...A.#",
		"#P..A..P#",
		"#########",
	},
	"corridor": {
		"###########",
		"#P.A.A.A.P#",
		"###########",
	},
	"pantry": {
		"#######",
		"#P.A..#",
		"#.##A.#",
		"#.A##.#",
		"#..A.P#",
		"#######",
	},
}

// Harvest is a real-time cooperative grid game: players walk a walled grid
// collecting apples for a shared score until the clock runs out. A series
// walks the configured layout list, one layout per game.
//
// Game state (positions, apples, score, clock) is only touched under the
// instance lock; enqueue-side validation needs nothing but the action string.
type Harvest struct {
	NPCBase

	gameTime  time.Duration
	remaining []string

	layoutName string
	grid       []string
	positions  [][2]int
	apples     [][2]int
	score      int
	startTime  time.Time
	currTick   int
}

func NewHarvest(id int, p Params, st Settings, policies *PolicySet) (*Harvest, error) {
	g := &Harvest{}
	g.bind(g)

	numPlayers := p.Int("num_players", 2)
	g.initNPC(id, KindHarvest, numPlayers, p, st, policies)

	g.gameTime = p.Seconds("game_time", 60*time.Second)
	if st.MaxGameLength > 0 && g.gameTime > st.MaxGameLength {
		g.gameTime = st.MaxGameLength
	}

	layouts := p.Strings("layouts", st.Layouts)
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts configured")
	}
	for _, name := range layouts {
		if _, ok := harvestLayouts[name]; !ok {
			return nil, fmt.Errorf("unknown layout %q", name)
		}
	}
	g.remaining = append([]string(nil), layouts...)

	for seat, key := range []string{"playerZero", "playerOne"} {
		name := p.String(key, "human")
		if name == "human" {
			continue
		}
		npcID := fmt.Sprintf("%s_%d", name, seat)
		if err := g.addNPC(npcID, seat); err != nil {
			return nil, fmt.Errorf("seat npc %s: %w", npcID, err)
		}
	}
	return g, nil
}

// Activate pops the next layout in the series and resets the board clock,
// then brings up the NPC workers and hands them the opening state.
func (g *Harvest) Activate() error {
	g.layoutName = g.remaining[len(g.remaining)-1]
	g.remaining = g.remaining[:len(g.remaining)-1]
	g.grid = harvestLayouts[g.layoutName]

	g.apples = nil
	spawns := [][2]int{}
	floors := [][2]int{}
	for r, row := range g.grid {
		for c, cell := range row {
			switch cell {
			case 'A':
				g.apples = append(g.apples, [2]int{r, c})
			case 'P':
				spawns = append(spawns, [2]int{r, c})
			case '.':
				floors = append(floors, [2]int{r, c})
			}
		}
	}
	spawns = append(spawns, floors...)

	g.positions = make([][2]int, g.maxPlayers)
	for i := range g.positions {
		g.positions[i] = spawns[i%len(spawns)]
	}

	g.score = 0
	g.currTick = 0
	g.startTime = time.Now()

	if err := g.NPCBase.Activate(); err != nil {
		return err
	}
	g.feedNPCs()
	return nil
}

// Reset compensates the clock for the pause the driver inserts between
// games, so the new game's timer starts once play actually resumes.
func (g *Harvest) Reset() (Status, error) {
	status, err := g.NPCBase.Reset()
	if status == StatusReset {
		g.startTime = g.startTime.Add(g.resetTimeout)
	}
	return status, err
}

func (g *Harvest) CurrGameOver() bool {
	return time.Since(g.startTime) >= g.gameTime
}

func (g *Harvest) isLastGame() bool {
	return len(g.remaining) == 0
}

func (g *Harvest) IsValidAction(id string, act Action) bool {
	s, ok := act.(string)
	if !ok {
		return false
	}
	switch s {
	case MoveUp, MoveDown, MoveLeft, MoveRight, MoveStay:
		return true
	}
	return false
}

// applyActions builds a joint action with STAY defaults: human and NPC
// seats rarely produce a move on every frame. With block_for_ai set the
// tick waits on NPC seats instead of defaulting them.
func (g *Harvest) applyActions() error {
	g.currTick++

	seats := g.Seats()
	joint := make([]string, len(seats))
	for i := range joint {
		joint[i] = MoveStay
	}
	for i, id := range seats {
		if id == EmptySeat {
			continue
		}
		q := g.seatQueue(i)
		if q == nil {
			continue
		}
		if g.blockForAI && g.IsNPC(id) {
			if act, ok := g.seatQueue(i).get().(string); ok {
				joint[i] = act
			}
		} else if act, ok := q.tryGet(); ok {
			if s, ok := act.(string); ok {
				joint[i] = s
			}
		}
	}

	for i, move := range joint {
		if i < len(g.positions) {
			g.step(i, move)
		}
	}

	g.maybeFeedNPCs(g.currTick)
	return nil
}

// step moves one player, clamping at walls, and collects any apple on the
// destination cell into the shared score.
func (g *Harvest) step(seat int, move string) {
	pos := g.positions[seat]
	next := pos
	switch move {
	case MoveUp:
		next[0]--
	case MoveDown:
		next[0]++
	case MoveLeft:
		next[1]--
	case MoveRight:
		next[1]++
	default:
		return
	}
	if g.wallAt(next) {
		return
	}
	g.positions[seat] = next

	for i, a := range g.apples {
		if a == next {
			g.apples = append(g.apples[:i], g.apples[i+1:]...)
			g.score++
			break
		}
	}
}

func (g *Harvest) wallAt(pos [2]int) bool {
	r, c := pos[0], pos[1]
	if r < 0 || r >= len(g.grid) || c < 0 || c >= len(g.grid[r]) {
		return true
	}
	return g.grid[r][c] == '#'
}

// Score returns the shared score of the current game.
func (g *Harvest) Score() int { return g.score }

func (g *Harvest) State() map[string]any {
	positions := make([][2]int, len(g.positions))
	copy(positions, g.positions)
	apples := make([][2]int, len(g.apples))
	copy(apples, g.apples)

	timeLeft := g.gameTime - time.Since(g.startTime)
	if timeLeft < 0 {
		timeLeft = 0
	}
	return map[string]any{
		"positions": positions,
		"apples":    apples,
		"score":     g.score,
		"time_left": timeLeft.Seconds(),
	}
}

func (g *Harvest) ToJSON() map[string]any {
	return map[string]any{
		"layout_name": g.layoutName,
		"layout":      g.grid,
		"state":       g.self.State(),
	}
}
