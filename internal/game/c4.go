package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
)

const (
	KindConnectFour Kind = "c4"

	c4Rows = 6
	c4Cols = 7
)

// ConnectFour is a turn-based series of connect-four games on a 6x7 board.
// The board is row-major with row 0 on top; a drop settles into the lowest
// empty cell of its column and is marked seat+1. Actions are column indexes,
// accepted as numbers or numeric strings.
type ConnectFour struct {
	TurnBase

	numGames int

	// boardMu lets IsValidAction (called from enqueue paths without the
	// instance lock) read the board while a tick mutates it.
	boardMu    sync.RWMutex
	board      []int
	over       bool
	winnerSeat int
}

func NewConnectFour(id int, p Params, st Settings, policies *PolicySet) (*ConnectFour, error) {
	g := &ConnectFour{}
	g.bind(g)
	if err := g.configure(KindConnectFour, id, p, st, policies); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *ConnectFour) configure(kind Kind, id int, p Params, st Settings, policies *PolicySet) error {
	g.initTurnBased(id, kind, 2, p, st, policies)
	g.numGames = p.Int("num_games", 2)
	g.board = make([]int, c4Rows*c4Cols)
	g.winnerSeat = -1

	for seat, key := range []string{"playerZero", "playerOne"} {
		name := p.String(key, "human")
		if name == "human" {
			continue
		}
		npcID := fmt.Sprintf("%s_%d", name, seat)
		if err := g.addNPC(npcID, seat); err != nil {
			return fmt.Errorf("seat npc %s: %w", npcID, err)
		}
	}
	return nil
}

func (g *ConnectFour) Activate() error {
	g.boardMu.Lock()
	g.board = make([]int, c4Rows*c4Cols)
	g.over = false
	g.winnerSeat = -1
	g.boardMu.Unlock()
	return g.TurnBase.Activate()
}

func (g *ConnectFour) CurrGameOver() bool {
	g.boardMu.RLock()
	defer g.boardMu.RUnlock()
	return g.over
}

func (g *ConnectFour) isLastGame() bool {
	return g.CurrGameNumber()+1 >= g.numGames
}

func (g *ConnectFour) IsValidAction(id string, act Action) bool {
	col := tryParseColumn(act)
	for _, open := range g.OpenColumns() {
		if col == open {
			return true
		}
	}
	return false
}

func (g *ConnectFour) applyAction(seat int, act Action) error {
	col := tryParseColumn(act)
	if col < 0 || col >= c4Cols {
		return fmt.Errorf("action %v is not a playable column", act)
	}

	g.boardMu.Lock()
	defer g.boardMu.Unlock()

	if g.over {
		return fmt.Errorf("move in column %d after game over", col)
	}
	row := -1
	for r := c4Rows - 1; r >= 0; r-- {
		if g.board[r*c4Cols+col] == 0 {
			row = r
			break
		}
	}
	if row < 0 {
		return fmt.Errorf("column %d is full", col)
	}

	g.board[row*c4Cols+col] = seat + 1
	if g.winsAt(row, col) {
		g.over = true
		g.winnerSeat = seat
	} else if g.boardFullLocked() {
		g.over = true
		g.winnerSeat = -1
	}
	return nil
}

func (g *ConnectFour) defaultAction(id string) Action {
	open := g.OpenColumns()
	if len(open) == 0 {
		return 0
	}
	return open[rand.Intn(len(open))]
}

// Board returns a snapshot of the 42-cell board.
func (g *ConnectFour) Board() []int {
	g.boardMu.RLock()
	defer g.boardMu.RUnlock()
	out := make([]int, len(g.board))
	copy(out, g.board)
	return out
}

// OpenColumns lists every column whose top cell is still empty.
func (g *ConnectFour) OpenColumns() []int {
	g.boardMu.RLock()
	defer g.boardMu.RUnlock()
	return g.openColumnsLocked()
}

func (g *ConnectFour) openColumnsLocked() []int {
	open := []int{}
	for c := 0; c < c4Cols; c++ {
		if g.board[c] == 0 {
			open = append(open, c)
		}
	}
	return open
}

// WinnerSeat returns the seat that won the current game, or -1 on a draw
// or while the game is still running.
func (g *ConnectFour) WinnerSeat() int {
	g.boardMu.RLock()
	defer g.boardMu.RUnlock()
	return g.winnerSeat
}

func (g *ConnectFour) State() map[string]any {
	g.boardMu.RLock()
	defer g.boardMu.RUnlock()
	board := make([]int, len(g.board))
	copy(board, g.board)
	return map[string]any{
		"board":        board,
		"open_columns": g.openColumnsLocked(),
	}
}

func (g *ConnectFour) ToJSON() map[string]any {
	return map[string]any{
		"config": map[string]any{
			"rows":      c4Rows,
			"columns":   c4Cols,
			"num_games": g.numGames,
		},
		"state": g.self.State(),
	}
}

func (g *ConnectFour) boardFullLocked() bool {
	for c := 0; c < c4Cols; c++ {
		if g.board[c] == 0 {
			return false
		}
	}
	return true
}

// winsAt reports whether the piece at (row, col) completes four in a row.
// Caller holds boardMu.
func (g *ConnectFour) winsAt(row, col int) bool {
	mark := g.board[row*c4Cols+col]
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		count := 1
		for _, sign := range []int{1, -1} {
			r, c := row+sign*d[0], col+sign*d[1]
			for r >= 0 && r < c4Rows && c >= 0 && c < c4Cols && g.board[r*c4Cols+c] == mark {
				count++
				r += sign * d[0]
				c += sign * d[1]
			}
		}
		if count >= 4 {
			return true
		}
	}
	return false
}

// tryParseColumn converts an action (int, float, or numeric string) to a
// column index. Anything else parses to -1, which no board accepts.
func tryParseColumn(act Action) int {
	switch v := act.(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return -1
}
