package game

import (
	"testing"
	"time"
)

func newTestC4(t *testing.T, p Params) *ConnectFour {
	t.Helper()
	if p == nil {
		p = Params{}
	}
	if _, ok := p["turn_timeout"]; !ok {
		p["turn_timeout"] = 60 // keep the watchdog quiet
	}
	g, err := NewConnectFour(1, p, testSettings(), NewPolicySet("testdata"))
	if err != nil {
		t.Fatalf("new c4: %v", err)
	}
	return g
}

func TestTryParseColumn(t *testing.T) {
	cases := []struct {
		in   Action
		want int
	}{
		{3, 3},
		{float64(5), 5},
		{"2", 2},
		{"left", -1},
		{nil, -1},
		{[]int{1}, -1},
	}
	for _, tc := range cases {
		if got := tryParseColumn(tc.in); got != tc.want {
			t.Errorf("tryParseColumn(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// playTurn enqueues for the expected current player and ticks once.
func playTurn(t *testing.T, g *ConnectFour, player string, col int) Status {
	t.Helper()
	if curr := g.CurrPlayer(); curr != player {
		t.Fatalf("curr player = %q, want %q", curr, player)
	}
	ok, err := g.EnqueueAction(player, col)
	if err != nil || !ok {
		t.Fatalf("enqueue %s col %d: ok=%v err=%v", player, col, ok, err)
	}
	g.Lock()
	status, err := g.Tick()
	g.Unlock()
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	return status
}

func TestConnectFourVerticalWin(t *testing.T) {
	g := newTestC4(t, Params{"num_games": 1})
	if err := g.AddPlayer("alice"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatal(err)
	}
	if err := g.Activate(); err != nil {
		t.Fatal(err)
	}
	defer g.Deactivate()

	// Alice stacks column 0, Bob column 1. Alice opens game zero.
	for i := 0; i < 3; i++ {
		if status := playTurn(t, g, "alice", 0); status != StatusActive {
			t.Fatalf("status = %v, want active", status)
		}
		if status := playTurn(t, g, "bob", 1); status != StatusActive {
			t.Fatalf("status = %v, want active", status)
		}
	}
	status := playTurn(t, g, "alice", 0)
	if status != StatusDone {
		t.Fatalf("winning tick status = %v, want done", status)
	}
	if w := g.WinnerSeat(); w != 0 {
		t.Fatalf("winner seat = %d, want 0", w)
	}

	board := g.Board()
	for r := 2; r <= 5; r++ {
		if board[r*c4Cols] != 1 {
			t.Fatalf("cell (%d,0) = %d, want 1", r, board[r*c4Cols])
		}
	}
	if board[5*c4Cols+1] != 2 {
		t.Fatalf("cell (5,1) = %d, want 2", board[5*c4Cols+1])
	}
}

func TestConnectFourTurnDiscipline(t *testing.T) {
	g := newTestC4(t, Params{"num_games": 1})
	if err := g.AddPlayer("alice"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatal(err)
	}
	if err := g.Activate(); err != nil {
		t.Fatal(err)
	}
	defer g.Deactivate()

	// Not bob's turn.
	if ok, _ := g.EnqueueAction("bob", 0); ok {
		t.Fatal("bob enqueued out of turn")
	}
	if ok, _ := g.EnqueueAction("alice", 3); !ok {
		t.Fatal("alice's turn was rejected")
	}
	// One action per turn.
	if ok, _ := g.EnqueueAction("alice", 4); ok {
		t.Fatal("alice enqueued twice in one turn")
	}

	g.Lock()
	if _, err := g.Tick(); err != nil {
		t.Fatal(err)
	}
	g.Unlock()

	if curr := g.CurrPlayer(); curr != "bob" {
		t.Fatalf("curr player = %q, want bob", curr)
	}
	if n := g.CurrTurnNumber(); n != 1 {
		t.Fatalf("turn number = %d, want 1", n)
	}
}

func TestConnectFourInvalidActions(t *testing.T) {
	g := newTestC4(t, Params{"num_games": 1})
	if err := g.AddPlayer("alice"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatal(err)
	}
	if err := g.Activate(); err != nil {
		t.Fatal(err)
	}
	defer g.Deactivate()

	// Default mode ignores invalid actions without consuming the turn.
	if ok, err := g.EnqueueAction("alice", 99); ok || err != nil {
		t.Fatalf("invalid column: ok=%v err=%v", ok, err)
	}
	if ok, err := g.EnqueueAction("alice", "nonsense"); ok || err != nil {
		t.Fatalf("non-numeric action: ok=%v err=%v", ok, err)
	}
	// The turn token survives the rejects.
	if ok, _ := g.EnqueueAction("alice", 0); !ok {
		t.Fatal("valid action after invalid attempts was rejected")
	}
}

func TestConnectFourStrictInvalidAction(t *testing.T) {
	g := newTestC4(t, Params{"num_games": 1, "ignore_invalid_actions": false})
	if err := g.AddPlayer("alice"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatal(err)
	}
	if err := g.Activate(); err != nil {
		t.Fatal(err)
	}
	defer g.Deactivate()

	_, err := g.EnqueueAction("alice", 99)
	if !IsGameError(err) {
		t.Fatalf("strict mode must return a GameError, got %v", err)
	}
}

func TestConnectFourSeriesReset(t *testing.T) {
	g := newTestC4(t, Params{"num_games": 2})
	if err := g.AddPlayer("alice"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatal(err)
	}
	if err := g.Activate(); err != nil {
		t.Fatal(err)
	}
	defer g.Deactivate()

	for i := 0; i < 3; i++ {
		playTurn(t, g, "alice", 0)
		playTurn(t, g, "bob", 1)
	}
	// Game zero of two ends; the series is not finished.
	if status := playTurn(t, g, "alice", 0); status != StatusActive {
		t.Fatalf("status = %v, want active (series continues)", status)
	}
	if !g.NeedsReset() {
		t.Fatal("expected a pending reset")
	}

	g.Lock()
	status, err := g.Tick()
	g.Unlock()
	if err != nil || status != StatusReset {
		t.Fatalf("reset tick: status=%v err=%v", status, err)
	}

	if n := g.CurrGameNumber(); n != 1 {
		t.Fatalf("game number = %d, want 1", n)
	}
	// Board cleared, opener rotated to seat one.
	for _, cell := range g.Board() {
		if cell != 0 {
			t.Fatal("board not cleared on reset")
		}
	}
	if curr := g.CurrPlayer(); curr != "bob" {
		t.Fatalf("game one opener = %q, want bob", curr)
	}
}

func TestConnectFourWinsAtDiagonal(t *testing.T) {
	g := newTestC4(t, nil)
	// Hand-build a rising diagonal for seat zero.
	g.board[5*c4Cols+0] = 1
	g.board[4*c4Cols+1] = 1
	g.board[3*c4Cols+2] = 1
	g.board[2*c4Cols+3] = 1
	if !g.winsAt(2, 3) {
		t.Fatal("diagonal win not detected")
	}
	if !g.winsAt(5, 0) {
		t.Fatal("diagonal win not detected from the other end")
	}
	if g.winsAt(5, 6) {
		t.Fatal("empty corner reported as a win")
	}
}

func TestConnectFourAlternatingOpenings(t *testing.T) {
	g := newTestC4(t, Params{"num_games": 1})
	if err := g.AddPlayer("alice"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatal(err)
	}
	if err := g.Activate(); err != nil {
		t.Fatal(err)
	}
	defer g.Deactivate()

	playTurn(t, g, "alice", 0)
	playTurn(t, g, "bob", 1)
	playTurn(t, g, "alice", 2)
	playTurn(t, g, "bob", 3)

	// Four drops into four distinct columns settle on the bottom row.
	want := make([]int, c4Rows*c4Cols)
	want[5*c4Cols+0] = 1
	want[5*c4Cols+1] = 2
	want[5*c4Cols+2] = 1
	want[5*c4Cols+3] = 2
	board := g.Board()
	for i, cell := range board {
		if cell != want[i] {
			t.Fatalf("cell %d = %d, want %d (board %v)", i, cell, want[i], board)
		}
	}
}

func TestConnectFourFullColumnRejected(t *testing.T) {
	g := newTestC4(t, Params{"num_games": 1})
	if err := g.AddPlayer("alice"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatal(err)
	}
	if err := g.Activate(); err != nil {
		t.Fatal(err)
	}
	defer g.Deactivate()

	// Alternate drops fill column 0 without making four in a row.
	for i := 0; i < 3; i++ {
		playTurn(t, g, "alice", 0)
		playTurn(t, g, "bob", 0)
	}
	for _, open := range g.OpenColumns() {
		if open == 0 {
			t.Fatal("column 0 still reported open after six drops")
		}
	}

	// A drop into the full column never enters the queue, and the turn
	// token survives the reject.
	if ok, err := g.EnqueueAction("alice", 0); ok || err != nil {
		t.Fatalf("full column enqueue: ok=%v err=%v", ok, err)
	}
	if ok, _ := g.EnqueueAction("alice", 1); !ok {
		t.Fatal("open column rejected after the full-column attempt")
	}
}

func TestConnectFourTimeoutFlagOnlyOnStuckTurn(t *testing.T) {
	g := newTestC4(t, Params{"num_games": 1, "turn_timeout": 0.05})
	if err := g.AddPlayer("alice"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatal(err)
	}
	if err := g.Activate(); err != nil {
		t.Fatal(err)
	}
	defer g.Deactivate()

	// Alice's move is queued but not yet applied when the watchdog fires.
	// The synthesized enqueue loses (the turn token is gone), so the turn
	// must not be recorded as timed out.
	if ok, _ := g.EnqueueAction("alice", 0); !ok {
		t.Fatal("alice's move rejected")
	}
	time.Sleep(150 * time.Millisecond)

	g.Lock()
	if _, err := g.Tick(); err != nil {
		g.Unlock()
		t.Fatal(err)
	}
	g.Unlock()

	if curr := g.CurrPlayer(); curr != "bob" {
		t.Fatalf("curr player = %q, want bob", curr)
	}
	if g.takeTurnTimeout() {
		t.Fatal("lost watchdog race recorded as a turn timeout")
	}
	// Exactly alice's own move landed.
	marks := 0
	for _, cell := range g.Board() {
		if cell != 0 {
			marks++
		}
	}
	if marks != 1 {
		t.Fatalf("board has %d pieces, want 1", marks)
	}
}

func TestConnectFourTurnTimeout(t *testing.T) {
	g := newTestC4(t, Params{"num_games": 1, "turn_timeout": 0.05})
	if err := g.AddPlayer("alice"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatal(err)
	}
	if err := g.Activate(); err != nil {
		t.Fatal(err)
	}
	defer g.Deactivate()

	// Nobody acts; the watchdog must synthesize alice's move.
	deadline := time.Now().Add(2 * time.Second)
	for g.CurrPlayer() == "alice" && time.Now().Before(deadline) {
		g.Lock()
		if _, err := g.Tick(); err != nil {
			g.Unlock()
			t.Fatal(err)
		}
		g.Unlock()
		time.Sleep(10 * time.Millisecond)
	}

	if curr := g.CurrPlayer(); curr != "bob" {
		t.Fatalf("turn did not advance on timeout, curr = %q", curr)
	}
	if !g.takeTurnTimeout() {
		t.Fatal("timeout flag not set")
	}
}
