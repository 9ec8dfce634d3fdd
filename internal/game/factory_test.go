package game

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFactoryKinds(t *testing.T) {
	f := NewFactory(testSettings(), nil)
	for _, k := range []Kind{KindConnectFour, KindConnectFourStudy, KindHarvest} {
		if !f.Known(k) {
			t.Errorf("kind %s not known", k)
		}
	}
	if f.Known("poker") {
		t.Error("unknown kind reported as known")
	}

	if _, err := f.Create("poker", 1, nil); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestFactoryDefaultsMerge(t *testing.T) {
	defaults := map[Kind]Params{
		KindConnectFour: {"num_games": 5, "turn_timeout": 60},
	}
	f := NewFactory(testSettings(), defaults)

	g, err := f.Create(KindConnectFour, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.(*ConnectFour).numGames; got != 5 {
		t.Fatalf("num_games = %d, want 5 (server default)", got)
	}

	g, err = f.Create(KindConnectFour, 2, Params{"num_games": 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.(*ConnectFour).numGames; got != 1 {
		t.Fatalf("num_games = %d, want 1 (client override)", got)
	}
}

func TestParamsAccessors(t *testing.T) {
	p := Params{
		"i":       3,
		"f":       float64(4),
		"is":      "5",
		"b":       true,
		"bs":      "true",
		"sec":     2.5,
		"list":    []any{"a", "b"},
		"strlist": []string{"x"},
	}

	if got := p.Int("i", 0); got != 3 {
		t.Errorf("Int(i) = %d", got)
	}
	if got := p.Int("f", 0); got != 4 {
		t.Errorf("Int(f) = %d", got)
	}
	if got := p.Int("is", 0); got != 5 {
		t.Errorf("Int(is) = %d", got)
	}
	if got := p.Int("missing", 9); got != 9 {
		t.Errorf("Int(missing) = %d", got)
	}
	if !p.Bool("b", false) || !p.Bool("bs", false) {
		t.Error("Bool parsing failed")
	}
	if got := p.Seconds("sec", 0); got != 2500*time.Millisecond {
		t.Errorf("Seconds(sec) = %v", got)
	}
	if got := p.Strings("list", nil); len(got) != 2 || got[0] != "a" {
		t.Errorf("Strings(list) = %v", got)
	}
	if got := p.Strings("strlist", nil); len(got) != 1 || got[0] != "x" {
		t.Errorf("Strings(strlist) = %v", got)
	}

	merged := Params{"a": 1, "b": 2}.Merge(Params{"b": 3, "c": 4})
	if merged.Int("a", 0) != 1 || merged.Int("b", 0) != 3 || merged.Int("c", 0) != 4 {
		t.Errorf("Merge = %v", merged)
	}
}

func TestPolicyResolve(t *testing.T) {
	s := NewPolicySet("testdata")
	cases := []struct {
		kind Kind
		name string
		ok   bool
	}{
		{KindConnectFour, "stack", true},
		{KindConnectFour, "random", true},
		{KindConnectFourStudy, "stack", true},
		{KindHarvest, "stay", true},
		{KindHarvest, "greedy", true},
		{KindConnectFour, "greedy", false},
		{KindHarvest, "stack", false},
		{KindConnectFour, "does_not_exist", false},
	}
	for _, tc := range cases {
		_, err := s.Resolve(tc.kind, tc.name, 0)
		if (err == nil) != tc.ok {
			t.Errorf("Resolve(%s, %s): err=%v, want ok=%v", tc.kind, tc.name, err, tc.ok)
		}
	}
}

func TestStackPolicyPicksLeftmost(t *testing.T) {
	p := &stackPolicy{}
	act, err := p.Action(map[string]any{"open_columns": []int{2, 4, 6}})
	if err != nil {
		t.Fatal(err)
	}
	if act != 2 {
		t.Fatalf("action = %v, want 2", act)
	}
	if _, err := p.Action(map[string]any{"open_columns": []int{}}); err == nil {
		t.Fatal("expected error on a full board")
	}
}

func TestGreedyPolicyStepsTowardApple(t *testing.T) {
	p := &greedyHarvestPolicy{seat: 0}
	state := map[string]any{
		"positions": [][2]int{{2, 2}},
		"apples":    [][2]int{{2, 5}, {0, 2}},
	}
	act, err := p.Action(state)
	if err != nil {
		t.Fatal(err)
	}
	// (0,2) is at distance 2, (2,5) at distance 3.
	if act != MoveUp {
		t.Fatalf("action = %v, want UP", act)
	}

	if act, _ := p.Action(map[string]any{"positions": [][2]int{{1, 1}}, "apples": [][2]int{}}); act != MoveStay {
		t.Fatalf("no apples: action = %v, want STAY", act)
	}
}

func TestAgentNames(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"orchard/picker", "orchard/lazy", "all/wanderer"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// A stray file must not be listed.
	if err := os.WriteFile(filepath.Join(dir, "orchard", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewPolicySet(dir)
	names := s.AgentNames("orchard")
	want := map[string]bool{"picker": true, "lazy": true, "wanderer": true}
	if len(names) != 3 {
		t.Fatalf("names = %v, want 3 entries", names)
	}
	for _, n := range names {
		if !want[n] {
			t.Fatalf("unexpected agent %q", n)
		}
	}

	// A missing layout directory still yields the shared agents.
	if got := s.AgentNames("missing_layout"); len(got) != 1 || got[0] != "wanderer" {
		t.Fatalf("missing layout: names = %v, want [wanderer]", got)
	}
}
