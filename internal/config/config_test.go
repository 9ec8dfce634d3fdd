package config

import (
	"testing"
	"time"

	"gameroom/internal/game"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.AppPort != "8080" {
		t.Errorf("AppPort = %q, want 8080", cfg.AppPort)
	}
	if cfg.MaxGames != 30 || cfg.MaxFPS != 30 {
		t.Errorf("limits = %d/%d, want 30/30", cfg.MaxGames, cfg.MaxFPS)
	}
	if cfg.MaxGameLength != 600*time.Second {
		t.Errorf("MaxGameLength = %v", cfg.MaxGameLength)
	}
	if len(cfg.Layouts) != 3 {
		t.Errorf("Layouts = %v", cfg.Layouts)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("MAX_GAMES", "5")
	t.Setenv("LAYOUTS", "orchard, corridor")
	t.Setenv("C4_TURN_TIMEOUT", "30")
	t.Setenv("MAX_FPS", "not-a-number")

	cfg := Load()
	if cfg.AppPort != "9000" {
		t.Errorf("AppPort = %q", cfg.AppPort)
	}
	if cfg.MaxGames != 5 {
		t.Errorf("MaxGames = %d", cfg.MaxGames)
	}
	if len(cfg.Layouts) != 2 || cfg.Layouts[1] != "corridor" {
		t.Errorf("Layouts = %v", cfg.Layouts)
	}
	if cfg.C4TurnTimeout != 30*time.Second {
		t.Errorf("C4TurnTimeout = %v", cfg.C4TurnTimeout)
	}
	if cfg.MaxFPS != 30 {
		t.Errorf("MaxFPS = %d, want default on parse failure", cfg.MaxFPS)
	}
}

func TestGameDefaults(t *testing.T) {
	cfg := Load()
	defaults := cfg.GameDefaults()

	c4 := defaults[game.KindConnectFour]
	if c4.Int("num_games", 0) != 2 {
		t.Errorf("c4 num_games = %v", c4["num_games"])
	}
	if c4.Int("turn_timeout", 0) != 10 {
		t.Errorf("c4 turn_timeout = %v", c4["turn_timeout"])
	}
	h := defaults[game.KindHarvest]
	if h.Int("game_time", 0) != 60 {
		t.Errorf("harvest game_time = %v", h["game_time"])
	}
	if h.Int("ticks_per_ai_action", 0) != 4 {
		t.Errorf("harvest ticks_per_ai_action = %v", h["ticks_per_ai_action"])
	}
}
