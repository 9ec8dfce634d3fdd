package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"gameroom/internal/game"
)

type Config struct {
	AppPort       string
	LogLevel      string
	LogJSON       bool
	AllowedOrigin string

	// Session limits
	MaxGames      int
	MaxFPS        int
	MaxGameLength time.Duration

	// Agent policies
	AgentDir string
	Layouts  []string

	// Per-kind defaults
	C4NumGames      int
	C4TurnTimeout   time.Duration
	HarvestGameTime time.Duration
	TicksPerPolicy  int
}

// Load reads the environment (optionally seeded from a .env file) and
// fills in defaults. Every setting has a working default; nothing is
// required.
func Load() *Config {
	_ = godotenv.Load()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logJSON := os.Getenv("LOG_JSON") == "true"
	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")

	maxGames := 30
	if v := os.Getenv("MAX_GAMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxGames = n
		}
	}

	maxFPS := 30
	if v := os.Getenv("MAX_FPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxFPS = n
		}
	}

	maxGameLength := 600 * time.Second
	if v := os.Getenv("MAX_GAME_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxGameLength = time.Duration(n) * time.Second
		}
	}

	agentDir := os.Getenv("AGENT_DIR")
	if agentDir == "" {
		agentDir = "./agents"
	}

	layouts := []string{"orchard", "corridor", "pantry"}
	if v := os.Getenv("LAYOUTS"); v != "" {
		parsed := make([]string, 0, 3)
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				parsed = append(parsed, name)
			}
		}
		if len(parsed) > 0 {
			layouts = parsed
		}
	}

	c4NumGames := 2
	if v := os.Getenv("C4_NUM_GAMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c4NumGames = n
		}
	}

	c4TurnTimeout := 10 * time.Second
	if v := os.Getenv("C4_TURN_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c4TurnTimeout = time.Duration(n) * time.Second
		}
	}

	harvestGameTime := 60 * time.Second
	if v := os.Getenv("HARVEST_GAME_TIME"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			harvestGameTime = time.Duration(n) * time.Second
		}
	}

	ticksPerPolicy := 4
	if v := os.Getenv("TICKS_PER_POLICY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ticksPerPolicy = n
		}
	}

	return &Config{
		AppPort:         port,
		LogLevel:        logLevel,
		LogJSON:         logJSON,
		AllowedOrigin:   allowedOrigin,
		MaxGames:        maxGames,
		MaxFPS:          maxFPS,
		MaxGameLength:   maxGameLength,
		AgentDir:        agentDir,
		Layouts:         layouts,
		C4NumGames:      c4NumGames,
		C4TurnTimeout:   c4TurnTimeout,
		HarvestGameTime: harvestGameTime,
		TicksPerPolicy:  ticksPerPolicy,
	}
}

// GameSettings projects the config onto the caps every game instance gets.
func (c *Config) GameSettings() game.Settings {
	return game.Settings{
		MaxFPS:        c.MaxFPS,
		MaxGameLength: c.MaxGameLength,
		AgentDir:      c.AgentDir,
		Layouts:       c.Layouts,
	}
}

// GameDefaults builds the per-kind parameter defaults that client-supplied
// params are merged over.
func (c *Config) GameDefaults() map[game.Kind]game.Params {
	c4 := game.Params{
		"num_games":    c.C4NumGames,
		"turn_timeout": int(c.C4TurnTimeout / time.Second),
	}
	return map[game.Kind]game.Params{
		game.KindConnectFour:      c4,
		game.KindConnectFourStudy: c4,
		game.KindHarvest: {
			"game_time":           int(c.HarvestGameTime / time.Second),
			"ticks_per_ai_action": c.TicksPerPolicy,
		},
	}
}
