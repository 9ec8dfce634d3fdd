package game

import (
	"strconv"
	"time"
)

// Settings are the server-level caps injected into every instance at
// creation. They are immutable after startup.
type Settings struct {
	MaxFPS        int
	MaxGameLength time.Duration
	AgentDir      string
	Layouts       []string
}

// Params carries per-game constructor parameters merged from the server's
// per-kind defaults and the client's create request. Values come from
// decoded JSON, so the accessors tolerate float64/string representations
// the same way the config layer tolerates env strings.
type Params map[string]any

// Merge returns a copy of p overlaid with every entry of over.
func (p Params) Merge(over Params) Params {
	out := make(Params, len(p)+len(over))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

func (p Params) Bool(key string, def bool) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Seconds reads a duration expressed in seconds.
func (p Params) Seconds(key string, def time.Duration) time.Duration {
	switch v := p[key].(type) {
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(f * float64(time.Second))
		}
	}
	return def
}

func (p Params) Strings(key string, def []string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return def
			}
			out = append(out, s)
		}
		return out
	}
	return def
}
