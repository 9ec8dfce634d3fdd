package lobby

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gameroom/internal/logger"
)

var (
	gamesStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobby_games_started_total",
			Help: "Games activated, by kind",
		},
		[]string{"kind"},
	)
	gamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobby_games_finished_total",
			Help: "Games ended, by kind and final status",
		},
		[]string{"kind", "status"},
	)
	ticksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobby_ticks_total",
			Help: "Driver ticks executed, by kind",
		},
		[]string{"kind"},
	)
	activeGames = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lobby_active_games",
			Help: "Games currently being driven",
		},
	)
	connectedUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lobby_connected_users",
			Help: "Sessions currently registered",
		},
	)
	waitingGames = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lobby_waiting_games",
			Help: "Queue length per kind, stale entries included",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(gamesStarted)
	prometheus.MustRegister(gamesFinished)
	prometheus.MustRegister(ticksTotal)
	prometheus.MustRegister(activeGames)
	prometheus.MustRegister(connectedUsers)
	prometheus.MustRegister(waitingGames)
}

// StartSweeper samples the registry gauges on the given interval until
// Shutdown. Counters are incremented inline; only the gauges need polling.
func (c *Coordinator) StartSweeper(interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-c.sweepStop:
				return
			case <-t.C:
				activeGames.Set(float64(c.active.Len()))
				connectedUsers.Set(float64(c.users.Len()))
				for kind, q := range c.waiting {
					waitingGames.WithLabelValues(string(kind)).Set(float64(q.Len()))
				}
			}
		}
	}()
	logger.Info("lobby metrics sweeper started", "interval", interval)
}
