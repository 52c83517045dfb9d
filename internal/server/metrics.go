package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the server's Prometheus instruments. All counters are
// incremented on the owning game's serialization point, so no further
// synchronization is needed beyond what the client library provides.
type Metrics struct {
	GamesActive    prometheus.Gauge
	SessionsActive prometheus.Gauge
	HandsCompleted prometheus.Counter
	HandsAborted   prometheus.Counter
	Actions        *prometheus.CounterVec // by action type
	ForcedDefaults *prometheus.CounterVec // by reason
	AckTimeouts    prometheus.Counter
	EventsEmitted  *prometheus.CounterVec // by event type
	RateLimited    prometheus.Counter
}

// NewMetrics registers the instruments with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GamesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trainer_games_active",
			Help: "Games currently registered.",
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trainer_sessions_active",
			Help: "Open websocket sessions.",
		}),
		HandsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "trainer_hands_completed_total",
			Help: "Hands settled, including fold-outs.",
		}),
		HandsAborted: factory.NewCounter(prometheus.CounterOpts{
			Name: "trainer_hands_aborted_total",
			Help: "Hands rolled back after an invariant breach.",
		}),
		Actions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trainer_actions_total",
			Help: "Applied actions by type.",
		}, []string{"action"}),
		ForcedDefaults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trainer_forced_defaults_total",
			Help: "Engine-substituted default actions by reason.",
		}, []string{"reason"}),
		AckTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "trainer_ack_timeouts_total",
			Help: "Gated events advanced without a client ack.",
		}),
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trainer_events_emitted_total",
			Help: "Server events emitted by type.",
		}, []string{"type"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "trainer_sessions_rate_limited_total",
			Help: "Sessions closed for exceeding the inbound rate limit.",
		}),
	}
}
