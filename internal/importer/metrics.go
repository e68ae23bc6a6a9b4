package importer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Import outcomes recorded on the imports counter.
const (
	OutcomeCompleted         = "completed"
	OutcomeDuplicate         = "duplicate"
	OutcomeInvalid           = "invalid"
	OutcomeFailedPersistence = "failed_persistence"
)

// Metrics are the importer's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	imports  *prometheus.CounterVec
	players  prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cogmetrics",
			Name:      "imports_total",
			Help:      "Mega-file imports by outcome.",
		}, []string{"outcome"}),
		players: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cogmetrics",
			Name:      "players_processed_total",
			Help:      "Player subsets committed by successful imports.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cogmetrics",
			Name:      "import_duration_seconds",
			Help:      "Wall time of one import, validation through commit.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.imports, m.players, m.duration)
	}
	return m
}

func (m *Metrics) observe(res *Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(res.Outcome()).Inc()
	if res.Success {
		m.players.Add(float64(res.PlayersProcessed))
	}
	m.duration.Observe(elapsed.Seconds())
}
