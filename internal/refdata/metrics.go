package refdata

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics observes reference data loads.
type Metrics struct {
	lookups  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the refdata collectors. A nil registerer uses the
// default one; collectors registered earlier are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockdesk_refdata_cache_lookups_total",
		Help: "Reference data cache lookups by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockdesk_refdata_load_duration_seconds",
		Help:    "Duration of upstream reference data loads.",
		Buckets: prometheus.DefBuckets,
	})
	m := &Metrics{lookups: lookups, duration: duration}
	if err := reg.Register(lookups); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		m.lookups = already.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(duration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		m.duration = already.ExistingCollector.(prometheus.Histogram)
	}
	return m, nil
}

func (m *Metrics) recordLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(result).Inc()
}

func (m *Metrics) observeLoad(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
