package metascan

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("metascan")

// metrics holds the collectors of one Engine.
type metrics struct {
	units    *prometheus.CounterVec
	duration prometheus.Histogram
	facts    prometheus.Gauge
}

// newMetrics builds the engine collectors and registers them with reg. A nil
// reg leaves them unregistered. Collectors already registered by another
// engine on the same registry are reused.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metascan_units_scanned_total",
			Help: "Units processed by scans, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "metascan_scan_duration_seconds",
			Help:    "Wall time of complete scans.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		facts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metascan_facts",
			Help: "Facts in the store produced by the last scan.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	if m.units, err = register(reg, m.units); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.facts, err = register(reg, m.facts); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, &ConfigError{Field: "registerer", Reason: fmt.Sprintf("registering metrics: %v", err)}
	}
	return c, nil
}
