package cplscheme

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes a coupling scheme's live state as Prometheus gauges, so a
// participant's existing metrics endpoint can chart coupling progress
// alongside its own solver metrics.
type Metrics struct {
	Time       prometheus.Gauge
	Timesteps  prometheus.Gauge
	Iteration  prometheus.Gauge
	Converged  prometheus.Gauge
}

// NewMetrics registers one gauge set under name (the scheme's Name) into reg.
func NewMetrics(reg prometheus.Registerer, name string) *Metrics {
	m := &Metrics{
		Time: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gocouple", Subsystem: "scheme", Name: "time_seconds",
			ConstLabels: prometheus.Labels{"scheme": name},
			Help:        "Current coupled simulation time.",
		}),
		Timesteps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gocouple", Subsystem: "scheme", Name: "timesteps_total",
			ConstLabels: prometheus.Labels{"scheme": name},
			Help:        "Number of committed timesteps.",
		}),
		Iteration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gocouple", Subsystem: "scheme", Name: "iteration",
			ConstLabels: prometheus.Labels{"scheme": name},
			Help:        "Current sub-iteration count within the active timestep.",
		}),
		Converged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gocouple", Subsystem: "scheme", Name: "converged",
			ConstLabels: prometheus.Labels{"scheme": name},
			Help:        "1 if the active timestep has converged, 0 otherwise.",
		}),
	}
	reg.MustRegister(m.Time, m.Timesteps, m.Iteration, m.Converged)
	return m
}

// Observe snapshots a BaseScheme's bookkeeping into the gauges. Call after
// every Advance.
func (m *Metrics) Observe(b *BaseScheme) {
	m.Time.Set(b.time)
	m.Timesteps.Set(float64(b.timesteps))
	m.Iteration.Set(float64(b.iteration))
	if b.timestepComplete {
		m.Converged.Set(1)
	} else {
		m.Converged.Set(0)
	}
}
