package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/udawtr/isaglobe-go/atmosphere"
)

// Collector exposes the most recently served state and query counters.
type Collector struct {
	altitudeGauge    prometheus.Gauge
	temperatureGauge prometheus.Gauge
	pressureGauge    prometheus.Gauge
	densityGauge     prometheus.Gauge
	queriesTotal     *prometheus.CounterVec
	rejectedTotal    *prometheus.CounterVec
	profileSamples   prometheus.Histogram
}

// NewCollector creates the isa_* metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	m := &Collector{
		altitudeGauge:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "isa_altitude_meters", Help: "Altitude of the last query (in meters)"}),
		temperatureGauge: prometheus.NewGauge(prometheus.GaugeOpts{Name: "isa_temperature_kelvin", Help: "Temperature at the last queried altitude (in Kelvin)"}),
		pressureGauge:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "isa_pressure_pascals", Help: "Pressure at the last queried altitude (in Pascals)"}),
		densityGauge:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "isa_density_kg_per_m3", Help: "Air density at the last queried altitude"}),
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "isa_queries_total",
				Help: "Total number of computed states by atmospheric layer",
			},
			[]string{"layer"},
		),
		rejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "isa_rejected_queries_total",
				Help: "Total number of rejected queries",
			},
			[]string{"reason"},
		),
		profileSamples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "isa_profile_samples",
			Help:    "Number of samples per profile request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	reg.MustRegister(
		m.altitudeGauge, m.temperatureGauge, m.pressureGauge, m.densityGauge,
		m.queriesTotal, m.rejectedTotal, m.profileSamples,
	)
	return m
}

// RecordState sets the gauges to s and counts it under its layer.
func (m *Collector) RecordState(s atmosphere.State) {
	m.altitudeGauge.Set(s.AltitudeM)
	m.temperatureGauge.Set(s.TemperatureK)
	m.pressureGauge.Set(s.PressurePa)
	m.densityGauge.Set(s.DensityKgM3)
	m.queriesTotal.WithLabelValues(s.Layer.String()).Inc()
}

// RecordProfile counts every sample of p without touching the gauges.
func (m *Collector) RecordProfile(p atmosphere.Profile) {
	m.profileSamples.Observe(float64(len(p.States)))
	for _, s := range p.States {
		m.queriesTotal.WithLabelValues(s.Layer.String()).Inc()
	}
}

// RecordRejected counts a query refused for reason.
func (m *Collector) RecordRejected(reason string) {
	m.rejectedTotal.WithLabelValues(reason).Inc()
}
