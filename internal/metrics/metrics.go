// Package metrics exposes Prometheus collectors describing status probes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "slping").
	Namespace string

	// Buckets are the histogram buckets for probe duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "slping",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collectors holds every metric a probe updates.
type Collectors struct {
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	up            *prometheus.GaugeVec
	playersOnline *prometheus.GaugeVec
	playersMax    *prometheus.GaugeVec
	protocol      *prometheus.GaugeVec
}

// New registers the collectors with the configured registry.
func New(opts ...Option) *Collectors {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Collectors{
		probesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "probes_total",
			Help:      "Total number of status probes by target and result",
		}, []string{"target", "result"}),

		probeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "probe_duration_seconds",
			Help:      "Duration of a status exchange including connect",
			Buckets:   cfg.Buckets,
		}, []string{"target"}),

		up: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "up",
			Help:      "Whether the last probe of the target succeeded",
		}, []string{"target"}),

		playersOnline: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "players_online",
			Help:      "Players online as reported by the last successful probe",
		}, []string{"target"}),

		playersMax: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "players_max",
			Help:      "Player slots as reported by the last successful probe",
		}, []string{"target"}),

		protocol: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "server_protocol_version",
			Help:      "Protocol version reported by the server",
		}, []string{"target", "version"}),
	}
}

// Observation is one probe outcome as seen by the collectors.
type Observation struct {
	Target   string
	Result   string // "ok" or an error kind
	Duration time.Duration

	// Set only when Result is "ok".
	PlayersOnline uint32
	PlayersMax    uint32
	Version       string
	Protocol      uint32
}

// ResultOK is the result label of a successful probe.
const ResultOK = "ok"

func (c *Collectors) Observe(o Observation) {
	c.probesTotal.WithLabelValues(o.Target, o.Result).Inc()
	c.probeDuration.WithLabelValues(o.Target).Observe(o.Duration.Seconds())
	if o.Result != ResultOK {
		c.up.WithLabelValues(o.Target).Set(0)
		return
	}
	c.up.WithLabelValues(o.Target).Set(1)
	c.playersOnline.WithLabelValues(o.Target).Set(float64(o.PlayersOnline))
	c.playersMax.WithLabelValues(o.Target).Set(float64(o.PlayersMax))
	c.protocol.DeletePartialMatch(prometheus.Labels{"target": o.Target})
	c.protocol.WithLabelValues(o.Target, o.Version).Set(float64(o.Protocol))
}
