// Package probe runs status queries against many servers, one connection each.
package probe

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Versifine/slping/internal/metrics"
	"github.com/Versifine/slping/internal/slp"
)

const tracerName = "github.com/Versifine/slping/internal/probe"

const (
	DefaultTimeout     = 5 * time.Second
	DefaultConcurrency = 8
)

// Result is the outcome of probing one target.
type Result struct {
	Target  string
	Config  slp.Config
	Status  *slp.StatusResponse
	Raw     string
	Latency time.Duration
	Err     error
}

// Outcome is "ok" for a successful probe and the error kind otherwise.
func (r Result) Outcome() string {
	if r.Err == nil {
		return metrics.ResultOK
	}
	return slp.KindOf(r.Err).String()
}

type Prober struct {
	timeout     time.Duration
	concurrency int
	log         *slog.Logger
	metrics     *metrics.Collectors
	tracer      trace.Tracer
}

type Option func(*Prober)

// WithTimeout bounds connect plus exchange for each target. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		p.timeout = d
	}
}

// WithConcurrency limits how many targets ProbeAll queries at once.
func WithConcurrency(n int) Option {
	return func(p *Prober) {
		p.concurrency = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		p.log = l
	}
}

// WithMetrics records every probe into c. A nil c disables recording.
func WithMetrics(c *metrics.Collectors) Option {
	return func(p *Prober) {
		p.metrics = c
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Prober) {
		p.tracer = tp.Tracer(tracerName)
	}
}

func New(opts ...Option) *Prober {
	p := &Prober{
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		log:         slog.Default(),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.concurrency <= 0 {
		p.concurrency = 1
	}
	return p
}

// Clone returns a copy of p with opts applied on top of its settings.
func (p *Prober) Clone(opts ...Option) *Prober {
	c := *p
	for _, opt := range opts {
		opt(&c)
	}
	if c.concurrency <= 0 {
		c.concurrency = 1
	}
	return &c
}

// Probe connects to cfg, performs one status exchange and closes the connection.
func (p *Prober) Probe(ctx context.Context, cfg slp.Config) Result {
	target := cfg.Address()
	ctx, span := p.tracer.Start(ctx, "slp.status", trace.WithAttributes(
		attribute.String("slp.target", target),
		attribute.Int64("slp.protocol_version", int64(cfg.ProtocolVersion)),
	))
	defer span.End()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	res := Result{Target: target, Config: cfg}
	start := time.Now()
	res.Status, res.Raw, res.Err = query(ctx, cfg)
	res.Latency = time.Since(start)

	obs := metrics.Observation{
		Target:   target,
		Result:   res.Outcome(),
		Duration: res.Latency,
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Outcome())
		p.log.Warn("Probe failed", "target", target, "kind", res.Outcome(), "error", res.Err)
	} else {
		obs.PlayersOnline = res.Status.Players.Online
		obs.PlayersMax = res.Status.Players.Max
		obs.Version = res.Status.Version.Name
		obs.Protocol = res.Status.Version.Protocol
		span.SetAttributes(
			attribute.String("slp.version", res.Status.Version.Name),
			attribute.Int64("slp.players_online", int64(res.Status.Players.Online)),
		)
		p.log.Info("Probe finished", "target", target, "latency", res.Latency,
			"version", res.Status.Version.Name, "online", res.Status.Players.Online, "max", res.Status.Players.Max)
	}
	if p.metrics != nil {
		p.metrics.Observe(obs)
	}
	return res
}

// ProbeAll probes every config concurrently and returns results in input order.
// Individual failures are reported in the results, never as a group error.
func (p *Prober) ProbeAll(ctx context.Context, cfgs []slp.Config) []Result {
	results := make([]Result, len(cfgs))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, cfg := range cfgs {
		g.Go(func() error {
			results[i] = p.Probe(ctx, cfg)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func query(ctx context.Context, cfg slp.Config) (*slp.StatusResponse, string, error) {
	conn, err := cfg.Connect(ctx)
	if err != nil {
		return nil, "", err
	}
	defer conn.Close()

	raw, err := conn.StatusRaw(ctx)
	if err != nil {
		return nil, "", err
	}
	status, err := slp.ParseStatus(raw)
	if err != nil {
		return nil, raw, err
	}
	return status, raw, nil
}
