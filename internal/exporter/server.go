// Package exporter serves probe results over HTTP for Prometheus to scrape.
package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Versifine/slping/internal/probe"
	"github.com/Versifine/slping/internal/slp"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	// Listen is the host:port the HTTP server binds to.
	Listen string
	// Targets are probed every Interval.
	Targets  []slp.Config
	Interval time.Duration
	Prober   *probe.Prober
	// AllowAnyTarget lets /status/{target} query hosts outside Targets.
	AllowAnyTarget bool
	// Gatherer backs /metrics. Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

type Server struct {
	opts Options
	log  *slog.Logger
	// live answers /status requests; it records no metrics so request
	// targets never become series.
	live       *probe.Prober
	configured map[string]struct{}

	mu   sync.RWMutex
	last map[string]probe.Result
}

func NewServer(opts Options) *Server {
	if opts.Prober == nil {
		opts.Prober = probe.New()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	configured := make(map[string]struct{}, len(opts.Targets))
	for _, t := range opts.Targets {
		configured[t.Address()] = struct{}{}
	}
	return &Server{
		opts:       opts,
		log:        opts.Logger,
		live:       opts.Prober.Clone(probe.WithMetrics(nil)),
		configured: configured,
		last:       make(map[string]probe.Result),
	}
}

// Handler returns the HTTP routes:
//
//	GET /metrics          Prometheus metrics
//	GET /healthz          liveness
//	GET /targets          last result per configured target
//	GET /status/{target}  live probe of host[:port], configured targets only
//	                      unless Options.AllowAnyTarget is set
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/targets", s.handleTargets)
	r.Get("/status/{target}", s.handleStatus)
	return r
}

// Start listens on opts.Listen and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting exporter", "listen", s.opts.Listen, "targets", len(s.opts.Targets), "interval", s.opts.Interval)
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln and probes the configured targets in the background.
// It returns nil once ctx is cancelled and the server has shut down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("Shutting down exporter")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		s.pollLoop(gctx)
		return nil
	})
	err := g.Wait()
	if err == nil {
		s.log.Info("Exporter stopped")
	}
	return err
}

func (s *Server) pollLoop(ctx context.Context) {
	if len(s.opts.Targets) == 0 || s.opts.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		s.Poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll probes every configured target once and stores the results.
func (s *Server) Poll(ctx context.Context) {
	results := s.opts.Prober.ProbeAll(ctx, s.opts.Targets)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, res := range results {
		s.last[res.Target] = res
	}
}

type targetSummary struct {
	Target    string  `json:"target"`
	Result    string  `json:"result"`
	Error     string  `json:"error,omitempty"`
	LatencyMS float64 `json:"latency_ms"`
	Version   string  `json:"version,omitempty"`
	Online    uint32  `json:"online"`
	Max       uint32  `json:"max"`
	MOTD      string  `json:"motd,omitempty"`
}

func summarize(res probe.Result) targetSummary {
	sum := targetSummary{
		Target:    res.Target,
		Result:    res.Outcome(),
		LatencyMS: float64(res.Latency) / float64(time.Millisecond),
	}
	if res.Err != nil {
		sum.Error = res.Err.Error()
		return sum
	}
	sum.Version = res.Status.Version.Name
	sum.Online = res.Status.Players.Online
	sum.Max = res.Status.Players.Max
	sum.MOTD = res.Status.Description.PlainText()
	return sum
}

func (s *Server) handleTargets(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	out := make([]targetSummary, 0, len(s.last))
	for _, res := range s.last {
		out = append(out, summarize(res))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	writeJSON(w, http.StatusOK, out)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg, err := slp.ParseTarget(chi.URLParam(r, "target"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if _, ok := s.configured[cfg.Address()]; !ok && !s.opts.AllowAnyTarget {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "target not configured: " + cfg.Address()})
		return
	}
	res := s.live.Probe(r.Context(), cfg)
	if res.Err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: res.Err.Error(), Kind: res.Outcome()})
		return
	}
	writeJSON(w, http.StatusOK, res.Status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
