package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Versifine/slping/internal/metrics"
	"github.com/Versifine/slping/internal/probe"
	"github.com/Versifine/slping/internal/slp"
	"github.com/Versifine/slping/internal/slp/slptest"
)

const sampleStatus = `{"version":{"name":"1.16.5","protocol":754},"players":{"max":20,"online":3},"description":{"text":"A ","extra":["server"]}}`

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T, targets []slp.Config, mutators ...func(*Options)) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := probe.New(
		probe.WithTimeout(2*time.Second),
		probe.WithLogger(log),
		probe.WithMetrics(metrics.New(metrics.WithRegistry(reg))),
	)
	opts := Options{
		Listen:   "127.0.0.1:0",
		Targets:  targets,
		Interval: time.Hour,
		Prober:   p,
		Gatherer: reg,
		Logger:   log,
	}
	for _, m := range mutators {
		m(&opts)
	}
	return NewServer(opts), reg
}

func allowAnyTarget(o *Options) {
	o.AllowAnyTarget = true
}

// seriesCount returns how many series the metric family name currently has.
func seriesCount(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return 0
}

func newStatusServer(t *testing.T) *slptest.Server {
	t.Helper()
	srv, err := slptest.NewServer(slptest.JSON(sampleStatus))
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	mc := newStatusServer(t)
	s, _ := newTestServer(t, []slp.Config{mc.Config()})

	rec := get(t, s.Handler(), "/status/"+mc.Addr())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	status, err := slp.ParseStatus(rec.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "A server", status.Description.PlainText())
	assert.Equal(t, uint32(3), status.Players.Online)
}

func TestStatusEndpointErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	refused := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg, err := slp.ParseTarget(refused)
	require.NoError(t, err)
	s, _ := newTestServer(t, []slp.Config{cfg})

	rec := get(t, s.Handler(), "/status/host:notaport")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, s.Handler(), "/status/"+refused)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "connect_failed", body.Kind)
	assert.NotEmpty(t, body.Error)
}

func TestStatusEndpointRejectsUnconfiguredTarget(t *testing.T) {
	mc := newStatusServer(t)
	s, _ := newTestServer(t, nil)

	rec := get(t, s.Handler(), "/status/"+mc.Addr())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, mc.Served(), "期望未配置的目标不会被查询")
}

func TestStatusEndpointAllowAnyTarget(t *testing.T) {
	mc := newStatusServer(t)
	s, _ := newTestServer(t, nil, allowAnyTarget)

	rec := get(t, s.Handler(), "/status/"+mc.Addr())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, mc.Served())
}

func TestStatusEndpointRecordsNoSeries(t *testing.T) {
	mc := newStatusServer(t)
	s, reg := newTestServer(t, []slp.Config{mc.Config()}, allowAnyTarget)
	h := s.Handler()

	rec := get(t, h, "/status/"+mc.Addr())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// unconfigured and unreachable
	for i := 0; i < 10; i++ {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		require.NoError(t, ln.Close())
		rec := get(t, h, "/status/"+addr)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	}

	for _, name := range []string{"slping_up", "slping_probes_total", "slping_probe_duration_seconds", "slping_players_online"} {
		assert.Equal(t, 0, seriesCount(t, reg, name), "期望 /status 请求不产生 %s 序列", name)
	}

	s.Poll(context.Background())
	assert.Equal(t, 1, seriesCount(t, reg, "slping_up"), "期望只有配置的目标产生序列")
}

func TestPollFeedsTargetsAndMetrics(t *testing.T) {
	mc := newStatusServer(t)
	s, _ := newTestServer(t, []slp.Config{mc.Config()})

	s.Poll(context.Background())

	rec := get(t, s.Handler(), "/targets")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []targetSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, mc.Addr(), got[0].Target)
	assert.Equal(t, "ok", got[0].Result)
	assert.Equal(t, "1.16.5", got[0].Version)
	assert.Equal(t, "A server", got[0].MOTD)

	rec = get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `slping_players_online{target="`+mc.Addr()+`"} 3`)
	assert.Contains(t, rec.Body.String(), `slping_up{target="`+mc.Addr()+`"} 1`)
}

func TestServeStopsOnCancel(t *testing.T) {
	mc := newStatusServer(t)
	s, _ := newTestServer(t, []slp.Config{mc.Config()})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool { return mc.Served() >= 1 }, 2*time.Second, 10*time.Millisecond)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.True(t, bytes.Equal(body, []byte("ok")))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
