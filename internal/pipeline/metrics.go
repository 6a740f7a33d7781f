package pipeline

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds export pipeline collectors.
type Metrics struct {
	StageDuration *prometheus.HistogramVec // Seconds per stage, by stage
	ToolRuns      *prometheus.CounterVec   // Tool runs, by tool and result
	Worlds        *prometheus.CounterVec   // Worlds processed, by result
	Layers        prometheus.Counter       // Layer tiles converted
}

// World results.
const (
	resultExported = "exported"
	resultSkipped  = "skipped"
	resultFailed   = "failed"
)

// NewMetrics creates collectors and registers them with reg (if not nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dzmaps",
			Name:      "stage_duration_seconds",
			Help:      "Duration of export pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 4, 8),
		}, []string{"stage"}),
		ToolRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dzmaps",
			Name:      "tool_runs_total",
			Help:      "External tool invocations.",
		}, []string{"tool", "result"}),
		Worlds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dzmaps",
			Name:      "worlds_total",
			Help:      "Worlds processed by the exporter.",
		}, []string{"result"}),
		Layers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dzmaps",
			Name:      "layers_converted_total",
			Help:      "Satellite layer tiles converted from PAA.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.StageDuration, m.ToolRuns, m.Worlds, m.Layers)
	}

	return m
}

// observeStage records a stage duration.
func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// countWorld records a world result.
func (m *Metrics) countWorld(result string) {
	if m == nil {
		return
	}
	m.Worlds.WithLabelValues(result).Inc()
}

// countLayer records one converted layer tile.
func (m *Metrics) countLayer() {
	if m == nil {
		return
	}
	m.Layers.Inc()
}

// instrumentedRunner counts tool runs.
type instrumentedRunner struct {
	next    Runner
	metrics *Metrics
}

// Run implements Runner.
func (r instrumentedRunner) Run(ctx context.Context, c Command) (string, error) {
	out, err := r.next.Run(ctx, c)
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.metrics.ToolRuns.WithLabelValues(c.Name, result).Inc()

	return out, err
}

// Instrument wraps a Runner so every run is counted in m.
func Instrument(r Runner, m *Metrics) Runner {
	if m == nil {
		return r
	}
	return instrumentedRunner{next: r, metrics: m}
}

// ServeMetrics serves /metrics for gatherer on addr until ctx is done.
func ServeMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
