// Package metrics exposes backfill engine activity as prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codemonitor"

// Collector records engine events. Each collector owns its registry so that
// several can coexist in one process (tests, multiple servers).
type Collector struct {
	registry *prometheus.Registry

	submitted    prometheus.Counter
	pending      prometheus.Gauge
	running      prometheus.Gauge
	finished     *prometheus.CounterVec
	commits      prometheus.Counter
	flushSeconds prometheus.Histogram
	batchSize    prometheus.Histogram
	taskSeconds  *prometheus.HistogramVec
}

var _ contract.BackfillObserver = (*Collector)(nil) // Compile-time check

// NewCollector creates and registers the engine metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "backfill", Name: "tasks_submitted_total",
			Help: "Backfill tasks accepted by the engine.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "backfill", Name: "tasks_pending",
			Help: "Backfill tasks waiting for an execution slot.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "backfill", Name: "tasks_running",
			Help: "Backfill tasks currently executing.",
		}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "backfill", Name: "tasks_finished_total",
			Help: "Backfill tasks that reached a terminal state.",
		}, []string{"status"}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "backfill", Name: "commits_processed_total",
			Help: "Commits whose snapshots were flushed to the history store.",
		}),
		flushSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "backfill", Name: "batch_flush_seconds",
			Help:    "Time spent writing one batch of snapshots.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "backfill", Name: "batch_size",
			Help:    "Snapshots per flushed batch.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 6),
		}),
		taskSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "backfill", Name: "task_duration_seconds",
			Help:    "Wall time from task start to its terminal state.",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"status"}),
	}
	c.registry.MustRegister(
		c.submitted, c.pending, c.running, c.finished,
		c.commits, c.flushSeconds, c.batchSize, c.taskSeconds,
	)
	return c
}

// Registry returns the registry holding the engine metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the metrics in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// TaskSubmitted implements contract.BackfillObserver.
func (c *Collector) TaskSubmitted() {
	c.submitted.Inc()
	c.pending.Inc()
}

// TaskStarted implements contract.BackfillObserver.
func (c *Collector) TaskStarted() {
	c.pending.Dec()
	c.running.Inc()
}

// CommitsProcessed implements contract.BackfillObserver.
func (c *Collector) CommitsProcessed(n int) {
	c.commits.Add(float64(n))
}

// BatchFlushed implements contract.BackfillObserver.
func (c *Collector) BatchFlushed(size int, elapsed time.Duration) {
	c.batchSize.Observe(float64(size))
	c.flushSeconds.Observe(elapsed.Seconds())
}

// TaskFinished implements contract.BackfillObserver.
func (c *Collector) TaskFinished(status schema.TaskStatus, elapsed time.Duration) {
	c.running.Dec()
	c.finished.WithLabelValues(string(status)).Inc()
	c.taskSeconds.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

// Server serves /metrics and /healthz over HTTP.
type Server struct {
	server   *http.Server
	listener net.Listener
}

// Serve starts an HTTP server on addr in the background.
func Serve(ctx context.Context, addr string, c *Collector, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	})

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	logger.Info("metrics server listening", "addr", listener.Addr().String())
	return &Server{server: srv, listener: listener}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Close shuts the server down gracefully.
func (s *Server) Close(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}
