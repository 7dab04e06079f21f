package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Terminal session metrics
	SessionsActive  prometheus.Gauge
	Joins           *prometheus.CounterVec
	Exits           *prometheus.CounterVec
	LaunchDuration  prometheus.Histogram
	ResizesRejected prometheus.Counter
	InputStalls     prometheus.Counter
	BytesIn         prometheus.Counter
	BytesOut        prometheus.Counter

	// Collaborator metrics
	StateQueries       *prometheus.CounterVec
	StateQueryDuration prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	registry *prometheus.Registry
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMetrics creates a new metrics collector with its own registry.
// Separate registries keep tests and embedded relays from colliding
// on the process-wide default registerer.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &Metrics{
		startTime: time.Now(),
		registry:  registry,
		stop:      make(chan struct{}),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termrelay_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termrelay_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Terminal session metrics
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "termrelay_sessions_active",
				Help: "Number of terminal sessions with a live process",
			},
		),
		Joins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termrelay_joins_total",
				Help: "Session join attempts by result",
			},
			[]string{"result"},
		),
		Exits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termrelay_exits_total",
				Help: "Session terminations by cause",
			},
			[]string{"cause"},
		),
		LaunchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "termrelay_launch_duration_seconds",
				Help:    "Time from join request to running process",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		ResizesRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termrelay_resizes_rejected_total",
				Help: "Resize requests the PTY refused",
			},
		),
		InputStalls: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termrelay_input_stalls_total",
				Help: "Input writes held back because the child was not reading",
			},
		),
		BytesIn: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termrelay_input_bytes_total",
				Help: "Bytes written to child processes",
			},
		),
		BytesOut: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termrelay_output_bytes_total",
				Help: "Bytes read from child processes",
			},
		),

		// Collaborator metrics
		StateQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termrelay_state_queries_total",
				Help: "Orchestration state queries by result",
			},
			[]string{"result"},
		),
		StateQueryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "termrelay_state_query_duration_seconds",
				Help:    "Orchestration state query duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "termrelay_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termrelay_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "termrelay_uptime_seconds",
				Help: "Relay uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// Registry returns the registry backing the /metrics endpoint
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Close stops the uptime updater
func (m *Metrics) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		case <-m.stop:
			return
		}
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordJoin records a join attempt and, on success, how long the launch took
func (m *Metrics) RecordJoin(result string, duration time.Duration) {
	m.Joins.WithLabelValues(result).Inc()
	if result == "success" {
		m.LaunchDuration.Observe(duration.Seconds())
	}
}

// RecordExit records why a session ended
func (m *Metrics) RecordExit(cause string) {
	m.Exits.WithLabelValues(cause).Inc()
}

// RecordStateQuery records an orchestration state query
func (m *Metrics) RecordStateQuery(result string, duration time.Duration) {
	m.StateQueries.WithLabelValues(result).Inc()
	m.StateQueryDuration.Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// AddBytesIn counts bytes forwarded to a child process
func (m *Metrics) AddBytesIn(n int) {
	m.BytesIn.Add(float64(n))
}

// AddBytesOut counts bytes forwarded from a child process
func (m *Metrics) AddBytesOut(n int) {
	m.BytesOut.Add(float64(n))
}

// IncResizesRejected counts a refused resize
func (m *Metrics) IncResizesRejected() {
	m.ResizesRejected.Inc()
}

// IncInputStalls counts input held back by a full process queue
func (m *Metrics) IncInputStalls() {
	m.InputStalls.Inc()
}

// IncSessionsActive marks a session as holding a live process
func (m *Metrics) IncSessionsActive() {
	m.SessionsActive.Inc()
}

// DecSessionsActive marks a session as released
func (m *Metrics) DecSessionsActive() {
	m.SessionsActive.Dec()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
