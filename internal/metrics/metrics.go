package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "medremind"

type Metrics struct {
	startTime time.Time
	registry  *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram

	doses         *prometheus.CounterVec
	materialized  prometheus.Counter
	pending       prometheus.Gauge
	alerts        prometheus.Counter
	persistErrors prometheus.Counter
	activeStreams prometheus.Gauge

	requestsTotal   atomic.Int64
	requestsSuccess atomic.Int64
	requestsFailed  atomic.Int64
	requestsLimited atomic.Int64

	dosesTaken   atomic.Int64
	dosesMissed  atomic.Int64
	dosesSnoozed atomic.Int64

	materializedTotal atomic.Int64
	pendingToday      atomic.Int64
	alertsRaised      atomic.Int64
	persistFailures   atomic.Int64
	activeConnections atomic.Int64
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// New creates a metrics set registered on its own registry
func New() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
		registry:  prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by result",
		}, []string{"result"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}),
		doses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dose_transitions_total",
			Help:      "Dose status transitions by target status",
		}, []string{"status"}),
		materialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "doses_materialized_total",
			Help:      "Log entries created by the daily refresh",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "doses_pending",
			Help:      "Pending doses for the current day",
		}),
		alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "caregiver_alerts_total",
			Help:      "Caregiver alerts raised",
		}),
		persistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed writes to the backing store",
		}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_streams_active",
			Help:      "Connected event stream clients",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.doses,
		m.materialized,
		m.pending,
		m.alerts,
		m.persistErrors,
		m.activeStreams,
	)
	return m
}

// Registry exposes the collectors for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordRequest(success bool, d time.Duration) {
	m.requestsTotal.Add(1)
	result := "success"
	if success {
		m.requestsSuccess.Add(1)
	} else {
		m.requestsFailed.Add(1)
		result = "failure"
	}
	m.requests.WithLabelValues(result).Inc()
	m.requestDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordRequestLimited() {
	m.requestsLimited.Add(1)
	m.requests.WithLabelValues("limited").Inc()
}

// RecordDose counts a transition into status (taken, missed or snoozed)
func (m *Metrics) RecordDose(status string) {
	switch status {
	case "taken":
		m.dosesTaken.Add(1)
	case "missed":
		m.dosesMissed.Add(1)
	case "snoozed":
		m.dosesSnoozed.Add(1)
	default:
		return
	}
	m.doses.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordMaterialized(n int) {
	if n <= 0 {
		return
	}
	m.materializedTotal.Add(int64(n))
	m.materialized.Add(float64(n))
}

func (m *Metrics) SetPending(n int) {
	m.pendingToday.Store(int64(n))
	m.pending.Set(float64(n))
}

func (m *Metrics) RecordAlert() {
	m.alertsRaised.Add(1)
	m.alerts.Inc()
}

func (m *Metrics) RecordPersistFailure() {
	m.persistFailures.Add(1)
	m.persistErrors.Inc()
}

func (m *Metrics) IncrementActiveConnections() {
	m.activeConnections.Add(1)
	m.activeStreams.Inc()
}

func (m *Metrics) DecrementActiveConnections() {
	m.activeConnections.Add(-1)
	m.activeStreams.Dec()
}

type Snapshot struct {
	Uptime            time.Duration `json:"uptime"`
	RequestsTotal     int64         `json:"requests_total"`
	RequestsSuccess   int64         `json:"requests_success"`
	RequestsFailed    int64         `json:"requests_failed"`
	RequestsLimited   int64         `json:"requests_limited"`
	DosesTaken        int64         `json:"doses_taken"`
	DosesMissed       int64         `json:"doses_missed"`
	DosesSnoozed      int64         `json:"doses_snoozed"`
	Materialized      int64         `json:"materialized"`
	PendingToday      int64         `json:"pending_today"`
	AlertsRaised      int64         `json:"alerts_raised"`
	PersistFailures   int64         `json:"persist_failures"`
	ActiveConnections int64         `json:"active_connections"`
	SuccessRate       float64       `json:"success_rate"`
}

func (m *Metrics) Snapshot() *Snapshot {
	s := &Snapshot{
		Uptime:            time.Since(m.startTime),
		RequestsTotal:     m.requestsTotal.Load(),
		RequestsSuccess:   m.requestsSuccess.Load(),
		RequestsFailed:    m.requestsFailed.Load(),
		RequestsLimited:   m.requestsLimited.Load(),
		DosesTaken:        m.dosesTaken.Load(),
		DosesMissed:       m.dosesMissed.Load(),
		DosesSnoozed:      m.dosesSnoozed.Load(),
		Materialized:      m.materializedTotal.Load(),
		PendingToday:      m.pendingToday.Load(),
		AlertsRaised:      m.alertsRaised.Load(),
		PersistFailures:   m.persistFailures.Load(),
		ActiveConnections: m.activeConnections.Load(),
	}

	if s.RequestsTotal > 0 {
		s.SuccessRate = float64(s.RequestsSuccess) / float64(s.RequestsTotal) * 100
	}
	return s
}
