// Package metrics provides Prometheus metrics for the motionparty engine.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 5 * time.Second
)

// tickBuckets covers 0.05ms..~100ms, which brackets a 60Hz frame.
var tickBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 33, 66, 100} //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  atomic.Int64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Popper targets
	targetsSpawned *prometheus.CounterVec
	targetsPopped  *prometheus.CounterVec
	targetsExpired *prometheus.CounterVec
	liveTargets    prometheus.Gauge

	// Choreography moves
	moveHits           *prometheus.CounterVec
	moveMisses         *prometheus.CounterVec
	sequencesCompleted *prometheus.CounterVec

	// Rounds
	roundsStarted   *prometheus.CounterVec
	roundsCompleted *prometheus.CounterVec
	roundState      *prometheus.GaugeVec
	currentStreak   prometheus.Gauge
	highScore       *prometheus.GaugeVec

	// Tick loop
	tickDuration  prometheus.Histogram
	framesQueued  prometheus.Counter
	framesDropped prometheus.Counter
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge

	// Pose input
	poseAvailable   prometheus.Gauge
	playersDetected prometheus.Gauge
	posePolls       prometheus.Counter

	// Consumers
	sinkErrors        *prometheus.CounterVec
	dispatchLatency   prometheus.Histogram
	libraryReloads    *prometheus.CounterVec
	errorsByComponent *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "motionparty",
		subsystem:        "engine",
		histogramBuckets: tickBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)
	m.refreshInterval.Store(int64(defaultRefreshInterval))

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	m.targetsSpawned = m.counterVec("targets_spawned_total", "Targets emitted by the spawn scheduler", "category")
	m.targetsPopped = m.counterVec("targets_popped_total", "Targets popped by a tracked hand", "category")
	m.targetsExpired = m.counterVec("targets_expired_total", "Targets removed by lifetime expiry", "category")
	m.liveTargets = m.gauge("live_targets", "Targets currently owned by the lifecycle engine")

	m.moveHits = m.counterVec("move_hits_total", "Choreography moves satisfied", "sequence")
	m.moveMisses = m.counterVec("move_misses_total", "Choreography moves abandoned by timeout", "sequence")
	m.sequencesCompleted = m.counterVec("sequences_completed_total", "Choreography sequences played to the loop limit", "sequence")

	m.roundsStarted = m.counterVec("rounds_started_total", "Rounds that entered the countdown", "mode")
	m.roundsCompleted = m.counterVec("rounds_completed_total", "Rounds that reached the results screen", "mode")
	m.roundState = m.gaugeVec("round_state", "1 for the current round state, 0 otherwise", "state")
	m.currentStreak = m.gauge("current_streak", "Current hit streak of the active round")
	m.highScore = m.gaugeVec("high_score", "In-memory high score per mode key", "key")

	m.tickDuration = m.histogram("tick_duration_milliseconds", "Wall time spent in one engine step")
	m.framesQueued = m.counter("frames_queued_total", "Event frames handed to consumers")
	m.framesDropped = m.counter("frames_dropped_total", "Event frames dropped because the consumer queue was full")
	m.queueSize = m.gauge("queue_size", "Frames waiting for consumers")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum frames the consumer queue holds")

	m.poseAvailable = m.gauge("pose_available", "1 when the pose source reports a working backend")
	m.playersDetected = m.gauge("players_detected", "Players in the most recent pose snapshot")
	m.posePolls = m.counter("pose_polls_total", "Pose source polls")

	m.sinkErrors = m.counterVec("sink_errors_total", "Errors returned by event consumers", "sink")
	m.dispatchLatency = m.histogram("dispatch_latency_milliseconds", "Time to deliver one frame to all consumers")
	m.libraryReloads = m.counterVec("library_reloads_total", "Library reload attempts by result", "result")
	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "type")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
}

// Popper metrics.

// RecordTargetSpawned increments the spawn counter for a category.
func RecordTargetSpawned(category string) {
	if !recording() {
		return
	}
	globalManager.targetsSpawned.WithLabelValues(category).Inc()
}

// RecordTargetPopped increments the pop counter for a category.
func RecordTargetPopped(category string) {
	if !recording() {
		return
	}
	globalManager.targetsPopped.WithLabelValues(category).Inc()
}

// RecordTargetsExpired adds n expiries for a category.
func RecordTargetsExpired(category string, n int) {
	if !recording() {
		return
	}
	globalManager.targetsExpired.WithLabelValues(category).Add(float64(n))
}

// UpdateLiveTargets sets the live target gauge.
func UpdateLiveTargets(n int) {
	if !recording() {
		return
	}
	globalManager.liveTargets.Set(float64(n))
}

// Choreography metrics.

// RecordMoveHit increments the satisfied move counter.
func RecordMoveHit(sequence string) {
	if !recording() {
		return
	}
	globalManager.moveHits.WithLabelValues(sequence).Inc()
}

// RecordMoveMiss increments the timed-out move counter.
func RecordMoveMiss(sequence string) {
	if !recording() {
		return
	}
	globalManager.moveMisses.WithLabelValues(sequence).Inc()
}

// RecordSequenceCompleted increments the finished sequence counter.
func RecordSequenceCompleted(sequence string) {
	if !recording() {
		return
	}
	globalManager.sequencesCompleted.WithLabelValues(sequence).Inc()
}

// Round metrics.

// RecordRoundStarted increments the started round counter.
func RecordRoundStarted(mode string) {
	if !recording() {
		return
	}
	globalManager.roundsStarted.WithLabelValues(mode).Inc()
}

// RecordRoundCompleted increments the completed round counter.
func RecordRoundCompleted(mode string) {
	if !recording() {
		return
	}
	globalManager.roundsCompleted.WithLabelValues(mode).Inc()
}

// UpdateRoundState marks state as current and clears the others.
func UpdateRoundState(state string, all []string) {
	if !recording() {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		globalManager.roundState.WithLabelValues(s).Set(v)
	}
}

// UpdateCurrentStreak sets the streak gauge.
func UpdateCurrentStreak(n int) {
	if !recording() {
		return
	}
	globalManager.currentStreak.Set(float64(n))
}

// UpdateHighScore sets the high score gauge for key.
func UpdateHighScore(key string, score int) {
	if !recording() {
		return
	}
	globalManager.highScore.WithLabelValues(key).Set(float64(score))
}

// Tick loop metrics.

// RecordTickDuration records the wall time of one engine step.
func RecordTickDuration(d time.Duration) {
	if !recording() {
		return
	}
	globalManager.tickDuration.Observe(float64(d.Microseconds()) / 1000)
}

// RecordFrameQueued increments the queued frame counter.
func RecordFrameQueued() {
	if !recording() {
		return
	}
	globalManager.framesQueued.Inc()
}

// RecordFrameDropped increments the dropped frame counter.
func RecordFrameDropped() {
	if !recording() {
		return
	}
	globalManager.framesDropped.Inc()
}

// UpdateQueueSize sets the consumer queue backlog.
func UpdateQueueSize(size int) {
	if !recording() {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the consumer queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !recording() {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// Pose metrics.

// UpdatePoseAvailable records whether the pose backend works.
func UpdatePoseAvailable(ok bool) {
	if !recording() {
		return
	}
	v := 0.0
	if ok {
		v = 1
	}
	globalManager.poseAvailable.Set(v)
}

// UpdatePlayersDetected sets the detected player gauge.
func UpdatePlayersDetected(n int) {
	if !recording() {
		return
	}
	globalManager.playersDetected.Set(float64(n))
}

// RecordPosePoll increments the poll counter.
func RecordPosePoll() {
	if !recording() {
		return
	}
	globalManager.posePolls.Inc()
}

// Consumer metrics.

// RecordSinkError increments the error counter for a sink.
func RecordSinkError(sink string) {
	if !recording() {
		return
	}
	globalManager.sinkErrors.WithLabelValues(sink).Inc()
}

// RecordDispatchLatency records how long one frame took to deliver.
func RecordDispatchLatency(d time.Duration) {
	if !recording() {
		return
	}
	globalManager.dispatchLatency.Observe(float64(d.Microseconds()) / 1000)
}

// RecordLibraryReload counts a library reload with result "ok" or "error".
func RecordLibraryReload(result string) {
	if !recording() {
		return
	}
	globalManager.libraryReloads.WithLabelValues(result).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !recording() {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !recording() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !recording() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
