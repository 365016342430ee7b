package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager in NewManager.
type Option func(*Manager)

// WithNamespace replaces the "motionparty" namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem replaces the "engine" subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithMetricPrefix prepends prefix to every metric name.
func WithMetricPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.metricPrefix = prefix
		}
	}
}

// WithHistogramBuckets sets the millisecond buckets of the tick and
// dispatch histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithConstLabels attaches labels to every metric, e.g. the cabinet name.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		for k, v := range labels {
			m.customLabels[k] = v
		}
	}
}

// WithPrometheusRegistry registers metrics with registry instead of the
// default registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// WithRecording starts the manager with recording on or off.
func WithRecording(on bool) Option {
	return func(m *Manager) {
		m.enabled.Store(on)
	}
}

// WithGaugeRefresh sets how often polled gauges (queue size, pose
// availability) are refreshed by the caller.
func WithGaugeRefresh(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.refreshInterval.Store(int64(interval))
		}
	}
}

// SetEnabled turns the package-level recorders on or off. While off every
// Record* and Update* call is a no-op.
func SetEnabled(on bool) {
	globalManager.enabled.Store(on)
}

// Enabled reports whether the package-level recorders write.
func Enabled() bool {
	return globalManager.enabled.Load()
}

// SetRefreshInterval changes the polled gauge interval. Non-positive values
// are ignored.
func SetRefreshInterval(interval time.Duration) {
	WithGaugeRefresh(interval)(globalManager)
}

// RefreshInterval returns the polled gauge interval.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

// RefreshInterval returns the polled gauge interval of m.
func (m *Manager) RefreshInterval() time.Duration {
	return time.Duration(m.refreshInterval.Load())
}

// recording gates the package-level recorders.
func recording() bool {
	return globalManager.enabled.Load()
}
