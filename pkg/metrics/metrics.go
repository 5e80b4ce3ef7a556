// Package metrics records run counters in a Prometheus registry. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const namespace = "headlines"

// Metrics holds the collectors for one run.
type Metrics struct {
	registry *prometheus.Registry

	sessions        *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	sessionDuration *prometheus.HistogramVec
	items           *prometheus.CounterVec
	translations    *prometheus.CounterVec
	images          *prometheus.CounterVec
	consent         *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Sessions finished, by result and failure kind.",
		}, []string{"result", "kind"}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently running.",
		}),
		sessionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall time of a session from open to release.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"result"}),
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_extracted_total",
			Help:      "Items extracted, by session.",
		}, []string{"session"}),
		translations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translations_total",
			Help:      "Title translations, by result (ok or fallback).",
		}, []string{"result"}),
		images: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_total",
			Help:      "Article images, by result (saved or failed).",
		}, []string{"result"}),
		consent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consent_prompts_total",
			Help:      "Consent prompt handling, by result (dismissed or absent).",
		}, []string{"result"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// SessionStarted marks a session as running.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

// SessionFinished records a finished session. kind is empty on success.
func (m *Metrics) SessionFinished(succeeded bool, kind string, d time.Duration) {
	if m == nil {
		return
	}
	result := "failed"
	if succeeded {
		result = "succeeded"
	}
	m.sessionsActive.Dec()
	m.sessions.WithLabelValues(result, kind).Inc()
	m.sessionDuration.WithLabelValues(result).Observe(d.Seconds())
}

// SessionRejected records a session that never started.
func (m *Metrics) SessionRejected(kind string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues("failed", kind).Inc()
}

// ItemsExtracted adds n extracted items for session.
func (m *Metrics) ItemsExtracted(session string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.items.WithLabelValues(session).Add(float64(n))
}

// Translation records one translation attempt.
func (m *Metrics) Translation(fallback bool) {
	if m == nil {
		return
	}
	if fallback {
		m.translations.WithLabelValues("fallback").Inc()
		return
	}
	m.translations.WithLabelValues("ok").Inc()
}

// Image records one image download.
func (m *Metrics) Image(saved bool) {
	if m == nil {
		return
	}
	if saved {
		m.images.WithLabelValues("saved").Inc()
		return
	}
	m.images.WithLabelValues("failed").Inc()
}

// Consent records whether a consent prompt was dismissed.
func (m *Metrics) Consent(dismissed bool) {
	if m == nil {
		return
	}
	if dismissed {
		m.consent.WithLabelValues("dismissed").Inc()
		return
	}
	m.consent.WithLabelValues("absent").Inc()
}

// WriteText writes every collected metric in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}
