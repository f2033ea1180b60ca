// Package metrics implements Prometheus metrics for the campaign dispatcher
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	prometheusNamespace = "marketing"
	prometheusSubsystem = "dispatch"
	outcomeLabelName    = "outcome"
	providerLabelName   = "provider"
	typeLabelName       = "type"
)

var (
	metrics *Metrics
	once    sync.Once
)

// Metrics holds the prometheus.Collector instances
type Metrics struct {
	runs              *prometheus.CounterVec
	emailsSent        *prometheus.CounterVec
	emailsFailed      *prometheus.CounterVec
	recipientsClaimed prometheus.Counter
	trackingEvents    *prometheus.CounterVec
	runDuration       prometheus.Histogram
}

// Register registers the metrics with the given prometheus.Registerer
func (m *Metrics) Register(r prometheus.Registerer) {
	r.MustRegister(m.runs)
	r.MustRegister(m.emailsSent)
	r.MustRegister(m.emailsFailed)
	r.MustRegister(m.recipientsClaimed)
	r.MustRegister(m.trackingEvents)
	r.MustRegister(m.runDuration)
}

// IncRun counts a finished campaign run by how it ended
func (m *Metrics) IncRun(outcome string) {
	m.runs.With(prometheus.Labels{outcomeLabelName: outcome}).Inc()
}

// IncEmailsSent increments the metric counter for delivered emails
func (m *Metrics) IncEmailsSent(provider string) {
	m.emailsSent.With(prometheus.Labels{providerLabelName: provider}).Inc()
}

// IncEmailsFailed increments the metric counter for failed send attempts
func (m *Metrics) IncEmailsFailed(provider string) {
	m.emailsFailed.With(prometheus.Labels{providerLabelName: provider}).Inc()
}

func (m *Metrics) IncRecipientsClaimed() {
	m.recipientsClaimed.Inc()
}

func (m *Metrics) IncTrackingEvent(eventType string) {
	m.trackingEvents.With(prometheus.Labels{typeLabelName: eventType}).Inc()
}

func (m *Metrics) ObserveRunDuration(seconds float64) {
	m.runDuration.Observe(seconds)
}

// DefaultInstance returns the global Singleton instance for Metrics
func DefaultInstance() *Metrics {
	once.Do(func() {
		metrics = newMetrics()
	})
	return metrics
}

func newMetrics() *Metrics {
	return &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "runs_total",
			Help:      "The number of campaign runs by outcome.",
		}, []string{outcomeLabelName},
		),
		emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "emails_sent_total",
			Help:      "The number of campaign emails accepted by the provider.",
		}, []string{providerLabelName},
		),
		emailsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "emails_failed_total",
			Help:      "The number of campaign emails the provider rejected or never received.",
		}, []string{providerLabelName},
		),
		recipientsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "recipients_claimed_total",
			Help:      "The number of recipients claimed for the campaign.",
		}),
		trackingEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "tracking_events_total",
			Help:      "The number of open and click events received.",
		}, []string{typeLabelName},
		),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of campaign runs.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
	}
}
