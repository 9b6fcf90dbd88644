package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	saved    *prometheus.CounterVec
	rejected *prometheus.CounterVec
	deleted  prometheus.Counter
}

// NewMetrics registers the chatflow collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatflow",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		saved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatflow",
			Name:      "flows_saved_total",
			Help:      "Flow documents persisted, by edit mode.",
		}, []string{"mode"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatflow",
			Name:      "flows_rejected_total",
			Help:      "Saves refused before any write, by edit mode and reason.",
		}, []string{"mode", "reason"}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatflow",
			Name:      "chatbots_deleted_total",
			Help:      "Chatbot records deleted.",
		}),
	}
	m.registry.MustRegister(m.requests, m.saved, m.rejected, m.deleted)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns editor lifecycle hooks that feed the counters.
// Pass them to editor.WithLifecycleHooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSaved: func(_ context.Context, ev *domain.FlowEvent) {
			m.saved.WithLabelValues(string(ev.Mode)).Inc()
		},
		OnRejected: func(_ context.Context, ev *domain.FlowEvent) {
			m.rejected.WithLabelValues(string(ev.Mode), RejectReason(ev.Err)).Inc()
		},
		OnDeleted: func(context.Context, *domain.FlowEvent) {
			m.deleted.Inc()
		},
	}
}

// RejectReason classifies a save failure for metrics and API responses.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedDocument):
		return "malformed"
	case errors.Is(err, domain.ErrInvalidDocument):
		return "invalid"
	case errors.Is(err, editor.ErrNoOptions):
		return "no_options"
	case errors.Is(err, editor.ErrDocumentTooLarge):
		return "too_large"
	case errors.Is(err, editor.ErrUnknownMode):
		return "unknown_mode"
	default:
		return "other"
	}
}
