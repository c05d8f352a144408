// Package observability exposes Prometheus metrics for the upload
// pipeline and the plugin socket gateway.
package observability

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for this process
type Metrics struct {
	registry *prometheus.Registry

	UploadsTotal      *prometheus.CounterVec
	PluginConnections prometheus.Gauge
	PluginMessages    *prometheus.CounterVec
	PushNotifications prometheus.Counter
}

// New creates and registers the application metrics
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soundboard_uploads_total",
			Help: "Sound uploads by outcome code",
		}, []string{"outcome"}),
		PluginConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "soundboard_plugin_connections",
			Help: "Currently open plugin socket connections",
		}),
		PluginMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soundboard_plugin_messages_total",
			Help: "Plugin protocol messages handled, by type",
		}, []string{"type"}),
		PushNotifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "soundboard_push_notifications_total",
			Help: "sounds_updated pushes delivered to connected plugins",
		}),
	}

	registry.MustRegister(
		m.UploadsTotal,
		m.PluginConnections,
		m.PluginMessages,
		m.PushNotifications,
	)

	return m
}

// Handler returns the /metrics endpoint handler
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
