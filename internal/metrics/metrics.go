package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// TicksTotal counts simulation ticks (market-open only).
	TicksTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "tickerd",
		Name:      "ticks_total",
		Help:      "Simulation ticks processed.",
	})

	// PriceUpdatesTotal counts price-changed events emitted.
	PriceUpdatesTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "tickerd",
		Name:      "price_updates_total",
		Help:      "Price-changed events emitted by the simulation engine.",
	})

	// UpdatesDroppedTotal counts events dropped on a full updates buffer.
	UpdatesDroppedTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "tickerd",
		Name:      "updates_dropped_total",
		Help:      "Price-changed events dropped because the updates buffer was full.",
	})

	// BroadcastSendsTotal counts messages pushed to subscribers.
	BroadcastSendsTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "tickerd",
		Name:      "broadcast_sends_total",
		Help:      "Messages pushed to subscribed connections.",
	})

	// BroadcastErrorsTotal counts failed pushes (pruned connections).
	BroadcastErrorsTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "tickerd",
		Name:      "broadcast_errors_total",
		Help:      "Failed pushes that caused a connection to be pruned.",
	})

	// ConnectedClients tracks currently registered connections.
	ConnectedClients = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "tickerd",
		Name:      "connected_clients",
		Help:      "Currently connected WebSocket clients.",
	})

	// AlertsFiredTotal counts alerts transitioned to the fired state.
	AlertsFiredTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "tickerd",
		Name:      "alerts_fired_total",
		Help:      "Alerts that reached the fired state.",
	})
)

// Handler serves the package registry in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
