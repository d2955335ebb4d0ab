package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the coordinator.
type Metrics struct {
	registry          *prometheus.Registry
	eventsTotal       *prometheus.CounterVec
	roomsCreatedTotal prometheus.Counter
	roomsDeletedTotal prometheus.Counter
	activeRooms       prometheus.Gauge
	broadcastsTotal   prometheus.Counter
	droppedSendsTotal prometheus.Counter
	chatRejectedTotal *prometheus.CounterVec
}

// New creates and registers Prometheus metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "together_events_total",
		Help: "Total number of inbound websocket events by type",
	}, []string{"type"})
	roomsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "together_rooms_created_total",
		Help: "Total number of rooms created",
	})
	roomsDeletedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "together_rooms_deleted_total",
		Help: "Total number of rooms deleted (explicit or empty cleanup)",
	})
	activeRooms := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "together_active_rooms",
		Help: "Number of live rooms",
	})
	broadcastsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "together_broadcasts_total",
		Help: "Total number of room-wide fan-outs",
	})
	droppedSendsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "together_dropped_sends_total",
		Help: "Total number of frames dropped on backpressure or dead connections",
	})
	chatRejectedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "together_chat_rejected_total",
		Help: "Total number of chat messages rejected by reason",
	}, []string{"reason"})

	registry.MustRegister(
		eventsTotal,
		roomsCreatedTotal,
		roomsDeletedTotal,
		activeRooms,
		broadcastsTotal,
		droppedSendsTotal,
		chatRejectedTotal,
	)

	return &Metrics{
		registry:          registry,
		eventsTotal:       eventsTotal,
		roomsCreatedTotal: roomsCreatedTotal,
		roomsDeletedTotal: roomsDeletedTotal,
		activeRooms:       activeRooms,
		broadcastsTotal:   broadcastsTotal,
		droppedSendsTotal: droppedSendsTotal,
		chatRejectedTotal: chatRejectedTotal,
	}
}

func (m *Metrics) IncEvent(eventType string) {
	m.eventsTotal.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncRoomsCreated() { m.roomsCreatedTotal.Inc() }
func (m *Metrics) IncRoomsDeleted() { m.roomsDeletedTotal.Inc() }

func (m *Metrics) SetActiveRooms(n int) { m.activeRooms.Set(float64(n)) }

func (m *Metrics) IncBroadcasts() { m.broadcastsTotal.Inc() }

func (m *Metrics) AddDroppedSends(n int) { m.droppedSendsTotal.Add(float64(n)) }

func (m *Metrics) IncChatRejected(reason string) {
	m.chatRejectedTotal.WithLabelValues(reason).Inc()
}

// Handler serves the metrics endpoint. updateGauges is called before
// each scrape to refresh gauge values (e.g. active rooms).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
