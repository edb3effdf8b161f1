package collab

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "collab_connections",
		Help: "Number of live collaboration connections.",
	})

	roomsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "collab_rooms",
		Help: "Number of case rooms with at least one member.",
	})

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_events_total",
			Help: "Client events handled, by event name.",
		},
		[]string{"event"},
	)

	droppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collab_deliveries_dropped_total",
		Help: "Frames not delivered because the recipient queue was full or closed.",
	})

	persistedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collab_messages_persisted_total",
		Help: "Chat messages stored.",
	})
)

func init() {
	prometheus.MustRegister(connectionsGauge, roomsGauge, eventsTotal, droppedTotal, persistedTotal)
}

// ObserveRooms refreshes the room gauges from a registry snapshot
func ObserveRooms(s Stats) {
	connectionsGauge.Set(float64(s.Connections))
	roomsGauge.Set(float64(len(s.Rooms)))
}
