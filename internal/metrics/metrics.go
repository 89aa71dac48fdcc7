package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the poll server.
type Metrics struct {
	RoomsCreated     prometheus.Counter
	RoomsActive      prometheus.GaugeFunc
	Votes            *prometheus.CounterVec
	Broadcasts       prometheus.Counter
	ClientsConnected prometheus.Gauge
}

// New registers all collectors with reg. roomCount supplies the live room
// count for the active-rooms gauge.
func New(reg prometheus.Registerer, roomCount func() int) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RoomsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "pollbattle_rooms_created_total",
			Help: "Rooms allocated since process start.",
		}),
		RoomsActive: f.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pollbattle_rooms_active",
			Help: "Rooms currently held in the store.",
		}, func() float64 {
			if roomCount == nil {
				return 0
			}
			return float64(roomCount())
		}),
		Votes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pollbattle_votes_total",
			Help: "Vote admission attempts by outcome.",
		}, []string{"outcome"}),
		Broadcasts: f.NewCounter(prometheus.CounterOpts{
			Name: "pollbattle_broadcasts_total",
			Help: "Room-wide events fanned out to clients.",
		}),
		ClientsConnected: f.NewGauge(prometheus.GaugeOpts{
			Name: "pollbattle_clients_connected",
			Help: "Open WebSocket connections.",
		}),
	}
}
