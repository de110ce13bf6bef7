package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "floorwatch",
			Subsystem: "monitor",
			Name:      "events_total",
			Help:      "Listing events by result",
		},
		[]string{"result"},
	)
	alertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "floorwatch",
			Subsystem: "monitor",
			Name:      "alerts_total",
			Help:      "Alert intents by kind",
		},
		[]string{"kind"},
	)
	trackedFloors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "floorwatch",
			Subsystem: "monitor",
			Name:      "tracked_floors",
			Help:      "Collections with an established floor",
		},
	)
)
