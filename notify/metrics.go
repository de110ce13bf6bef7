package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xyths/opensea-floor-monitor/alert"
)

var sendTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "floorwatch",
		Subsystem: "notify",
		Name:      "sends_total",
		Help:      "Notification attempts by channel, alert kind and result",
	},
	[]string{"channel", "kind", "result"},
)

func observe(o Outcome, in alert.Intent) {
	result := "ok"
	if o.Err != nil {
		result = "rejected"
	}
	sendTotal.WithLabelValues(o.Channel, string(in.Kind), result).Inc()
}
