package monitor

import (
	"encoding/json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xyths/opensea-floor-monitor/floor"
	"net/http"
)

type StatusConf struct {
	Listen string `json:"listen"` // e.g. ":9100", empty disables the server
}

// statusHandler serves /metrics and a JSON copy of the floors on /floors.
func statusHandler(tracker *floor.Tracker) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/floors", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tracker.Floors())
	})
	return mux
}
