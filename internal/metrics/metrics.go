package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pump"

var (
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "ticks_total", Help: "Deals passed to the detector"},
	)
	DroppedTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "dropped_ticks_total", Help: "Deals with unparsable price"},
	)
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "actions_total", Help: "Trade actions emitted by the detector"},
		[]string{"side"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "orders_total", Help: "Orders placed on the venue"},
		[]string{"side", "result"},
	)
	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "open_positions", Help: "Currently open positions"},
	)
	WSReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "ws_reconnects_total", Help: "Shard reconnect attempts"},
	)
	ShardsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "shards_connected", Help: "Shards with a live subscription"},
	)
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "action_queue_depth", Help: "Actions waiting for the executor"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		DroppedTicksTotal,
		ActionsTotal,
		OrdersTotal,
		OpenPositions,
		WSReconnectsTotal,
		ShardsConnected,
		QueueDepth,
	)
}

// Result лейбл для OrdersTotal.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func Handler() http.Handler {
	return promhttp.Handler()
}
