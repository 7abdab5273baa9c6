package bc

import (
	"github.com/AlexxIT/neolink/pkg/bc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type bcMetrics struct {
	packets *prometheus.CounterVec
	logins  *prometheus.CounterVec
	errors  *prometheus.CounterVec
	online  *prometheus.GaugeVec
}

var metrics *bcMetrics

func newMetrics(registry prometheus.Registerer) *bcMetrics {
	factory := promauto.With(registry)

	return &bcMetrics{
		packets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neolink",
			Subsystem: "bc",
			Name:      "packets_total",
			Help:      "Total number of BC packets by camera and direction",
		}, []string{"camera", "direction"}),

		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neolink",
			Subsystem: "bc",
			Name:      "logins_total",
			Help:      "Total number of successful logins by negotiated encryption",
		}, []string{"camera", "encryption"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neolink",
			Subsystem: "bc",
			Name:      "errors_total",
			Help:      "Total number of connection errors",
		}, []string{"camera"}),

		online: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "neolink",
			Subsystem: "bc",
			Name:      "online",
			Help:      "Camera session is logged in",
		}, []string{"camera"}),
	}
}

func (m *bcMetrics) listen(name string) func(msg any) {
	rx := m.packets.WithLabelValues(name, "rx")
	tx := m.packets.WithLabelValues(name, "tx")

	return func(msg any) {
		switch msg.(type) {
		case *bc.Packet:
			rx.Inc()
		case bc.Sent:
			tx.Inc()
		}
	}
}
