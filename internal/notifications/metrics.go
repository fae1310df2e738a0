package notifications

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for delivery attempts.
type Metrics struct {
	Deliveries       *prometheus.CounterVec
	DeliveryDuration *prometheus.HistogramVec
	InFlight         prometheus.Gauge
}

// NewMetrics registers the delivery metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "push_panel",
				Subsystem: "fcm",
				Name:      "deliveries_total",
				Help:      "Total number of notification sends by outcome",
			},
			[]string{"sender", "outcome"}, // outcome: success, rejected, auth_error, invalid_input
		),
		DeliveryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "push_panel",
				Subsystem: "fcm",
				Name:      "delivery_duration_seconds",
				Help:      "Duration of notification sends in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"sender"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "push_panel",
				Subsystem: "fcm",
				Name:      "deliveries_in_flight",
				Help:      "Number of sends waiting on the messaging endpoint",
			},
		),
	}
}
