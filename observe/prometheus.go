package observe

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver records per-operation counters and latency histograms.
type PrometheusObserver struct {
	ops       *prometheus.CounterVec
	retries   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheusObserver creates an observer registered against reg. Passing
// prometheus.DefaultRegisterer is the common case.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cbkit",
			Name:      "operations_total",
			Help:      "SDK operations issued, by operation and error class.",
		}, []string{"op", "error_class"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cbkit",
			Name:      "retries_total",
			Help:      "Retry attempts, by operation.",
		}, []string{"op"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cbkit",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"op"}),
	}
	reg.MustRegister(o.ops, o.retries, o.durations)
	return o
}

func (o *PrometheusObserver) OnEvent(ctx context.Context, event Event) {
	switch event.Type {
	case EventRetry:
		o.retries.WithLabelValues(event.Op).Inc()
	case EventOp, EventConnect:
		errClass := event.ErrClass
		if errClass == "" {
			errClass = "none"
		}
		o.ops.WithLabelValues(event.Op, errClass).Inc()
		if event.Duration > 0 {
			o.durations.WithLabelValues(event.Op).Observe(event.Duration.Seconds())
		}
	}
}
