package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zweadfx/assist/pkg/domain"
)

// Observer exposes engine lifecycle events as Prometheus metrics.
type Observer struct {
	nodeVisits      *prometheus.CounterVec
	nodeFailures    *prometheus.CounterVec
	loopbacks       *prometheus.CounterVec
	forcedProceeds  prometheus.Counter
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loopDepth       prometheus.Histogram
}

// NewObserver creates the metric set and registers it on reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func NewObserver(reg prometheus.Registerer) *Observer {
	o := &Observer{
		nodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assist_node_visits_total",
			Help: "Total node activations, including retries.",
		}, []string{"node"}),
		nodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assist_node_failures_total",
			Help: "Node activations that returned an error.",
		}, []string{"node"}),
		loopbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assist_feedback_loops_total",
			Help: "Feedback redirections by verdict.",
		}, []string{"verdict"}),
		forcedProceeds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assist_forced_proceeds_total",
			Help: "Requests whose loop budget forced a best-effort answer.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assist_requests_total",
			Help: "Completed requests by intent and outcome.",
		}, []string{"intent", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assist_request_duration_seconds",
			Help:    "End-to-end request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"intent"}),
		loopDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assist_loop_depth",
			Help:    "Feedback loop count per completed request.",
			Buckets: []float64{0, 1, 2, 3, 4},
		}),
	}

	reg.MustRegister(
		o.nodeVisits,
		o.nodeFailures,
		o.loopbacks,
		o.forcedProceeds,
		o.requests,
		o.requestDuration,
		o.loopDepth,
	)
	return o
}

// Hooks returns the lifecycle hooks feeding this observer.
func (o *Observer) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			o.nodeVisits.WithLabelValues(string(e.NodeID)).Inc()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				o.nodeFailures.WithLabelValues(string(e.NodeID)).Inc()
			}
		},
		OnLoopback: func(_ context.Context, e *domain.LoopEvent) {
			o.loopbacks.WithLabelValues(e.Verdict).Inc()
			if e.Forced {
				o.forcedProceeds.Inc()
			}
		},
		OnRequestDone: func(_ context.Context, e *domain.RequestEvent) {
			outcome := "success"
			if !e.Success {
				outcome = "failure"
			}
			intent := string(e.Intent)
			if intent == "" {
				intent = "unknown"
			}
			o.requests.WithLabelValues(intent, outcome).Inc()
			o.requestDuration.WithLabelValues(intent).Observe(e.Elapsed.Seconds())
			o.loopDepth.Observe(float64(e.LoopCount))
		},
	}
}
