package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/observability"
)

func TestObserverRecordsLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	observer := observability.NewObserver(reg)
	hooks := observer.Hooks()
	ctx := context.Background()

	hooks.OnNodeEnter(ctx, &domain.NodeEvent{NodeID: domain.NodeRouter})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{NodeID: domain.NodeSkill})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{NodeID: domain.NodeSkill, Err: assert.AnError})
	hooks.OnLoopback(ctx, &domain.LoopEvent{Verdict: "retry_search"})
	hooks.OnLoopback(ctx, &domain.LoopEvent{Verdict: "proceed", Forced: true})
	hooks.OnRequestDone(ctx, &domain.RequestEvent{
		Intent:  domain.IntentSkill,
		Success: true,
		Elapsed: 50 * time.Millisecond,
	})
	hooks.OnRequestDone(ctx, &domain.RequestEvent{Success: false})

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		var total float64
		for _, m := range f.GetMetric() {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
		}
		values[f.GetName()] = total
	}

	assert.Equal(t, 2.0, values["assist_node_visits_total"])
	assert.Equal(t, 1.0, values["assist_node_failures_total"])
	assert.Equal(t, 2.0, values["assist_feedback_loops_total"])
	assert.Equal(t, 1.0, values["assist_forced_proceeds_total"])
	assert.Equal(t, 2.0, values["assist_requests_total"])
}

func TestObserverRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewObserver(reg)
	assert.Panics(t, func() { observability.NewObserver(reg) },
		"duplicate registration must panic like any MustRegister")
}
