package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zweadfx/assist/internal/runtime"
	"github.com/zweadfx/assist/pkg/domain"
)

func TestDefaultPolicyEdges(t *testing.T) {
	p := runtime.DefaultPolicy()
	assert.Equal(t, domain.NodeRouter, p.Entry())

	cases := []struct {
		name string
		from domain.NodeID
		sig  runtime.Signal
		want domain.NodeID
	}{
		{"router to skill", domain.NodeRouter, runtime.Signal(domain.IntentSkill), domain.NodeSkill},
		{"router to gear", domain.NodeRouter, runtime.Signal(domain.IntentGear), domain.NodeGear},
		{"router to rules", domain.NodeRouter, runtime.Signal(domain.IntentRules), domain.NodeRules},
		{"router unhandled", domain.NodeRouter, runtime.SignalUnhandled, domain.NodeFinalize},
		{"task to verifier", domain.NodeGear, runtime.SignalOK, domain.NodeVerify},
		{"verifier retry to named task", domain.NodeVerify, runtime.RetrySignal(domain.IntentGear), domain.NodeGear},
		{"verifier more-info to router", domain.NodeVerify, runtime.SignalMoreInfo, domain.NodeRouter},
		{"verifier proceed to finalizer", domain.NodeVerify, runtime.SignalProceed, domain.NodeFinalize},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, ok := p.Next(tc.from, tc.sig)
			require.True(t, ok)
			assert.Equal(t, tc.want, next)
		})
	}
}

func TestPolicyRejectsUnknownSignal(t *testing.T) {
	p := runtime.DefaultPolicy()

	_, ok := p.Next(domain.NodeVerify, runtime.Signal("made_up"))
	assert.False(t, ok)

	_, ok = p.Next(domain.NodeFinalize, runtime.SignalDone)
	assert.False(t, ok, "the finalizer is terminal and has no outgoing edges")
}
