package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zweadfx/assist/pkg/domain"
)

func TestParseIntent(t *testing.T) {
	cases := []struct {
		label string
		want  domain.Intent
	}{
		{"skill", domain.IntentSkill},
		{"SKILL", domain.IntentSkill},
		{"skill_lab", domain.IntentSkill},
		{" gear ", domain.IntentGear},
		{"shoe_recommendation", domain.IntentGear},
		{"rule_query", domain.IntentRules},
		{"weather", domain.IntentUnknown},
		{"", domain.IntentUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, domain.ParseIntent(tc.label), "label %q", tc.label)
	}
}

func TestIntentKnown(t *testing.T) {
	for _, i := range domain.Intents() {
		assert.True(t, i.Known())
	}
	assert.False(t, domain.IntentUnknown.Known())
	assert.False(t, domain.Intent("").Known())
}

func TestLastUserMessage(t *testing.T) {
	state := domain.NewState("r", []domain.Message{
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleAssistant, Content: "reply"},
		{Role: domain.RoleUser, Content: "second"},
	}, nil)

	msg, ok := state.LastUserMessage()
	require.True(t, ok)
	assert.Equal(t, "second", msg.Content)

	empty := domain.NewState("r", nil, nil)
	_, ok = empty.LastUserMessage()
	assert.False(t, ok)
}

func TestSnapshotRestoreContext(t *testing.T) {
	state := domain.NewState("r", nil, nil)
	state.Context = []domain.Evidence{{Source: "a.md", Score: 0.9}}

	snap := state.SnapshotContext()
	state.Context = append(state.Context, domain.Evidence{Source: "b.md"})
	state.Context[0].Score = 0.1

	state.RestoreContext(snap)
	require.Len(t, state.Context, 1)
	assert.Equal(t, 0.9, state.Context[0].Score, "snapshot must be a copy, not an alias")

	nilState := domain.NewState("r", nil, nil)
	assert.Nil(t, nilState.SnapshotContext())
}

func TestEnvelopes(t *testing.T) {
	state := domain.NewState("r", nil, nil)
	state.Intent = domain.IntentGear
	state.LoopCount = 1
	state.TaskInvocations = 2
	state.BestEffort = true
	state.FinalOutput = &domain.Output{Text: "answer", Sources: []string{"gear.md"}}

	env := domain.NewSuccessEnvelope(state)
	assert.True(t, env.Success)
	require.NotNil(t, env.Data)
	assert.Equal(t, "answer", env.Data.Text)
	assert.Nil(t, env.Error)
	assert.Equal(t, domain.IntentGear, env.Meta.Intent)
	assert.Equal(t, 1, env.Meta.LoopCount)
	assert.Equal(t, 2, env.Meta.TaskInvocations)
	assert.True(t, env.Meta.BestEffort)
	assert.Equal(t, []string{"gear.md"}, env.Meta.Sources)

	fail := domain.NewErrorEnvelope(domain.CodeInternal, "request could not be completed", state)
	assert.False(t, fail.Success)
	assert.Nil(t, fail.Data)
	require.NotNil(t, fail.Error)
	assert.Equal(t, domain.CodeInternal, fail.Error.Code)

	// A nil state still yields a well-formed envelope.
	bare := domain.NewErrorEnvelope(domain.CodeInvalidRequest, "missing question", nil)
	assert.False(t, bare.Success)
	assert.Equal(t, domain.CodeInvalidRequest, bare.Error.Code)
}
