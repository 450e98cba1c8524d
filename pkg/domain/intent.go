package domain

import "strings"

// Intent classifies what the user is asking for. The set is closed: adding an
// intent means adding a task node and the matching policy entries, not
// touching existing nodes.
type Intent string

const (
	// IntentSkill requests a personalized training routine.
	IntentSkill Intent = "skill"
	// IntentGear requests equipment recommendations.
	IntentGear Intent = "gear"
	// IntentRules requests a ruling on a game situation.
	IntentRules Intent = "rules"

	// IntentUnknown marks input the classifier could not map to a known
	// category. It routes to finalization with an unhandled-intent marker,
	// never to a task node.
	IntentUnknown Intent = "unknown"
)

// Intents lists every routable intent, in routing order.
func Intents() []Intent {
	return []Intent{IntentSkill, IntentGear, IntentRules}
}

// ParseIntent normalizes a classifier label into an Intent.
// Unrecognized labels map to IntentUnknown.
func ParseIntent(label string) Intent {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case string(IntentSkill), "skill_lab", "training":
		return IntentSkill
	case string(IntentGear), "gear_advisor", "shoe_recommendation":
		return IntentGear
	case string(IntentRules), "rule_query", "whistle":
		return IntentRules
	default:
		return IntentUnknown
	}
}

// Known reports whether the intent belongs to the routable set.
func (i Intent) Known() bool {
	switch i {
	case IntentSkill, IntentGear, IntentRules:
		return true
	}
	return false
}
