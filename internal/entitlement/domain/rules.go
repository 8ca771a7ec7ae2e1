package domain

import (
	"time"

	billing "github.com/fernhq/fern/internal/billing/domain"
)

// TrialPersonas is the set of companion personas available during the free
// trial. Every other persona requires premium.
var TrialPersonas = map[string]bool{
	"aria":  true,
	"ember": true,
}

// Params carries per-action request parameters.
type Params struct {
	// Persona is the persona being requested for access_persona.
	Persona string `json:"persona,omitempty"`
}

// Decide evaluates one gated action against the rules table.
//
// It is pure and side-effect free: identical inputs always yield the
// identical decision, on the server and on any client holding the same
// snapshot. Callers are responsible for loading fresh inputs and, for
// mutating actions, for the atomic counter increment that follows an
// allow; this function only reads.
//
//	            send     persona   import    name      insights
//	premium     allow    allow     allow     allow     allow (unscoped)
//	trial       quota    set       quota     deny      allow (7 days)
//	expired     deny     deny      deny      deny      allow (read-only)
func Decide(sub *billing.Subscription, usage *DailyUsage, now time.Time, action Action, params Params) Decision {
	if !action.IsValid() {
		return deny(action, "unknown action", "")
	}

	switch effectiveState(sub, now) {
	case billing.AccessPremium:
		return decidePremium(action)
	case billing.AccessTrial:
		return decideTrial(action, usage, params)
	default:
		return decideExpired(action)
	}
}

// effectiveState folds the computed trial phase into the subscription's
// access state so the rules table only sees premium/trial/expired.
func effectiveState(sub *billing.Subscription, now time.Time) billing.AccessState {
	state := sub.AccessState(now)
	if state == billing.AccessTrial {
		if ComputeTrialPhase(now, sub.TrialStart, sub.TrialEnd).Phase == PhaseExpired {
			return billing.AccessExpired
		}
	}
	return state
}

func decidePremium(action Action) Decision {
	d := allow(action, "premium subscription active")
	if action == ActionViewInsights {
		d.InsightsScope = &InsightsScope{}
	}
	return d
}

func decideTrial(action Action, usage *DailyUsage, params Params) Decision {
	switch action {
	case ActionSendMessage:
		if usage != nil && usage.MessagesSent >= TrialDailyMessageLimit {
			return deny(action, "daily message limit reached", TriggerMessageLimit)
		}
		return allow(action, "within trial message quota")

	case ActionAccessPersona:
		if !TrialPersonas[params.Persona] {
			return deny(action, "persona requires premium", TriggerPersonaBlock)
		}
		return allow(action, "persona included in trial")

	case ActionImportData:
		if usage != nil && usage.DataImportsUsed >= TrialDataImportLimit {
			return deny(action, "trial data import already used", TriggerDataImportLimit)
		}
		return allow(action, "within trial import quota")

	case ActionNameCompanion:
		return deny(action, "companion naming requires premium", TriggerAINaming)

	case ActionViewInsights:
		d := allow(action, "trial insights window")
		d.InsightsScope = &InsightsScope{WindowDays: TrialInsightsWindowDays}
		return d
	}
	return deny(action, "unknown action", "")
}

func decideExpired(action Action) Decision {
	if action == ActionViewInsights {
		// Users keep read-only access to insights they already built.
		d := allow(action, "read-only after trial")
		d.InsightsScope = &InsightsScope{ReadOnly: true}
		return d
	}
	return deny(action, "trial expired", TriggerTrialExpired)
}
