package domain

// TriggerCode is the stable identifier naming which upgrade prompt to show
// when an action is denied. Codes are part of the client contract and must
// not change between releases.
type TriggerCode string

const (
	TriggerMessageLimit    TriggerCode = "MESSAGE_LIMIT"
	TriggerPersonaBlock    TriggerCode = "PERSONA_BLOCK"
	TriggerDataImportLimit TriggerCode = "DATA_IMPORT_LIMIT"
	TriggerAINaming        TriggerCode = "AI_NAMING"
	TriggerTrialExpired    TriggerCode = "TRIAL_EXPIRED"
)

// InsightsScope restricts an allowed view_insights decision. Insights are
// not gated as a boolean: trial accounts see a restricted window and
// expired accounts keep read-only access to what they already built.
type InsightsScope struct {
	// WindowDays limits history to the last N days. Zero means unlimited.
	WindowDays int `json:"window_days"`
	// ReadOnly blocks generating new insight entries.
	ReadOnly bool `json:"read_only"`
}

// Decision is the outcome of evaluating one gated action. It is ephemeral:
// computed fresh per request and never persisted.
type Decision struct {
	Action        Action         `json:"action"`
	Allowed       bool           `json:"allowed"`
	Reason        string         `json:"reason"`
	TriggerCode   TriggerCode    `json:"trigger_code,omitempty"`
	InsightsScope *InsightsScope `json:"scope_limit,omitempty"`
}

func allow(action Action, reason string) Decision {
	return Decision{Action: action, Allowed: true, Reason: reason}
}

func deny(action Action, reason string, trigger TriggerCode) Decision {
	return Decision{Action: action, Allowed: false, Reason: reason, TriggerCode: trigger}
}
