package domain

// Action enumerates the gated operations of the companion app. The set is
// closed: decisions are dispatched through the rules table, never through
// string matching with a default fallthrough.
type Action string

const (
	// ActionSendMessage sends a chat message to the companion.
	ActionSendMessage Action = "send_message"
	// ActionAccessPersona switches the companion to a different persona.
	ActionAccessPersona Action = "access_persona"
	// ActionImportData imports an external document or journal export.
	ActionImportData Action = "import_data"
	// ActionNameCompanion renames the AI companion.
	ActionNameCompanion Action = "name_companion"
	// ActionViewInsights opens the insights dashboard.
	ActionViewInsights Action = "view_insights"
)

// Actions lists every gated action.
var Actions = []Action{
	ActionSendMessage,
	ActionAccessPersona,
	ActionImportData,
	ActionNameCompanion,
	ActionViewInsights,
}

// IsValid checks if the action is a known gated operation.
func (a Action) IsValid() bool {
	switch a {
	case ActionSendMessage, ActionAccessPersona, ActionImportData,
		ActionNameCompanion, ActionViewInsights:
		return true
	default:
		return false
	}
}

// Mutating reports whether the action consumes quota when allowed. Only
// mutating actions require the atomic check-and-increment path; the rest
// are pure reads.
func (a Action) Mutating() bool {
	return a == ActionSendMessage || a == ActionImportData
}
