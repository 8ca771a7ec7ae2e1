package domain

import (
	"time"

	"github.com/google/uuid"
)

// PromptThresholds is the fixed set of elapsed trial days at which a
// scheduled upgrade prompt may be surfaced. Each (trigger, threshold) pair
// fires at most once per user to avoid prompt fatigue.
var PromptThresholds = []int{3, 7, 10, 13}

// TriggerTrialProgress is the trigger for schedule-driven prompts that are
// not tied to a specific denial.
const TriggerTrialProgress TriggerCode = "TRIAL_PROGRESS"

// PromptEvent records one surfaced upgrade prompt. The log is append-only
// and exists solely to suppress repeats.
type PromptEvent struct {
	UserID    uuid.UUID
	Trigger   TriggerCode
	DayShown  int
	CreatedAt time.Time
}

// NextPromptThreshold returns the earliest unshown threshold that
// elapsedDays has reached for the trigger, if any.
func NextPromptThreshold(trigger TriggerCode, elapsedDays int, history []PromptEvent) (int, bool) {
	for _, threshold := range PromptThresholds {
		if elapsedDays < threshold {
			break
		}
		if !promptShown(trigger, threshold, history) {
			return threshold, true
		}
	}
	return 0, false
}

// ShouldPromptOnDenial reports whether a genuine denial may surface a
// prompt right now, independent of the threshold schedule. Repeats of the
// same trigger are suppressed for the rest of the day.
func ShouldPromptOnDenial(trigger TriggerCode, elapsedDays int, history []PromptEvent) bool {
	if trigger == "" {
		return false
	}
	return !promptShown(trigger, elapsedDays, history)
}

func promptShown(trigger TriggerCode, day int, history []PromptEvent) bool {
	for _, event := range history {
		if event.Trigger == trigger && event.DayShown == day {
			return true
		}
	}
	return false
}
