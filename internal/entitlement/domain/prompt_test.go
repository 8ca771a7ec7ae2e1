package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func promptAt(trigger TriggerCode, day int) PromptEvent {
	return PromptEvent{
		UserID:    uuid.New(),
		Trigger:   trigger,
		DayShown:  day,
		CreatedAt: time.Now().UTC(),
	}
}

func TestNextPromptThreshold_Progression(t *testing.T) {
	var history []PromptEvent

	_, due := NextPromptThreshold(TriggerTrialProgress, 2, history)
	assert.False(t, due, "no threshold reached before day 3")

	threshold, due := NextPromptThreshold(TriggerTrialProgress, 3, history)
	assert.True(t, due)
	assert.Equal(t, 3, threshold)

	history = append(history, promptAt(TriggerTrialProgress, 3))

	_, due = NextPromptThreshold(TriggerTrialProgress, 5, history)
	assert.False(t, due, "day 3 already shown, day 7 not reached")

	threshold, due = NextPromptThreshold(TriggerTrialProgress, 7, history)
	assert.True(t, due)
	assert.Equal(t, 7, threshold)
}

func TestNextPromptThreshold_SkippedThresholdFiresOnce(t *testing.T) {
	// User who never polled until day 10 gets one prompt, not three.
	threshold, due := NextPromptThreshold(TriggerTrialProgress, 10, nil)
	assert.True(t, due)
	assert.Equal(t, 3, threshold, "earliest unshown threshold fires first")

	history := []PromptEvent{promptAt(TriggerTrialProgress, 3)}
	threshold, due = NextPromptThreshold(TriggerTrialProgress, 10, history)
	assert.True(t, due)
	assert.Equal(t, 7, threshold)
}

func TestNextPromptThreshold_ExhaustedSchedule(t *testing.T) {
	history := []PromptEvent{
		promptAt(TriggerTrialProgress, 3),
		promptAt(TriggerTrialProgress, 7),
		promptAt(TriggerTrialProgress, 10),
		promptAt(TriggerTrialProgress, 13),
	}
	_, due := NextPromptThreshold(TriggerTrialProgress, 20, history)
	assert.False(t, due)
}

func TestShouldPromptOnDenial_DeduplicatesPerDay(t *testing.T) {
	assert.True(t, ShouldPromptOnDenial(TriggerMessageLimit, 4, nil))

	history := []PromptEvent{promptAt(TriggerMessageLimit, 4)}
	assert.False(t, ShouldPromptOnDenial(TriggerMessageLimit, 4, history),
		"same trigger on the same day is suppressed")
	assert.True(t, ShouldPromptOnDenial(TriggerDataImportLimit, 4, history),
		"a different trigger still prompts")
	assert.True(t, ShouldPromptOnDenial(TriggerMessageLimit, 5, history),
		"the next day prompts again")
}

func TestShouldPromptOnDenial_EmptyTrigger(t *testing.T) {
	assert.False(t, ShouldPromptOnDenial("", 4, nil))
}
