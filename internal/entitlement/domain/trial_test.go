package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var trialStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func trialEnd() time.Time {
	return trialStart.Add(14 * 24 * time.Hour)
}

func TestComputeTrialPhase_MidTrial(t *testing.T) {
	now := trialStart.Add(5 * 24 * time.Hour)
	phase := ComputeTrialPhase(now, trialStart, trialEnd())

	assert.Equal(t, PhaseActive, phase.Phase)
	assert.Equal(t, 9, phase.DaysRemaining)
	assert.InDelta(t, 100.0*5/14, phase.ProgressPercent, 0.001)
}

func TestComputeTrialPhase_PartialDayRoundsUp(t *testing.T) {
	// 8 days and 1 hour left counts as 9 days remaining.
	now := trialEnd().Add(-8*24*time.Hour - time.Hour)
	phase := ComputeTrialPhase(now, trialStart, trialEnd())

	assert.Equal(t, PhaseActive, phase.Phase)
	assert.Equal(t, 9, phase.DaysRemaining)
}

func TestComputeTrialPhase_AtStart(t *testing.T) {
	phase := ComputeTrialPhase(trialStart, trialStart, trialEnd())

	assert.Equal(t, PhaseActive, phase.Phase)
	assert.Equal(t, 14, phase.DaysRemaining)
	assert.Equal(t, 0.0, phase.ProgressPercent)
}

func TestComputeTrialPhase_AtExactEnd(t *testing.T) {
	// The last instant of the window is still active.
	phase := ComputeTrialPhase(trialEnd(), trialStart, trialEnd())

	assert.Equal(t, PhaseActive, phase.Phase)
	assert.Equal(t, 0, phase.DaysRemaining)
	assert.Equal(t, 100.0, phase.ProgressPercent)
}

func TestComputeTrialPhase_Expired(t *testing.T) {
	now := trialEnd().Add(time.Second)
	phase := ComputeTrialPhase(now, trialStart, trialEnd())

	assert.Equal(t, PhaseExpired, phase.Phase)
	assert.Equal(t, 0, phase.DaysRemaining)
	assert.Equal(t, 100.0, phase.ProgressPercent)
}

func TestComputeTrialPhase_Deterministic(t *testing.T) {
	now := trialStart.Add(37 * time.Hour)
	first := ComputeTrialPhase(now, trialStart, trialEnd())
	second := ComputeTrialPhase(now, trialStart, trialEnd())

	assert.Equal(t, first, second)
}

func TestComputeTrialPhase_ProgressBounds(t *testing.T) {
	end := trialEnd()
	for _, offset := range []time.Duration{
		-48 * time.Hour, // before signup clock skew
		0,
		time.Hour,
		7 * 24 * time.Hour,
		14 * 24 * time.Hour,
	} {
		phase := ComputeTrialPhase(trialStart.Add(offset), trialStart, end)
		assert.GreaterOrEqual(t, phase.ProgressPercent, 0.0)
		assert.LessOrEqual(t, phase.ProgressPercent, 100.0)
		assert.GreaterOrEqual(t, phase.DaysRemaining, 0)
		assert.LessOrEqual(t, phase.DaysRemaining, 14)
	}
}

func TestElapsedTrialDays(t *testing.T) {
	assert.Equal(t, 0, ElapsedTrialDays(trialStart, trialStart))
	assert.Equal(t, 0, ElapsedTrialDays(trialStart.Add(23*time.Hour), trialStart))
	assert.Equal(t, 1, ElapsedTrialDays(trialStart.Add(24*time.Hour), trialStart))
	assert.Equal(t, 3, ElapsedTrialDays(trialStart.Add(3*24*time.Hour+time.Minute), trialStart))
	assert.Equal(t, 0, ElapsedTrialDays(trialStart.Add(-time.Hour), trialStart))
}
