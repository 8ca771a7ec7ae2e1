package domain

import (
	"math"
	"time"
)

// Phase represents where the clock sits relative to the trial window.
type Phase string

const (
	PhaseActive  Phase = "active"
	PhaseExpired Phase = "expired"
)

// TrialPhase is the computed view of a trial window at a given instant.
type TrialPhase struct {
	Phase           Phase   `json:"phase"`
	DaysRemaining   int     `json:"days_remaining"`
	ProgressPercent float64 `json:"progress_percent"`
}

// ComputeTrialPhase maps (now, trialStart, trialEnd) to the trial phase.
//
// It is pure: no clock reads, no I/O, no hidden state. Server enforcement
// and client UI hints both call this single function so the same inputs can
// never yield diverging results. All arithmetic is UTC; clients must not
// substitute their local midnight.
func ComputeTrialPhase(now, trialStart, trialEnd time.Time) TrialPhase {
	if now.After(trialEnd) {
		return TrialPhase{
			Phase:           PhaseExpired,
			DaysRemaining:   0,
			ProgressPercent: 100,
		}
	}

	remaining := trialEnd.Sub(now)
	daysRemaining := int(math.Ceil(remaining.Hours() / 24))
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	window := trialEnd.Sub(trialStart)
	progress := 100.0
	if window > 0 {
		progress = 100 * float64(now.Sub(trialStart)) / float64(window)
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	return TrialPhase{
		Phase:           PhaseActive,
		DaysRemaining:   daysRemaining,
		ProgressPercent: progress,
	}
}

// ElapsedTrialDays returns the number of whole UTC days since the trial
// started, used by the upgrade prompt schedule.
func ElapsedTrialDays(now, trialStart time.Time) int {
	if now.Before(trialStart) {
		return 0
	}
	return int(now.Sub(trialStart).Hours() / 24)
}
