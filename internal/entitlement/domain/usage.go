package domain

import (
	"time"

	"github.com/google/uuid"
)

// Quota limits for trial accounts. Premium accounts are not metered.
const (
	// TrialDailyMessageLimit is the number of companion messages a trial
	// account may send per UTC calendar day.
	TrialDailyMessageLimit = 15

	// TrialDataImportLimit is the total number of data imports a trial
	// account may perform per UTC calendar day.
	TrialDataImportLimit = 1

	// TrialInsightsWindowDays is the insights history window visible to
	// trial accounts.
	TrialInsightsWindowDays = 7
)

// Day is a UTC calendar day key in the form "2006-01-02". All day-boundary
// arithmetic in the engine uses UTC days; local-clock days would drift
// between devices near midnight.
type Day string

// DayOf returns the UTC calendar day containing t.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(time.DateOnly))
}

// Before reports whether d is an earlier calendar day than other.
// The YYYY-MM-DD form makes lexicographic order equal calendar order.
func (d Day) Before(other Day) bool {
	return string(d) < string(other)
}

// UsageField names a daily counter that can be atomically incremented.
type UsageField string

const (
	FieldMessagesSent    UsageField = "messages_sent"
	FieldDataImportsUsed UsageField = "data_imports_used"
)

// IsValid checks if the field names a known counter.
func (f UsageField) IsValid() bool {
	return f == FieldMessagesSent || f == FieldDataImportsUsed
}

// DailyUsage is the per-user, per-day usage tally. Counters are monotone
// non-decreasing within a day and reset by date comparison at read time;
// there is no background rollover job. A new day supersedes, never merges,
// the previous record.
type DailyUsage struct {
	UserID            uuid.UUID `json:"user_id"`
	Day               Day       `json:"day"`
	MessagesSent      int       `json:"messages_sent"`
	TotalMessagesSent int       `json:"total_messages_sent"`
	DataImportsUsed   int       `json:"data_imports_used"`
}

// NewDailyUsage returns a zeroed counter record for the day, carrying over
// the lifetime message total from the superseded record.
func NewDailyUsage(userID uuid.UUID, day Day, totalMessagesSent int) *DailyUsage {
	return &DailyUsage{
		UserID:            userID,
		Day:               day,
		TotalMessagesSent: totalMessagesSent,
	}
}

// Count returns the current value of the named counter.
func (u *DailyUsage) Count(field UsageField) int {
	switch field {
	case FieldMessagesSent:
		return u.MessagesSent
	case FieldDataImportsUsed:
		return u.DataImportsUsed
	default:
		return 0
	}
}
