package models

import "time"

// Recurrence is the repetition rule for bills and scheduled transactions.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// ParseRecurrence parses a canonical lower-case recurrence token.
func ParseRecurrence(s string) (Recurrence, error) {
	switch Recurrence(s) {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return Recurrence(s), nil
	}
	return "", ErrInvalidEnumValue
}

// NextDate computes the next occurrence after current.
//
// Monthly recurrence with a recurrence day targets that day in the next
// month, clamped to the last day when the month is shorter (Jan 31 →
// Feb 28/29 → Mar 31: the clamp is per step, the target day is kept).
// Monthly without a recurrence day falls back to a coarse 30 days.
// Yearly maps Feb 29 to Feb 28 in non-leap years.
func (r Recurrence) NextDate(current time.Time, recurrenceDay *int) time.Time {
	switch r {
	case RecurrenceDaily:
		return current.AddDate(0, 0, 1)
	case RecurrenceWeekly:
		return current.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		if recurrenceDay == nil {
			return current.AddDate(0, 0, 30)
		}
		year, month, _ := current.Date()
		return clampedDate(year, month+1, *recurrenceDay, current)
	case RecurrenceYearly:
		year, month, day := current.Date()
		return clampedDate(year+1, month, day, current)
	}
	return current
}

// clampedDate builds a date with the day clamped to the length of the
// target month, keeping the clock time of the reference instant.
func clampedDate(year int, month time.Month, day int, ref time.Time) time.Time {
	// Normalize the year/month pair first (month may be 13)
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfMonth.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	hour, minute, second := ref.Clock()
	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, hour, minute, second, 0, time.UTC)
}
