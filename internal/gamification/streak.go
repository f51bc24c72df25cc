package gamification

import "time"

// UpdateStreak applies the calendar-day streak rule on quiz completion:
// the very first quiz sets the streak to 1; a quiz on the same calendar day
// as the previous one leaves it unchanged; a quiz exactly one day after the
// previous one increments it; any larger gap resets it to 1.
//
// lastCompleted is the end time of the most recent prior result, nil when
// history is empty.
func UpdateStreak(current int, lastCompleted *time.Time, now time.Time) int {
	if lastCompleted == nil {
		return 1
	}

	today := dateOf(now)
	last := dateOf(*lastCompleted)

	switch {
	case last.Equal(today):
		if current < 1 {
			return 1
		}
		return current
	case last.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

// dateOf truncates a timestamp to its calendar date in local time.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
