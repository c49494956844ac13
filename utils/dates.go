package utils

import (
	"errors"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid period: use 'week', 'month', or 'year'")

// PeriodRange returns the [from, to) range for an analytics period.
// offset shifts whole periods: 0 is current, -1 previous, 1 next.
func PeriodRange(period string, offset int, now time.Time) (time.Time, time.Time, error) {
	switch period {
	case "week":
		// Weeks start on Monday.
		weekday := int(now.Weekday()+6) % 7
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, -weekday)
		from := start.AddDate(0, 0, 7*offset)
		return from, from.AddDate(0, 0, 7), nil

	case "month":
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
			AddDate(0, offset, 0)
		return from, from.AddDate(0, 1, 0), nil

	case "year":
		from := time.Date(now.Year()+offset, 1, 1, 0, 0, 0, 0, now.Location())
		return from, from.AddDate(1, 0, 0), nil

	default:
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
}
