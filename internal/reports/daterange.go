package reports

import (
	"errors"
	"fmt"
	"time"
)

const dateParamLayout = "2006-01-02"

// ErrBadRange marks an unparseable date parameter or unknown report type.
var ErrBadRange = errors.New("invalid report range")

// Range resolves a report type to its [start, end] window. An explicit
// startDate/endDate pair overrides the type. Start is midnight; end is
// clamped to the last instant of its day.
//
// daily = today, weekly = since the start of the current week (Sunday),
// monthly = since the 1st.
func Range(reportType, startDate, endDate string, now time.Time) (time.Time, time.Time, error) {
	end := endOfDay(now)

	if startDate != "" && endDate != "" {
		s, err := time.ParseInLocation(dateParamLayout, startDate, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid startDate", ErrBadRange)
		}
		e, err := time.ParseInLocation(dateParamLayout, endDate, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid endDate", ErrBadRange)
		}
		return startOfDay(s), endOfDay(e), nil
	}

	switch reportType {
	case "daily":
		return startOfDay(now), end, nil
	case "weekly":
		weekStart := now.AddDate(0, 0, -int(now.Weekday()))
		return startOfDay(weekStart), end, nil
	case "monthly":
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return monthStart, end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown report type %q", ErrBadRange, reportType)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
