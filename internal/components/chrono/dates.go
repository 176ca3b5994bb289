package chrono

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// DateRange is an inclusive [Start, End] pair of YYYY-MM-DD dates.
type DateRange struct {
	Start string
	End   string
}

func yesterdayUTC(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)
}

// TrailingYear ends yesterday (UTC) and starts on the same calendar day one year earlier.
func TrailingYear(now time.Time) DateRange {
	end := yesterdayUTC(now)
	start := end.AddDate(-1, 0, 0)
	return DateRange{Start: start.Format(DateLayout), End: end.Format(DateLayout)}
}

// TrailingDays ends yesterday (UTC) and starts `days` days before that.
func TrailingDays(now time.Time, days int) DateRange {
	end := yesterdayUTC(now)
	start := end.AddDate(0, 0, -days)
	return DateRange{Start: start.Format(DateLayout), End: end.Format(DateLayout)}
}

// DaysAhead returns the calendar date `days` days after today in `loc`, at the given
// HH:MM:SS time of day, formatted as "YYYY-MM-DD HH:MM:SS".
func DaysAhead(now time.Time, loc *time.Location, days int, timeOfDay string) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	clock, err := time.Parse(time.TimeOnly, timeOfDay)
	if err != nil {
		return "", fmt.Errorf("parse time of day %q: %w", timeOfDay, err)
	}
	local := now.In(loc)
	target := time.Date(
		local.Year(), local.Month(), local.Day()+days,
		clock.Hour(), clock.Minute(), clock.Second(), 0,
		loc,
	)
	return target.Format(DateTimeLayout), nil
}

// FileTimestamp renders an ISO-8601 UTC timestamp that is safe to embed in a file name
// (colons are replaced with dashes).
func FileTimestamp(now time.Time) string {
	iso := now.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.ReplaceAll(iso, ":", "-")
}
