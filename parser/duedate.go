package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	inDaysRegex   = regexp.MustCompile(`in (\d+) days?`)
	inWeeksRegex  = regexp.MustCompile(`in (\d+) weeks?`)
	inMonthsRegex = regexp.MustCompile(`in (\d+) months?`)
	dueISORegex   = regexp.MustCompile(`due:?\s*(\d{4}-\d{2}-\d{2})`)
	dueUSRegex    = regexp.MustCompile(`due:?\s*(\d{1,2}/\d{1,2}/\d{4})`)
)

// ExtractDueDate maps temporal phrases and explicit date literals in text to
// a concrete calendar date (start of day in now's location), or nil when
// nothing matches. Checks run in a fixed priority order because of substring
// overlaps ("next week" contains "week", "due tomorrow" contains "tomorrow").
//
// Weeks start on Sunday: "this week"/"end of week" resolve to the Saturday of
// the current week, "next week" to the Saturday after that.
func ExtractDueDate(text string, now time.Time) *time.Time {
	t := strings.ToLower(text)
	today := startOfDay(now)

	switch {
	case strings.Contains(t, "due today") || strings.Contains(t, "today"):
		return &today
	case strings.Contains(t, "due tomorrow") || strings.Contains(t, "tomorrow"):
		return datePtr(today.AddDate(0, 0, 1))
	case strings.Contains(t, "this week") || strings.Contains(t, "end of week"):
		return datePtr(endOfWeek(today))
	case strings.Contains(t, "next week"):
		return datePtr(endOfWeek(today).AddDate(0, 0, 7))
	case strings.Contains(t, "next monday") || strings.Contains(t, "monday"):
		return datePtr(nextWeekday(today, time.Monday))
	case strings.Contains(t, "next friday") || strings.Contains(t, "friday") || strings.Contains(t, "eow"):
		return datePtr(nextWeekday(today, time.Friday))
	}

	// Counts that overflow int are treated as no match, like malformed date
	// literals below.
	if m := inDaysRegex.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return datePtr(today.AddDate(0, 0, n))
		}
	}
	if m := inWeeksRegex.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return datePtr(today.AddDate(0, 0, 7*n))
		}
	}
	if m := inMonthsRegex.FindStringSubmatch(t); m != nil {
		// Calendar-month arithmetic, not a fixed 30 days.
		if n, err := strconv.Atoi(m[1]); err == nil {
			return datePtr(today.AddDate(0, n, 0))
		}
	}

	if m := dueISORegex.FindStringSubmatch(t); m != nil {
		if d, err := time.ParseInLocation("2006-01-02", m[1], now.Location()); err == nil {
			return &d
		}
		// Malformed dates are treated as no match, not an error.
	}
	if m := dueUSRegex.FindStringSubmatch(t); m != nil {
		if d, err := time.ParseInLocation("1/2/2006", m[1], now.Location()); err == nil {
			return &d
		}
	}

	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfWeek returns the Saturday of the week containing day (Sunday-start
// weeks). day must already be truncated to start of day.
func endOfWeek(day time.Time) time.Time {
	return day.AddDate(0, 0, int(time.Saturday)-int(day.Weekday()))
}

// nextWeekday returns the next occurrence of w strictly after day.
func nextWeekday(day time.Time, w time.Weekday) time.Time {
	delta := (int(w) - int(day.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return day.AddDate(0, 0, delta)
}

func datePtr(t time.Time) *time.Time {
	return &t
}
