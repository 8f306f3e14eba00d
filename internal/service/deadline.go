package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dueSoonWindow = 3 * 24 * time.Hour

// IsDeadlineOverdue reports whether the deadline has passed.
func IsDeadlineOverdue(deadline, now time.Time) bool {
	return deadline.Before(now)
}

// IsDeadlineSoon reports whether the deadline is within the next three days.
func IsDeadlineSoon(deadline, now time.Time) bool {
	diff := deadline.Sub(now)
	return diff >= 0 && diff <= dueSoonWindow
}

// FormatDeadline renders a short relative label: Today, Tomorrow,
// Overdue Nd, or a day and month. Days are calendar days in now's location.
func FormatDeadline(deadline, now time.Time) string {
	days := daysBetween(now, deadline.In(now.Location()))
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days < 0:
		return fmt.Sprintf("Overdue %dd", -days)
	}
	d := deadline.In(now.Location())
	return fmt.Sprintf("%d %s", d.Day(), d.Month().String()[:3])
}

// Greeting picks a salutation for the hour of now.
func Greeting(now time.Time) string {
	switch hour := now.Hour(); {
	case hour < 12:
		return "Good morning"
	case hour < 17:
		return "Good afternoon"
	case hour < 21:
		return "Good evening"
	default:
		return "Good night"
	}
}

// ParseDeadline understands "today", "tomorrow", "+Nd", "YYYY-MM-DD" and
// "YYYY-MM-DD HH:MM". Dates without a time resolve to the end of that day.
func ParseDeadline(input string, now time.Time) (time.Time, error) {
	value := strings.ToLower(strings.TrimSpace(input))
	loc := now.Location()
	y, m, d := now.Date()
	endOfDay := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 23, 59, 0, 0, loc)
	}

	switch {
	case value == "":
		return time.Time{}, fmt.Errorf("empty deadline")
	case value == "today":
		return endOfDay(y, m, d), nil
	case value == "tomorrow":
		return endOfDay(y, m, d+1), nil
	case strings.HasPrefix(value, "+") && strings.HasSuffix(value, "d"):
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(value, "+"), "d"))
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("invalid relative deadline %q", input)
		}
		return endOfDay(y, m, d+n), nil
	}

	if t, err := time.ParseInLocation("2006-01-02 15:04", value, loc); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid deadline %q, expected YYYY-MM-DD", input)
	}
	return endOfDay(t.Year(), t.Month(), t.Day()), nil
}
