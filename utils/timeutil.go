package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var timePattern = regexp.MustCompile(`\d{1,2}:\d{2}(?::\d{2})?`)

// ParseHourMinute parses a clock value coming from clients or the database.
// Accepts "15:04", "15:04:05" and full datetime strings (MySQL and ISO forms).
func ParseHourMinute(value string) (int, int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, 0, fmt.Errorf("time value cannot be empty")
	}

	layout := "15:04"
	if colonCount := strings.Count(value, ":"); colonCount >= 2 {
		layout = "15:04:05"
	}

	if t, err := time.Parse(layout, value); err == nil {
		return t.Hour(), t.Minute(), nil
	} else {
		fallbackLayouts := []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006-01-02 15:04",
			"2006-01-02T15:04",
		}

		for _, layout := range fallbackLayouts {
			if parsed, altErr := time.Parse(layout, value); altErr == nil {
				return parsed.Hour(), parsed.Minute(), nil
			}
		}

		if match := timePattern.FindString(value); match != "" && match != value {
			return ParseHourMinute(match)
		}

		return 0, 0, fmt.Errorf("invalid time format %q: %w", value, err)
	}
}

// MinutesOfDay converts a clock value to minutes since midnight.
func MinutesOfDay(value string) (int, error) {
	h, m, err := ParseHourMinute(value)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// FormatMinutes renders minutes since midnight as "HH:MM".
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	// 24:00 is a valid end-of-day bound for slots
	if minutes > 24*60 {
		minutes = 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DateOnly truncates a timestamp to its date in the local zone.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether two timestamps fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(value))
}

// UpcomingWeekdayDates lists the next count dates on or after from that fall
// on the given weekday (0=Sunday through 6=Saturday).
func UpcomingWeekdayDates(from time.Time, weekday int, count int) []time.Time {
	if weekday < 0 || weekday > 6 {
		return nil
	}
	day := DateOnly(from)
	for int(day.Weekday()) != weekday {
		day = day.AddDate(0, 0, 1)
	}
	dates := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		dates = append(dates, day.AddDate(0, 0, 7*i))
	}
	return dates
}
