package utils

import (
	"testing"
	"time"
)

func TestParseHourMinute(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expHour    int
		expMinutes int
	}{
		{
			name:       "simple time",
			input:      "08:30",
			expHour:    8,
			expMinutes: 30,
		},
		{
			name:       "iso datetime",
			input:      "2007-11-30T00:00:00+07:00",
			expHour:    0,
			expMinutes: 0,
		},
		{
			name:       "mysql datetime",
			input:      "2007-11-30 13:45:00",
			expHour:    13,
			expMinutes: 45,
		},
		{
			name:       "time with trailing zone",
			input:      "09:15:00Z",
			expHour:    9,
			expMinutes: 15,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h, m, err := ParseHourMinute(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h != tc.expHour || m != tc.expMinutes {
				t.Fatalf("expected %02d:%02d, got %02d:%02d", tc.expHour, tc.expMinutes, h, m)
			}
		})
	}
}

func TestParseHourMinuteInvalid(t *testing.T) {
	if _, _, err := ParseHourMinute("invalid"); err == nil {
		t.Fatalf("expected error for invalid input")
	}
}

func TestMinutesOfDayRoundTrip(t *testing.T) {
	tests := []struct {
		input   string
		minutes int
	}{
		{"00:00", 0},
		{"09:10", 550},
		{"13:45", 825},
		{"23:59", 1439},
	}

	for _, tc := range tests {
		m, err := MinutesOfDay(tc.input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.input, err)
		}
		if m != tc.minutes {
			t.Fatalf("expected %d minutes for %q, got %d", tc.minutes, tc.input, m)
		}
		if got := FormatMinutes(m); got != tc.input {
			t.Fatalf("expected %q after round trip, got %q", tc.input, got)
		}
	}
}

func TestFormatMinutesClamps(t *testing.T) {
	if got := FormatMinutes(-10); got != "00:00" {
		t.Fatalf("expected clamp to 00:00, got %q", got)
	}
	if got := FormatMinutes(25 * 60); got != "24:00" {
		t.Fatalf("expected clamp to 24:00, got %q", got)
	}
}

func TestUpcomingWeekdayDates(t *testing.T) {
	// 2025-03-10 is a Monday
	from := time.Date(2025, 3, 10, 14, 30, 0, 0, time.Local)

	tests := []struct {
		name    string
		weekday int
		count   int
		want    []string
	}{
		{
			name:    "same weekday starts today",
			weekday: 1,
			count:   3,
			want:    []string{"2025-03-10", "2025-03-17", "2025-03-24"},
		},
		{
			name:    "later in the week",
			weekday: 4,
			count:   2,
			want:    []string{"2025-03-13", "2025-03-20"},
		},
		{
			name:    "wraps past the weekend",
			weekday: 0,
			count:   1,
			want:    []string{"2025-03-16"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := UpcomingWeekdayDates(from, tc.weekday, tc.count)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d dates, want %d", len(got), len(tc.want))
			}
			for i, day := range got {
				if day.Format("2006-01-02") != tc.want[i] {
					t.Errorf("date[%d] = %s, want %s", i, day.Format("2006-01-02"), tc.want[i])
				}
				if hh, mm, ss := day.Clock(); hh != 0 || mm != 0 || ss != 0 {
					t.Errorf("date[%d] not truncated to midnight: %v", i, day)
				}
			}
		})
	}
}

func TestUpcomingWeekdayDatesInvalidWeekday(t *testing.T) {
	if got := UpcomingWeekdayDates(time.Now(), 7, 3); got != nil {
		t.Errorf("expected nil for out-of-range weekday, got %v", got)
	}
}
