package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/julianstephens/hard75/internal/constants"
)

// ParseDate parses a date string (YYYY-MM-DD) as midnight UTC.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", dateStr, err)
	}
	return t, nil
}

// ValidateDateFormat checks if the string matches the standard date format.
func ValidateDateFormat(dateStr string) bool {
	_, err := time.Parse(constants.DateFormat, dateStr)
	return err == nil
}

// FormatDate formats the calendar date of t, ignoring its clock and zone offset.
func FormatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// Today returns the calendar date of now in its own location.
func Today(now time.Time) string {
	return FormatDate(now)
}

// DaysBetween returns the number of calendar days from start to end.
// The result is negative when end is before start.
func DaysBetween(start, end string) (int, error) {
	s, err := ParseDate(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return 0, err
	}
	// Both dates are UTC midnights, so the difference is a whole number of days.
	return int(math.Round(e.Sub(s).Hours() / 24)), nil
}

// AddDays returns date shifted by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// ChallengeEndDate returns the last day of a challenge started on start.
func ChallengeEndDate(start string) (string, error) {
	return AddDays(start, constants.ChallengeDays-1)
}

// ClampDay clamps a raw 1-based day offset into [1, ChallengeDays].
func ClampDay(day int) int {
	if day < 1 {
		return 1
	}
	if day > constants.ChallengeDays {
		return constants.ChallengeDays
	}
	return day
}

// DayNumber returns the clamped 1-based challenge day that date falls on.
func DayNumber(start, date string) (int, error) {
	offset, err := DaysBetween(start, date)
	if err != nil {
		return 0, err
	}
	return ClampDay(offset + 1), nil
}

// CurrentDay returns the challenge day for now. A start date in the future
// yields 1; anything past the final day yields ChallengeDays.
func CurrentDay(start string, now time.Time) (int, error) {
	return DayNumber(start, Today(now))
}

// ProgressPercentage returns round(day/75*100).
func ProgressPercentage(day int) int {
	return int(math.Round(float64(day) / float64(constants.ChallengeDays) * 100))
}

// DaysRemaining returns how many days are left after day.
func DaysRemaining(day int) int {
	remaining := constants.ChallengeDays - ClampDay(day)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsComplete reports whether the challenge has run past its final day.
func IsComplete(start string, now time.Time) (bool, error) {
	offset, err := DaysBetween(start, Today(now))
	if err != nil {
		return false, err
	}
	return offset >= constants.ChallengeDays, nil
}

// DatesBetween returns every date from start to end inclusive. It returns nil
// when end is before start.
func DatesBetween(start, end string) ([]string, error) {
	n, err := DaysBetween(start, end)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	s, _ := ParseDate(start) // already validated by DaysBetween
	dates := make([]string, 0, n+1)
	for i := 0; i <= n; i++ {
		dates = append(dates, FormatDate(s.AddDate(0, 0, i)))
	}
	return dates, nil
}

// LoadLocation resolves an IANA timezone name. Empty and "Local" mean the
// system timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// ClockIn returns a clock reading wall time in timezone, so that Today and
// CurrentDay roll over at that zone's midnight.
func ClockIn(timezone string, now func() time.Time) (func() time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return func() time.Time { return now().In(loc) }, nil
}
