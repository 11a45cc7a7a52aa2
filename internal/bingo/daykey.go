package bingo

import "time"

// DayKeyLayout is the format of a game-day key.
const DayKeyLayout = "2006-01-02"

// DefaultResetHourUTC is 01:00 at UTC+3.
const DefaultResetHourUTC = 22

// ResolveDayKey returns the game day that now falls in. A game day starts at
// boundaryHour UTC; instants before that hour belong to the previous date.
func ResolveDayKey(now time.Time, boundaryHour int) string {
	utc := now.UTC()
	if utc.Hour() < boundaryHour {
		utc = utc.AddDate(0, 0, -1)
	}
	return utc.Format(DayKeyLayout)
}

// NextReset returns the first instant after now at which the day key changes.
func NextReset(now time.Time, boundaryHour int) time.Time {
	utc := now.UTC()
	reset := time.Date(utc.Year(), utc.Month(), utc.Day(), boundaryHour, 0, 0, 0, time.UTC)
	if !reset.After(utc) {
		reset = reset.AddDate(0, 0, 1)
	}
	return reset
}
