package dateutil

import (
	"math"
	"time"
)

// DaysInMonth uses day 0 of the following month, so leap years come for free.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOfMonth returns the weekday of the 1st; Sunday (0) starts the week.
func FirstWeekdayOfMonth(year int, month time.Month) time.Weekday {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
}

// WeekDates returns the seven dates of the Sunday-started week containing ref.
func WeekDates(ref Date) [7]Date {
	var week [7]Date
	start := ref.AddDays(-int(ref.Weekday()))
	for i := range week {
		week[i] = start.AddDays(i)
	}
	return week
}

// DaysUntil returns the ceiling of the number of days between now and midnight of target.
func DaysUntil(target Date, now time.Time) int {
	diff := target.In(now.Location()).Sub(now)
	return int(math.Ceil(diff.Hours() / 24))
}
