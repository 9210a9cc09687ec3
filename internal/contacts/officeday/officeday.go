// Package officeday implements the pure date arithmetic behind task due
// dates. All functions are deterministic and operate on calendar days; time
// of day is preserved from the input date.
package officeday

import "time"

// DefaultOfficeDays is used when an organization has no office days
// configured. It keeps the scheduler from looping forever on an empty set.
var DefaultOfficeDays = []time.Weekday{time.Monday, time.Wednesday, time.Friday}

func normalize(officeDays []time.Weekday) map[time.Weekday]bool {
	if len(officeDays) == 0 {
		officeDays = DefaultOfficeDays
	}
	set := make(map[time.Weekday]bool, len(officeDays))
	for _, d := range officeDays {
		set[d] = true
	}
	return set
}

// Next returns the earliest date strictly after from whose weekday is in
// officeDays. A Friday input with {Mon,Wed,Fri} yields the following Monday.
func Next(from time.Time, officeDays []time.Weekday) time.Time {
	set := normalize(officeDays)
	d := from.AddDate(0, 0, 1)
	for !set[d.Weekday()] {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// NextN applies Next n times. n=1 is a single call; n<1 is treated as 1.
func NextN(n int, from time.Time, officeDays []time.Weekday) time.Time {
	if n < 1 {
		n = 1
	}
	d := from
	for i := 0; i < n; i++ {
		d = Next(d, officeDays)
	}
	return d
}

// Enforce returns date unchanged when its weekday is already an office day,
// otherwise the next office day after it. Used for due-now tasks that must
// still land on a bookable day.
func Enforce(date time.Time, officeDays []time.Weekday) time.Time {
	set := normalize(officeDays)
	if set[date.Weekday()] {
		return date
	}
	return Next(date, officeDays)
}

// SeasonalFollowUp computes the next occurrence of (month, day) at or after
// from, rolling to the following year when the date has already passed, then
// advances to an office day. Feb 29 clamps to Feb 28 in non-leap years.
func SeasonalFollowUp(month time.Month, day int, from time.Time, officeDays []time.Weekday) time.Time {
	year := from.Year()
	target := seasonalDate(year, month, day, from.Location())
	if target.Before(truncateToDay(from)) {
		target = seasonalDate(year+1, month, day, from.Location())
	}
	return Enforce(target, officeDays)
}

func seasonalDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	if max := DaysInMonth(year, month); day > max {
		day = max
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// DaysInMonth returns the number of days in the given month, accounting for
// leap years.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
