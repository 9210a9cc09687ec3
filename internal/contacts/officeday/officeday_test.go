package officeday

import (
	"testing"
	"time"
)

var monWedFri = []time.Weekday{time.Monday, time.Wednesday, time.Friday}

// date builds a UTC date for readability in the cases below.
func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextIsStrictlyAfter(t *testing.T) {
	// 2025-01-03 is a Friday; the next office day is Monday the 6th, not the
	// same Friday.
	friday := date(2025, time.January, 3)
	got := Next(friday, monWedFri)
	want := date(2025, time.January, 6)
	if !got.Equal(want) {
		t.Fatalf("Next(Friday) = %s, want Monday %s", got, want)
	}
}

func TestNextAlwaysLandsOnOfficeDay(t *testing.T) {
	start := date(2025, time.March, 1)
	d := start
	for i := 0; i < 30; i++ {
		d = Next(d, monWedFri)
		switch d.Weekday() {
		case time.Monday, time.Wednesday, time.Friday:
		default:
			t.Fatalf("Next produced %s, a %s", d, d.Weekday())
		}
		if !d.After(start) {
			t.Fatalf("Next went backwards: %s", d)
		}
	}
}

func TestNextEmptySetFallsBack(t *testing.T) {
	tuesday := date(2025, time.January, 7)
	got := Next(tuesday, nil)
	want := date(2025, time.January, 8) // Wednesday, from the default set
	if !got.Equal(want) {
		t.Fatalf("Next with empty set = %s, want %s", got, want)
	}
}

func TestNextN(t *testing.T) {
	tuesday := date(2025, time.January, 7)
	got := NextN(3, tuesday, monWedFri)
	// Wed 8, Fri 10, Mon 13.
	want := date(2025, time.January, 13)
	if !got.Equal(want) {
		t.Fatalf("NextN(3) = %s, want %s", got, want)
	}

	single := NextN(1, tuesday, monWedFri)
	if !single.Equal(Next(tuesday, monWedFri)) {
		t.Fatal("NextN(1) must equal a single Next call")
	}
}

func TestEnforceKeepsOfficeDay(t *testing.T) {
	monday := date(2025, time.January, 6)
	if got := Enforce(monday, monWedFri); !got.Equal(monday) {
		t.Fatalf("Enforce moved an office day: %s", got)
	}

	saturday := date(2025, time.January, 4)
	got := Enforce(saturday, monWedFri)
	want := date(2025, time.January, 6)
	if !got.Equal(want) {
		t.Fatalf("Enforce(Saturday) = %s, want Monday %s", got, want)
	}
}

func TestSeasonalFollowUpRollsToNextYear(t *testing.T) {
	weekdays := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}

	// March 1 has passed by June, so the reminder rolls to next year.
	from := date(2025, time.June, 15)
	got := SeasonalFollowUp(time.March, 1, from, weekdays)
	if got.Year() != 2026 || got.Month() != time.March {
		t.Fatalf("expected a March 2026 date, got %s", got)
	}

	// Before March 1, the reminder stays in the current year.
	from = date(2025, time.January, 10)
	got = SeasonalFollowUp(time.March, 1, from, weekdays)
	if got.Year() != 2025 {
		t.Fatalf("expected a 2025 date, got %s", got)
	}
}

func TestSeasonalFollowUpLeapYearClamp(t *testing.T) {
	weekdays := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}

	// 2025 is not a leap year: Feb 29 clamps to Feb 28 (a Friday).
	got := SeasonalFollowUp(time.February, 29, date(2025, time.January, 1), weekdays)
	want := date(2025, time.February, 28)
	if !got.Equal(want) {
		t.Fatalf("non-leap year: got %s, want %s", got, want)
	}

	// 2028 is a leap year: Feb 29 is honored (a Tuesday).
	got = SeasonalFollowUp(time.February, 29, date(2028, time.January, 1), weekdays)
	want = date(2028, time.February, 29)
	if !got.Equal(want) {
		t.Fatalf("leap year: got %s, want %s", got, want)
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := DaysInMonth(2025, time.February); got != 28 {
		t.Fatalf("Feb 2025 has %d days?", got)
	}
	if got := DaysInMonth(2028, time.February); got != 29 {
		t.Fatalf("Feb 2028 has %d days?", got)
	}
	if got := DaysInMonth(2025, time.December); got != 31 {
		t.Fatalf("Dec 2025 has %d days?", got)
	}
}
