package domain

import "time"

// AgeOn returns the number of whole years between birth and now. Uses calendar
// arithmetic (AddDate) so a birthday counts from midnight on the day itself.
func AgeOn(birth Date, now time.Time) int {
	today := DateOf(now.UTC()).Time()
	born := birth.Time()
	if today.Before(born) {
		return 0
	}
	years := today.Year() - born.Year()
	if today.Before(born.AddDate(years, 0, 0)) {
		years--
	}
	return years
}

// IsAtLeast reports whether someone born on birth has reached the given age at now.
//
// Example:
//
//	birth := Date{Year: 2008, Month: time.March, Day: 1}
//	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) // 16th birthday
//	IsAtLeast(birth, 16, now) // returns true
func IsAtLeast(birth Date, years int, now time.Time) bool {
	return !DateOf(now.UTC()).Time().Before(birth.Time().AddDate(years, 0, 0))
}

// IsInFuture reports whether the date falls after now's calendar date.
func (d Date) IsInFuture(now time.Time) bool {
	return d.Time().After(DateOf(now.UTC()).Time())
}
