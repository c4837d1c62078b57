// Package week maps calendar dates onto ISO-8601 week coordinates. Weeks
// start on Monday; week 1 is the week containing the year's first Thursday.
package week

import "time"

// DateLayout is the wire format for day values.
const DateLayout = "2006-01-02"

// Resolve returns the ISO week-numbering year and week for a date.
func Resolve(date time.Time) (year, weekNumber int) {
	return date.ISOWeek()
}

// Monday returns the Monday starting the given ISO week.
func Monday(year, weekNumber int) time.Time {
	// January 4th is always inside ISO week 1.
	anchor := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := int(anchor.Weekday())
	if offset == 0 {
		offset = 7
	}
	week1Monday := anchor.AddDate(0, 0, 1-offset)
	return week1Monday.AddDate(0, 0, (weekNumber-1)*7)
}

// Bounds returns the Monday and Sunday delimiting the given ISO week.
func Bounds(year, weekNumber int) (start, end time.Time) {
	start = Monday(year, weekNumber)
	end = start.AddDate(0, 0, 6)
	return start, end
}

// Days lists the seven ISO day strings of the week starting at start.
func Days(start time.Time) []string {
	days := make([]string, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i).Format(DateLayout)
	}
	return days
}

// Shift moves a date forward by whole weeks and resolves the result.
func Shift(date time.Time, weeks int) (year, weekNumber int) {
	return Resolve(date.AddDate(0, 0, weeks*7))
}
