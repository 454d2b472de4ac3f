// Package calendar provides the clock's calendar value type and the pure
// date arithmetic used by the day-difference view and the countdown timer.
package calendar

import (
	"fmt"
	"time"
)

// CalendarTime is a wall-clock reading as produced by the realtime clock.
// Year is the offset from 2000.
type CalendarTime struct {
	Second  int
	Minute  int
	Hour    int
	Day     int
	Month   int
	Weekday int // 0 = Sunday
	Year    int
}

// Date is a day-resolution calendar date. Year is the full year.
type Date struct {
	Year  int
	Month int
	Day   int
}

// FromTime converts t (in its own location) to a CalendarTime.
func FromTime(t time.Time) CalendarTime {
	return CalendarTime{
		Second:  t.Second(),
		Minute:  t.Minute(),
		Hour:    t.Hour(),
		Day:     t.Day(),
		Month:   int(t.Month()),
		Weekday: int(t.Weekday()),
		Year:    t.Year() - 2000,
	}
}

// Time converts c to a time.Time in loc.
func (c CalendarTime) Time(loc *time.Location) time.Time {
	return time.Date(2000+c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, c.Second, 0, loc)
}

// Date returns the day part of c.
func (c CalendarTime) Date() Date {
	return Date{Year: 2000 + c.Year, Month: c.Month, Day: c.Day}
}

// SecondOfDay returns the number of seconds since midnight.
func (c CalendarTime) SecondOfDay() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

// Valid reports whether every field is in range. The day is checked against
// the month length of the given year.
func (c CalendarTime) Valid() bool {
	if c.Second < 0 || c.Second > 59 || c.Minute < 0 || c.Minute > 59 || c.Hour < 0 || c.Hour > 23 {
		return false
	}
	if c.Year < 0 || c.Year > 99 || c.Month < 1 || c.Month > 12 {
		return false
	}
	return c.Day >= 1 && c.Day <= DaysInMonth(c.Month, 2000+c.Year)
}

func (c CalendarTime) String() string {
	return fmt.Sprintf("20%02d-%02d-%02d %02d:%02d:%02d", c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the length of month (1-12) in year.
func DaysInMonth(month, year int) int {
	if month < 1 || month > 12 {
		return 0
	}
	if month == 2 && IsLeap(year) {
		return 29
	}
	return monthDays[month-1]
}

// DayOfYear returns the 1-based ordinal of the given date within its year.
func DayOfYear(day, month, year int) int {
	n := day
	for m := 1; m < month && m <= 12; m++ {
		n += DaysInMonth(m, year)
	}
	return n
}

func daysInYear(year int) int {
	if IsLeap(year) {
		return 366
	}
	return 365
}

// DaysBetween returns the number of days separating a and b.
//
// The two dates are ordered, every whole year from the earlier date's year
// up to the later date's year contributes 365 or 366 days, and the result is
// adjusted by the difference in day-of-year. The result is never negative
// and DaysBetween(a, b) == DaysBetween(b, a).
func DaysBetween(a, b Date) int {
	lo, hi := a, b
	if before(hi, lo) {
		lo, hi = hi, lo
	}
	days := 0
	for y := lo.Year; y < hi.Year; y++ {
		days += daysInYear(y)
	}
	return days + DayOfYear(hi.Day, hi.Month, hi.Year) - DayOfYear(lo.Day, lo.Month, lo.Year)
}

func before(a, b Date) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	if a.Month != b.Month {
		return a.Month < b.Month
	}
	return a.Day < b.Day
}

// AddMinute returns c advanced by one minute, wrapping at midnight.
// Only the time-of-day fields change.
func AddMinute(c CalendarTime) CalendarTime {
	c.Minute++
	if c.Minute > 59 {
		c.Minute = 0
		c.Hour++
		if c.Hour > 23 {
			c.Hour = 0
		}
	}
	return c
}

// SecondsUntil returns the seconds from now until target, using time of
// day only. A target that is behind now by less than twelve hours counts as
// reached and returns 0; anything further behind is taken to be after the
// next midnight.
func SecondsUntil(now, target CalendarTime) int {
	const day = 24 * 3600
	diff := target.SecondOfDay() - now.SecondOfDay()
	if diff < 0 {
		if diff > -day/2 {
			return 0
		}
		diff += day
	}
	return diff
}
