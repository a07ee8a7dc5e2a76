// Package timeutil provides timezone utilities for Moscow time (UTC+3).
// The institution operates on Moscow time: transfer deadlines and the daily
// request-code sequence are both defined in the local calendar day.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// MoscowTZ is the Moscow timezone (UTC+3, no DST).
// Russia abolished seasonal clock changes in 2014, so this is constant year-round.
var MoscowTZ = time.FixedZone("Europe/Moscow", 3*60*60)

// Now returns the current time in Moscow timezone.
func Now() time.Time {
	return time.Now().In(MoscowTZ)
}

// ToMoscow converts a time to Moscow timezone.
func ToMoscow(t time.Time) time.Time {
	return t.In(MoscowTZ)
}

// Date creates a time in Moscow timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, MoscowTZ)
}

// DateTime creates a time in Moscow timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, MoscowTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Moscow timezone.
func StartOfDay(t time.Time) time.Time {
	msk := ToMoscow(t)
	return time.Date(msk.Year(), msk.Month(), msk.Day(), 0, 0, 0, 0, MoscowTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Moscow timezone.
func EndOfDay(t time.Time) time.Time {
	msk := ToMoscow(t)
	return time.Date(msk.Year(), msk.Month(), msk.Day(), 23, 59, 59, 999999999, MoscowTZ)
}

// DayPrefix formats the Moscow calendar day of t as DDMMYYYY.
// This is the prefix of every transfer-request code created on that day.
func DayPrefix(t time.Time) string {
	msk := ToMoscow(t)
	return fmt.Sprintf("%02d%02d%04d", msk.Day(), int(msk.Month()), msk.Year())
}

// SameDay reports whether a and b fall on the same Moscow calendar day.
func SameDay(a, b time.Time) bool {
	am, bm := ToMoscow(a), ToMoscow(b)
	return am.Year() == bm.Year() && am.Month() == bm.Month() && am.Day() == bm.Day()
}

// AcademicYearDeadline returns the default transfer deadline for the year
// containing t: 14 September 23:59:59 Moscow time.
func AcademicYearDeadline(t time.Time) time.Time {
	msk := ToMoscow(t)
	return DateTime(msk.Year(), 9, 14, 23, 59, 59)
}

// FormatDateTime formats a time for human-readable output (Moscow time).
func FormatDateTime(t time.Time) string {
	return ToMoscow(t).Format("02.01.2006 15:04")
}
