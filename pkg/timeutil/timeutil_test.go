package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayPrefix(t *testing.T) {
	// 5 March 2026, 10:30 Moscow time
	ts := DateTime(2026, 3, 5, 10, 30, 0)
	assert.Equal(t, "05032026", DayPrefix(ts))

	// Single-digit day and month are zero-padded
	ts = DateTime(2026, 1, 9, 0, 0, 0)
	assert.Equal(t, "09012026", DayPrefix(ts))
}

func TestDayPrefix_ConvertsToMoscow(t *testing.T) {
	// 23:30 UTC is already the next day in Moscow (UTC+3)
	utc := time.Date(2026, 3, 5, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "06032026", DayPrefix(utc))
}

func TestSameDay(t *testing.T) {
	a := DateTime(2026, 3, 5, 0, 10, 0)
	b := DateTime(2026, 3, 5, 23, 50, 0)
	assert.True(t, SameDay(a, b))

	// 22:30 UTC on the 5th is 01:30 on the 6th in Moscow
	utc := time.Date(2026, 3, 5, 22, 30, 0, 0, time.UTC)
	assert.False(t, SameDay(a, utc))
}

func TestStartAndEndOfDay(t *testing.T) {
	ts := DateTime(2026, 3, 5, 13, 45, 12)

	start := StartOfDay(ts)
	assert.Equal(t, DateTime(2026, 3, 5, 0, 0, 0), start)

	end := EndOfDay(ts)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
	assert.True(t, SameDay(ts, end))
}

func TestAcademicYearDeadline(t *testing.T) {
	deadline := AcademicYearDeadline(DateTime(2026, 2, 1, 0, 0, 0))
	assert.Equal(t, DateTime(2026, 9, 14, 23, 59, 59), deadline)

	// The deadline tracks the year of the argument
	deadline = AcademicYearDeadline(DateTime(2027, 11, 20, 0, 0, 0))
	assert.Equal(t, 2027, deadline.Year())
}

func TestFormatDateTime(t *testing.T) {
	ts := DateTime(2026, 3, 5, 9, 7, 0)
	assert.Equal(t, "05.03.2026 09:07", FormatDateTime(ts))

	// UTC input is rendered in Moscow time
	utc := time.Date(2026, 3, 5, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, "06.03.2026 01:30", FormatDateTime(utc))
}
