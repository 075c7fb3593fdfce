package clock

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the civil date format used everywhere dates cross a boundary
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a date string is not a YYYY-MM-DD calendar date
var ErrInvalidDate = errors.New("invalid date")

// Clock supplies "today" as a civil date
type Clock interface {
	Today() time.Time
}

type civilClock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a clock that reports today's date in the given timezone
func New(loc *time.Location) Clock {
	return &civilClock{loc: loc, now: time.Now}
}

func (c *civilClock) Today() time.Time {
	return CivilDate(c.now(), c.loc)
}

type fixedClock struct {
	date time.Time
}

// Fixed returns a clock that always reports the given date.
// Used for audits ("what did the roster look like on ...") and tests.
func Fixed(date time.Time) Clock {
	return &fixedClock{date: Date(date)}
}

func (c *fixedClock) Today() time.Time {
	return c.date
}

// Date truncates t to its calendar date, expressed as midnight UTC.
// All date arithmetic in the core works on values produced by Date.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CivilDate returns the calendar date of the instant t as seen in loc
func CivilDate(t time.Time, loc *time.Location) time.Time {
	return Date(t.In(loc))
}

// ParseDate parses a YYYY-MM-DD string into a civil date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders a civil date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of whole days from `from` to `to`.
// The result is negative when `to` is before `from`.
func DaysBetween(from, to time.Time) int {
	return int(Date(to).Sub(Date(from)).Hours() / 24)
}
