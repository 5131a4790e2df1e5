package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/visa-scheduler/internal/internaltypes"
)

const (
	isoLayout     = "2006-01-02"
	usLayout      = "01/02/2006"
	displayLayout = "Monday, January 2, 2006"
)

// longLayouts are the textual forms the portal has used for the booked date.
var longLayouts = []string{
	"January 2, 2006",
	"2 January, 2006",
	"January 2 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"2 Jan, 2006",
}

// Date is a calendar day. The zero value is not a valid date.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate normalizes out-of-range values the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime drops the time-of-day component of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

func (d Date) Year() int          { return d.year }
func (d Date) Month() time.Month  { return d.month }
func (d Date) Day() int           { return d.day }
func (d Date) IsZero() bool       { return d == Date{} }
func (d Date) Time() time.Time    { return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC) }
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

// ISO is the zero-padded YYYY-MM-DD form written into the date picker.
func (d Date) ISO() string { return d.Time().Format(isoLayout) }

// String is the human form used in notifications, e.g. "Saturday, June 1, 2024".
func (d Date) String() string { return d.Time().Format(displayLayout) }

func ParseISO(s string) (Date, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q: %w", internaltypes.ErrInvalidDateInput, s, err)
	}
	return FromTime(t), nil
}

// ParseUS parses the MM/DD/YYYY form accepted on the command line.
func ParseUS(s string) (Date, error) {
	t, err := time.Parse(usLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q: expected MM/DD/YYYY", internaltypes.ErrInvalidDateInput, s)
	}
	return FromTime(t), nil
}

// ParseLong parses a written-out English date such as "June 1, 2024" or "1 June, 2024".
func ParseLong(s string) (Date, error) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range longLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: unrecognized date %q", internaltypes.ErrInvalidDateInput, s)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
