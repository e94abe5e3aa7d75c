// Package term computes statutory patent expiration dates and maintenance-fee
// schedules. Every function is pure: callers pass the dates, the adjustment
// days and the instant used for the active check, and receive plain values.
package term

import (
	"time"

	"github.com/golang-sql/civil"

	"github.com/turtacn/PatentSentry/pkg/errors"
)

// DateLayout is the wire format of every date the engine accepts or emits.
const DateLayout = "2006-01-02"

// AddCalendarMonths shifts d by the given years and months. The month offset
// is normalised into whole years with floor division, so negative offsets
// borrow from the year. When the original day does not exist in the target
// month it is clamped to that month's last day (Jan 31 + 1 month = Feb 28/29).
func AddCalendarMonths(d civil.Date, years, months int) civil.Date {
	total := int(d.Month) - 1 + months
	year := d.Year + years + floorDiv(total, 12)
	month := time.Month(total-floorDiv(total, 12)*12) + 1

	day := d.Day
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return civil.Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a YYYY-MM-DD string. Impossible dates such as 2021-02-30
// are rejected with ErrCodeInvalidDate.
func ParseDate(field, value string) (civil.Date, error) {
	d, err := civil.ParseDate(value)
	if err != nil || !d.IsValid() {
		return civil.Date{}, errors.New(errors.ErrCodeInvalidDate, field+" is not a valid YYYY-MM-DD date").
			WithDetail(value).
			WithCause(err)
	}
	return d, nil
}

// ParseOptionalDate is ParseDate for fields that may be absent. An empty
// string yields nil.
func ParseOptionalDate(field, value string) (*civil.Date, error) {
	if value == "" {
		return nil, nil
	}
	d, err := ParseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// startOfDay is the first instant of d in loc.
func startOfDay(d civil.Date, loc *time.Location) time.Time {
	return d.In(loc)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
