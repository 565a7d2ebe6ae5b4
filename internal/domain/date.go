package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// Date is a calendar day without time of day. The zero value is not a valid
// date; 0001-01-01 is.
type Date struct {
	t     time.Time // always UTC midnight
	valid bool
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), valid: true}
}

// Storable dates. MySQL DATE columns hold nothing outside this range.
var (
	MinDate = NewDate(1000, time.January, 1)
	MaxDate = NewDate(9999, time.December, 31)
)

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a strict YYYY-MM-DD string. Days that do not exist in the
// given month (2021-02-30) are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return !d.valid }
func (d Date) String() string { return d.t.Format(DateLayout) }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool { return d.valid == o.valid && d.t.Equal(o.t) }

// Storable reports whether d lies within [MinDate, MaxDate].
func (d Date) Storable() bool { return d.valid && !d.Before(MinDate) && !d.After(MaxDate) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	p, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// Value stores the date as YYYY-MM-DD text, which both MySQL DATE columns and
// SQLite accept and which sorts chronologically.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("domain.Date: unsupported scan type %T", src)
	}
}

func (d *Date) scanText(s string) error {
	// drivers may hand back a full timestamp for DATE columns
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	p, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// DateRange is a closed interval of calendar days: both Begin and End belong
// to the range.
type DateRange struct {
	Begin Date
	End   Date
}

func (r DateRange) Valid() bool { return !r.Begin.After(r.End) }

// Overlaps reports whether r and o share at least one calendar day. Ranges
// that only touch on a boundary day overlap.
func (r DateRange) Overlaps(o DateRange) bool {
	return !(r.Begin.After(o.End) || r.End.Before(o.Begin))
}

func (r DateRange) String() string { return r.Begin.String() + ".." + r.End.String() }
