package calendar

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day without time-of-day or zone. The zero value means
// "no date".
type Date struct {
	year  int
	month time.Month
	day   int
}

var (
	numericPattern = regexp.MustCompile(`^(\d+)-(\d+)-(\d+)$`)
	isoPattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Layouts tried when the input is not a plain year-month-day triple.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// New returns the date for the given components, or false when they do not
// name a real calendar day.
func New(year int, month time.Month, day int) (Date, bool) {
	if year < 1 || year > 9999 || month < time.January || month > time.December {
		return Date{}, false
	}
	if day < 1 || day > daysIn(year, month) {
		return Date{}, false
	}
	return Date{year: year, month: month, day: day}, true
}

// MustNew is like New but panics on invalid components. Intended for
// constants and tests.
func MustNew(year int, month time.Month, day int) Date {
	d, ok := New(year, month, day)
	if !ok {
		panic("calendar: invalid date " + strconv.Itoa(year) + "-" + strconv.Itoa(int(month)) + "-" + strconv.Itoa(day))
	}
	return d
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) Year() int          { return d.year }
func (d Date) Month() time.Month  { return d.month }
func (d Date) Day() int           { return d.day }
func (d Date) IsZero() bool       { return d.year == 0 && d.month == 0 && d.day == 0 }
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d == o }

// Compare returns -1, 0 or +1. The zero date sorts before every real date.
func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return sign(d.year - o.year)
	case d.month != o.month:
		return sign(int(d.month) - int(o.month))
	default:
		return sign(d.day - o.day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return FromTime(time.Date(d.year, d.month, d.day+n, 0, 0, 0, 0, time.UTC))
}

// Midnight returns the start of the day in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	var b strings.Builder
	b.Grow(10)
	pad(&b, d.year, 4)
	b.WriteByte('-')
	pad(&b, int(d.month), 2)
	b.WriteByte('-')
	pad(&b, d.day, 2)
	return b.String()
}

func pad(b *strings.Builder, n, width int) {
	s := strconv.Itoa(n)
	for i := len(s); i < width; i++ {
		b.WriteByte('0')
	}
	b.WriteString(s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*d = Date{}
		return nil
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return &ParseError{Value: s}
	}
	parsed, ok := ParseISO(unquoted)
	if !ok {
		return &ParseError{Value: unquoted}
	}
	*d = parsed
	return nil
}

// ParseError reports a value that is not a YYYY-MM-DD calendar date.
type ParseError struct {
	Value string
}

func (e *ParseError) Error() string {
	return "calendar: invalid date " + strconv.Quote(e.Value)
}

// ParseISO accepts only the strict YYYY-MM-DD form of a real calendar day.
func ParseISO(s string) (Date, bool) {
	if !isoPattern.MatchString(s) {
		return Date{}, false
	}
	return parseComponents(s[0:4], s[5:7], s[8:10])
}

func parseComponents(ys, ms, ds string) (Date, bool) {
	y, err := strconv.Atoi(ys)
	if err != nil {
		return Date{}, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return Date{}, false
	}
	d, err := strconv.Atoi(ds)
	if err != nil {
		return Date{}, false
	}
	return New(y, time.Month(m), d)
}

// Normalizer turns date strings into calendar days as seen from one location.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer returns a normalizer for loc; nil means the host's local zone.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Parse reads s as a calendar day. Three hyphen-separated numbers are taken
// as year, month and day directly, so the day never shifts with the zone
// offset. Anything else goes through the general layouts and is truncated to
// the day it falls on in the normalizer's location. Unparseable input
// returns false.
func (n *Normalizer) Parse(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}

	if m := numericPattern.FindStringSubmatch(s); m != nil {
		return parseComponents(m[1], m[2], m[3])
	}

	for _, layout := range fallbackLayouts {
		t, err := time.ParseInLocation(layout, s, n.loc)
		if err != nil {
			continue
		}
		return FromTime(t.In(n.loc)), true
	}
	return Date{}, false
}

// Today returns the calendar day of now in the normalizer's location.
func (n *Normalizer) Today(now time.Time) Date {
	return FromTime(now.In(n.loc))
}

var local = NewNormalizer(nil)

// Parse normalizes s using the host's local zone.
func Parse(s string) (Date, bool) {
	return local.Parse(s)
}

// Age returns the number of whole years between dob and today.
func Age(dob, today Date) int {
	if dob.IsZero() || today.Before(dob) {
		return 0
	}
	years := today.year - dob.year
	if today.month < dob.month || (today.month == dob.month && today.day < dob.day) {
		years--
	}
	return years
}
