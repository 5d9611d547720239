package calendar

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestParseKeepsComponentsInEveryZone(t *testing.T) {
	zones := []string{"UTC", "America/Los_Angeles", "America/Mexico_City", "Asia/Tokyo", "Pacific/Kiritimati", "Pacific/Pago_Pago"}
	inputs := []struct {
		in    string
		year  int
		month time.Month
		day   int
	}{
		{"2024-08-15", 2024, time.August, 15},
		{"1994-01-15", 1994, time.January, 15},
		{"2024-02-29", 2024, time.February, 29},
		{"2000-12-31", 2000, time.December, 31},
		{"2024-8-5", 2024, time.August, 5},
	}

	for _, zone := range zones {
		n := NewNormalizer(mustLoad(t, zone))
		for _, tc := range inputs {
			d, ok := n.Parse(tc.in)
			require.True(t, ok, "%s in %s", tc.in, zone)
			assert.Equal(t, tc.year, d.Year(), "%s in %s", tc.in, zone)
			assert.Equal(t, tc.month, d.Month(), "%s in %s", tc.in, zone)
			assert.Equal(t, tc.day, d.Day(), "%s in %s", tc.in, zone)
		}
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	malformed := []string{
		"",
		"   ",
		"not a date",
		"2024-13-01",
		"2024-00-10",
		"2024-02-30",
		"2023-02-29",
		"0000-01-01",
		"2024-08",
		"2024-08-15-01",
		"-2024-08-15",
		"2024-aa-15",
		"99999999999999999999-01-01",
		"15/08/2024x",
	}

	for _, in := range malformed {
		assert.NotPanics(t, func() {
			d, ok := Parse(in)
			assert.False(t, ok, "input %q", in)
			assert.True(t, d.IsZero(), "input %q", in)
		})
	}
}

func TestParseFallbackLayouts(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	n := NewNormalizer(tokyo)

	cases := map[string]Date{
		"2024-08-15T10:30:00":       MustNew(2024, time.August, 15),
		"2024-08-15 23:59:59":       MustNew(2024, time.August, 15),
		"2024/08/15":                MustNew(2024, time.August, 15),
		"08/15/2024":                MustNew(2024, time.August, 15),
		"Aug 15, 2024":              MustNew(2024, time.August, 15),
		"August 15, 2024":           MustNew(2024, time.August, 15),
		"15 Aug 2024":               MustNew(2024, time.August, 15),
		"2024-08-15T20:00:00Z":      MustNew(2024, time.August, 16),
		"2024-08-15T01:00:00+09:00": MustNew(2024, time.August, 15),
	}

	for in, want := range cases {
		got, ok := n.Parse(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseFallbackTruncatesTimeOfDay(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")
	n := NewNormalizer(la)

	morning, ok := n.Parse("2024-08-15T00:00:01")
	require.True(t, ok)
	night, ok := n.Parse("2024-08-15T23:59:59")
	require.True(t, ok)
	plain, ok := n.Parse("2024-08-15")
	require.True(t, ok)

	assert.True(t, morning.Equal(night))
	assert.True(t, plain.Equal(morning))
}

func TestParseISOIsStrict(t *testing.T) {
	d, ok := ParseISO("2024-08-15")
	require.True(t, ok)
	assert.Equal(t, "2024-08-15", d.String())

	for _, in := range []string{"2024-8-15", "2024/08/15", "2024-08-15T00:00:00Z", "2024-02-31"} {
		_, ok := ParseISO(in)
		assert.False(t, ok, in)
	}
}

func TestCompareAndArithmetic(t *testing.T) {
	a := MustNew(2024, time.August, 15)
	b := MustNew(2024, time.August, 16)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, -1, Date{}.Compare(a))
	assert.Equal(t, b, a.AddDays(1))
	assert.Equal(t, MustNew(2024, time.March, 1), MustNew(2024, time.February, 29).AddDays(1))
	assert.Equal(t, MustNew(2023, time.December, 31), MustNew(2024, time.January, 1).AddDays(-1))
}

func TestTodayUsesNormalizerLocation(t *testing.T) {
	instant := time.Date(2024, time.August, 15, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, MustNew(2024, time.August, 15), NewNormalizer(time.UTC).Today(instant))
	assert.Equal(t, MustNew(2024, time.August, 14), NewNormalizer(mustLoad(t, "America/New_York")).Today(instant))
}

func TestMidnight(t *testing.T) {
	loc := mustLoad(t, "America/Mexico_City")
	m := MustNew(2024, time.August, 15).Midnight(loc)

	assert.Equal(t, 0, m.Hour())
	assert.Equal(t, loc, m.Location())
	assert.Equal(t, MustNew(2024, time.August, 15), FromTime(m))
}

func TestJSON(t *testing.T) {
	type payload struct {
		Date Date `json:"date"`
	}

	out, err := json.Marshal(payload{Date: MustNew(2024, time.August, 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-08-05"}`, string(out))

	out, err = json.Marshal(payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":null}`, string(out))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-08-15"}`), &p))
	assert.Equal(t, MustNew(2024, time.August, 15), p.Date)

	err = json.Unmarshal([]byte(`{"date":"15/08/2024"}`), &p)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestAge(t *testing.T) {
	dob := MustNew(1994, time.January, 15)

	assert.Equal(t, 30, Age(dob, MustNew(2024, time.January, 15)))
	assert.Equal(t, 29, Age(dob, MustNew(2024, time.January, 14)))
	assert.Equal(t, 0, Age(dob, MustNew(1990, time.January, 1)))
	assert.Equal(t, 0, Age(Date{}, MustNew(2024, time.January, 1)))
}

func TestFormat(t *testing.T) {
	d := MustNew(2024, time.August, 15)

	assert.Equal(t, "August 15, 2024", Format(d, "en"))
	assert.Equal(t, "15 de agosto de 2024", Format(d, "es"))
	assert.Equal(t, "15 de agosto de 2024", Format(d, "es-MX"))
	assert.Equal(t, "August 15, 2024", Format(d, "fr"))
	assert.Equal(t, "1 de diciembre de 2025", Format(MustNew(2025, time.December, 1), " ES_es "))
	assert.Equal(t, "January 5, 2026", Format(MustNew(2026, time.January, 5), "EN-us"))
	assert.Equal(t, "", Format(Date{}, "en"))
}
