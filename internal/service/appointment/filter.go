package appointment

import (
	"github.com/jwalitptl/patientpal-api/pkg/calendar"
)

type Mode int

const (
	// ModeDay keeps appointments on one calendar day.
	ModeDay Mode = iota
	// ModeUpcoming keeps appointments from today onwards.
	ModeUpcoming
)

func (m Mode) String() string {
	if m == ModeUpcoming {
		return "upcoming"
	}
	return "day"
}

// Filter selects which appointments a projection keeps. Exactly one mode is
// active; the zero value is day mode with no day selected, which matches
// nothing.
type Filter struct {
	mode Mode
	day  calendar.Date
}

func ForDay(d calendar.Date) Filter {
	return Filter{mode: ModeDay, day: d}
}

func Upcoming() Filter {
	return Filter{mode: ModeUpcoming}
}

func (f Filter) Mode() Mode         { return f.mode }
func (f Filter) Day() calendar.Date { return f.day }

// SelectDay picks a specific day and leaves upcoming mode. Clearing the
// selection (zero date) keeps the current mode.
func (f Filter) SelectDay(d calendar.Date) Filter {
	if d.IsZero() {
		f.day = calendar.Date{}
		return f
	}
	return ForDay(d)
}

// ToggleUpcoming switches upcoming mode on, dropping the selected day, or
// off, falling back to today.
func (f Filter) ToggleUpcoming(today calendar.Date) Filter {
	if f.mode == ModeUpcoming {
		return ForDay(today)
	}
	return Upcoming()
}

func (f Filter) matches(date, today calendar.Date) bool {
	switch f.mode {
	case ModeUpcoming:
		return !date.Before(today)
	default:
		return !f.day.IsZero() && date.Equal(f.day)
	}
}
