package model

import "fmt"

// Day is a scheduled weekday. Saturday is never scheduled.
type Day int

const (
	Sunday Day = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
)

var dayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// Days lists the scheduled weekdays in week order.
var Days = []Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Valid reports whether d is one of the six scheduled weekdays.
func (d Day) Valid() bool { return d >= Sunday && d <= Friday }

// ParseDay resolves a day name as it appears on the wire.
func ParseDay(s string) (Day, bool) {
	for i, n := range dayNames {
		if n == s {
			return Day(i), true
		}
	}
	return 0, false
}

// MarshalText encodes the day by name so views serialize as {"Monday": ...}.
func (d Day) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid day %d", int(d))
	}
	return []byte(dayNames[d]), nil
}

// UnmarshalText decodes a day name.
func (d *Day) UnmarshalText(b []byte) error {
	v, ok := ParseDay(string(b))
	if !ok {
		return fmt.Errorf("unknown day %q", string(b))
	}
	*d = v
	return nil
}

// Hour is an hour of the day in the scheduled range [MinHour, MaxHour].
type Hour int

const (
	MinHour Hour = 8
	MaxHour Hour = 17
)

// Hours lists the scheduled hours in ascending order.
func Hours() []Hour {
	hs := make([]Hour, 0, MaxHour-MinHour+1)
	for h := MinHour; h <= MaxHour; h++ {
		hs = append(hs, h)
	}
	return hs
}

// Valid reports whether h lies in the scheduled range.
func (h Hour) Valid() bool { return h >= MinHour && h <= MaxHour }

// SlotsPerWeek is the size of the weekly grid.
const SlotsPerWeek = len(dayNames) * int(MaxHour-MinHour+1)
