package model

import "fmt"

// Assignment links one caretaker and one patient at one slot.
type Assignment struct {
	Day        Day
	Hour       Hour
	Caretaker  string
	Patient    string
	Profession Profession
}

// Slot is a cell of the weekly grid.
type Slot struct {
	Day  Day
	Hour Hour
}

func (s Slot) String() string { return fmt.Sprintf("%s %02d:00", s.Day, int(s.Hour)) }

// Slot returns the assignment's grid cell.
func (a Assignment) Slot() Slot { return Slot{Day: a.Day, Hour: a.Hour} }
