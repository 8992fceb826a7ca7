package model

// Caretaker is a staff member with a fixed weekly availability.
type Caretaker struct {
	GivenName    string
	Profession   Profession
	WorkingDays  []Day
	WorkingHours []Hour
	// Schedule is the caretaker's derived view, filled while patients are
	// assigned.
	Schedule map[Day]map[Hour]string
}

// Name returns the display name used as the caretaker's identity.
func (c *Caretaker) Name() string { return CaretakerName(c.GivenName, c.Profession) }

// WorksOn reports whether d is one of the caretaker's working days.
func (c *Caretaker) WorksOn(d Day) bool {
	for _, wd := range c.WorkingDays {
		if wd == d {
			return true
		}
	}
	return false
}

// WorksAt reports whether the caretaker is available at the slot.
func (c *Caretaker) WorksAt(d Day, h Hour) bool {
	if !c.WorksOn(d) {
		return false
	}
	for _, wh := range c.WorkingHours {
		if wh == h {
			return true
		}
	}
	return false
}

// Book records a patient in the caretaker's derived view.
func (c *Caretaker) Book(d Day, h Hour, patient string) {
	if c.Schedule == nil {
		c.Schedule = make(map[Day]map[Hour]string)
	}
	if c.Schedule[d] == nil {
		c.Schedule[d] = make(map[Hour]string)
	}
	c.Schedule[d][h] = patient
}
