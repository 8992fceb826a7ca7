package model

// Patient receives treatments. Assignments keep the order in which they
// were recorded.
type Patient struct {
	ID          string
	Assignments []Assignment
}

// Add appends an assignment to the patient's sequence.
func (p *Patient) Add(a Assignment) {
	a.Patient = p.ID
	p.Assignments = append(p.Assignments, a)
}

// HasProfessionOn reports whether the patient already sees someone of the
// given profession on day d.
func (p *Patient) HasProfessionOn(d Day, prof Profession) bool {
	for _, a := range p.Assignments {
		if a.Day == d && a.Profession == prof {
			return true
		}
	}
	return false
}
