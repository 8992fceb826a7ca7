package model

import "strings"

// Profession identifies the kind of care a caretaker provides.
type Profession string

const (
	Nurse         Profession = "nurse"
	Doctor        Profession = "doctor"
	Therapist     Profession = "therapist"
	Psychologist  Profession = "psychologist"
	CareAssistant Profession = "care_assistant"
)

// Professions is the fixed enumeration, in round-robin order.
var Professions = []Profession{Nurse, Doctor, Therapist, Psychologist, CareAssistant}

// Valid reports whether p belongs to the enumeration.
func (p Profession) Valid() bool {
	for _, q := range Professions {
		if p == q {
			return true
		}
	}
	return false
}

// CaretakerName builds the display name "<given> (<profession>)".
func CaretakerName(given string, p Profession) string {
	return given + " (" + string(p) + ")"
}

// ParseCaretakerName splits a display name built by CaretakerName. Names
// that do not follow that form, or carry an unknown profession, return
// ok=false.
func ParseCaretakerName(name string) (given string, p Profession, ok bool) {
	open := strings.LastIndex(name, " (")
	if open <= 0 || !strings.HasSuffix(name, ")") {
		return "", "", false
	}
	p = Profession(name[open+2 : len(name)-1])
	if !p.Valid() {
		return "", "", false
	}
	return name[:open], p, true
}
