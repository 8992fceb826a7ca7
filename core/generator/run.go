package generator

import (
	"github.com/kilianp07/caresched/core/consistency"
	"github.com/kilianp07/caresched/core/logger"
	"github.com/kilianp07/caresched/core/model"
)

// Result is the output of a full generation pipeline.
type Result struct {
	Caretakers    []*model.Caretaker
	Patients      []string
	Schedule      *model.Schedule
	Stats         Stats
	Substitutions int
}

// CaretakerView lists every generated caretaker, including those left
// without assignments.
func (r *Result) CaretakerView() model.CaretakerView {
	v := r.Schedule.CaretakerView()
	for _, c := range r.Caretakers {
		if _, ok := v[c.Name()]; !ok {
			v[c.Name()] = map[model.Day]map[model.Hour]string{}
		}
	}
	return v
}

// PatientView lists every generated patient.
func (r *Result) PatientView() model.PatientView {
	v := r.Schedule.PatientView()
	for _, p := range r.Patients {
		if _, ok := v[p]; !ok {
			v[p] = map[model.Day]map[model.Hour]string{}
		}
	}
	return v
}

// Run generates caretakers, assigns patients and normalizes the result so
// each patient keeps one caretaker per profession.
func Run(cfg Config, log logger.Logger) (*Result, error) {
	cfg.SetDefaults()
	g, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	cts, err := g.GenerateCaretakers(cfg.Caretakers, model.Professions)
	if err != nil {
		return nil, err
	}
	st, err := g.AssignPatients(cfg.Patients)
	if err != nil {
		return nil, err
	}
	raw := g.Schedule()
	norm := consistency.Normalize(raw)

	view := norm.CaretakerView()
	for _, c := range cts {
		c.Schedule = view[c.Name()]
	}
	res := &Result{
		Caretakers:    cts,
		Schedule:      norm,
		Stats:         st,
		Substitutions: consistency.Substitutions(raw, norm),
	}
	for _, p := range g.Patients() {
		res.Patients = append(res.Patients, p.ID)
	}
	return res, nil
}
