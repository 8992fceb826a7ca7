package schedule

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/caresched/app"
	"github.com/kilianp07/caresched/core/generator"
	"github.com/kilianp07/caresched/core/model"
	"github.com/kilianp07/caresched/infra/schedulejson"
	"github.com/kilianp07/caresched/internal/validate"
)

// FakerResponse is the body of GET /faker-schedule/.
type FakerResponse struct {
	Caretaker model.CaretakerView `json:"caretaker"`
	Patient   model.PatientView   `json:"patient"`
}

type fakerQuery struct {
	Caretakers int `validate:"gte=0"`
	Patients   int `validate:"gte=0"`
	Seed       int64
}

type optimizeQuery struct {
	Mode   string
	Budget time.Duration `validate:"gte=0"`
}

// FakerSchedule generates a random normalized schedule. The caretakers,
// patients and seed query parameters override the configured values.
func (h *Handler) FakerSchedule(w http.ResponseWriter, r *http.Request) {
	var q fakerQuery
	var err error
	if q.Caretakers, err = intParam(r, "caretakers"); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if q.Patients, err = intParam(r, "patients"); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if s := r.URL.Query().Get("seed"); s != "" {
		if q.Seed, err = strconv.ParseInt(s, 10, 64); err != nil {
			h.badRequest(w, r, fmt.Errorf("seed: %w", err))
			return
		}
	}
	if err := validate.Struct(q); err != nil {
		h.badRequest(w, r, err)
		return
	}

	res, err := h.svc.Generate(r.Context(), generator.Config{Caretakers: q.Caretakers, Patients: q.Patients, Seed: q.Seed})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, FakerResponse{Caretaker: res.CaretakerView(), Patient: res.PatientView()})
}

// OptimizeQuery optimizes the schedule passed in the data query parameter.
func (h *Handler) OptimizeQuery(w http.ResponseWriter, r *http.Request) {
	data := r.URL.Query().Get("data")
	if data == "" {
		h.badRequest(w, r, errors.New("data: query parameter is required"))
		return
	}
	h.optimize(w, r, []byte(data))
}

// OptimizeBody optimizes the schedule sent as the request body.
func (h *Handler) OptimizeBody(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.optimize(w, r, body)
}

func (h *Handler) optimize(w http.ResponseWriter, r *http.Request, data []byte) {
	q := optimizeQuery{Mode: r.URL.Query().Get("mode")}
	if s := r.URL.Query().Get("budget"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			h.badRequest(w, r, fmt.Errorf("budget: %w", err))
			return
		}
		q.Budget = d
	}
	if err := validate.Struct(q); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if limit := h.svc.MaxBudget(); limit > 0 && q.Budget > limit {
		h.badRequest(w, r, fmt.Errorf("budget: %s exceeds the %s limit", q.Budget, limit))
		return
	}
	mode, err := h.svc.Mode(q.Mode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	snap, err := schedulejson.Decode(data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Optimize(r.Context(), snap, mode, q.Budget)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	setRunHeaders(w, res)
	h.writeRaw(w, http.StatusOK, res.Body)
}

func setRunHeaders(w http.ResponseWriter, res app.Result) {
	if res.Cached {
		w.Header().Set("X-Cache", "HIT")
		return
	}
	w.Header().Set("X-Cache", "MISS")
	w.Header().Set("X-Run-ID", res.Report.RunID)
	w.Header().Set("X-Optimizer-Status", res.Report.StatusLabel())
	w.Header().Set("X-Optimizer-Outcome", string(res.Report.Outcome))
}

func intParam(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}
