package schedule

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/caresched/infra/journal"
)

// Runs lists journaled optimization runs. Optional filters: start and end
// (RFC 3339), status, mode and fallback.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	q, err := runQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	records, err := h.svc.Runs(r.Context(), q)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	h.writeJSON(w, r, http.StatusOK, records)
}

func runQuery(r *http.Request) (journal.Query, error) {
	v := r.URL.Query()
	q := journal.Query{Status: v.Get("status"), Mode: v.Get("mode")}
	for name, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
		if s := v.Get(name); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return q, fmt.Errorf("%s: %w", name, err)
			}
			*dst = t
		}
	}
	if s := v.Get("fallback"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, fmt.Errorf("fallback: %w", err)
		}
		q.Fallback = &b
	}
	return q, nil
}
