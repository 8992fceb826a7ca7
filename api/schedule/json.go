package schedule

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/caresched/core/generator"
	"github.com/kilianp07/caresched/core/monitoring"
	"github.com/kilianp07/caresched/core/optimizer"
	"github.com/kilianp07/caresched/infra/schedulejson"
)

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.log.Errorf("encode response for %s: %v", r.URL.Path, err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal server error"}`)
	}
	h.writeRaw(w, status, body)
}

func (h *Handler) writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.writeJSON(w, r, http.StatusBadRequest, errorBody{Error: err.Error()})
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	monitoring.CaptureException(err, map[string]string{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": w.Header().Get(requestIDHeader),
	})
	h.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

// fail answers err with 400 for input problems and 500 otherwise.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *optimizer.ModelBuildError
	var cfgErr *generator.ConfigurationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		h.writeJSON(w, r, http.StatusRequestEntityTooLarge, errorBody{Error: err.Error()})
	case errors.Is(err, schedulejson.ErrMalformed),
		errors.Is(err, optimizer.ErrUnknownMode),
		errors.As(err, &mbe),
		errors.As(err, &cfgErr):
		h.badRequest(w, r, err)
	default:
		h.internalServerError(w, r, err)
	}
}
