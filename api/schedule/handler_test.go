package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/caresched/app"
	"github.com/kilianp07/caresched/config"
	"github.com/kilianp07/caresched/core/generator"
	coremetrics "github.com/kilianp07/caresched/core/metrics"
	"github.com/kilianp07/caresched/core/monitoring"
	"github.com/kilianp07/caresched/core/optimizer"
	"github.com/kilianp07/caresched/infra/cache"
	"github.com/kilianp07/caresched/infra/journal"
	"github.com/kilianp07/caresched/infra/logger"
	"github.com/kilianp07/caresched/infra/mqtt"
	"github.com/kilianp07/caresched/infra/solver/bnb"
)

const conflicting = `{"Alice (nurse)": {"Monday": {"8": "P1"}}, "Bob (doctor)": {"Monday": {"8": "P1"}}}`

func newServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	store, err := journal.New(journal.Config{Type: journal.TypeSQLite, Path: filepath.Join(t.TempDir(), "runs.db")})
	require.NoError(t, err)
	svc, err := app.New(config.Default(), app.Deps{
		Backend:   bnb.New(bnb.Options{}),
		Sink:      coremetrics.NopSink{},
		Cache:     cache.NewMemory(time.Minute, 16),
		Journal:   store,
		Publisher: mqtt.NopPublisher{},
		Logger:    logger.NopLogger{},
	})
	require.NoError(t, err)
	svc.Start(context.Background())
	srv := httptest.NewServer(NewHandler(svc, opts))
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Close()
	})
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	return readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) (*http.Response, []byte) {
	t.Helper()
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, []byte(buf.String())
}

func assignments(t *testing.T, body []byte) int {
	t.Helper()
	var bare map[string]map[string]map[string]string
	require.NoError(t, json.Unmarshal(body, &bare))
	n := 0
	for _, days := range bare {
		for _, hours := range days {
			n += len(hours)
		}
	}
	return n
}

func TestHealth(t *testing.T) {
	srv := newServer(t, Options{})
	resp, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
}

func TestFakerSchedule(t *testing.T) {
	srv := newServer(t, Options{})
	resp, body := get(t, srv, "/faker-schedule/?caretakers=5&patients=10&seed=3")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out struct {
		Caretaker map[string]map[string]map[string]string `json:"caretaker"`
		Patient   map[string]map[string]map[string]string `json:"patient"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Caretaker, 5)
	assert.Len(t, out.Patient, 10)
	for id, days := range out.Patient {
		for day, hours := range days {
			for hour, caretaker := range hours {
				assert.Equal(t, id, out.Caretaker[caretaker][day][hour])
			}
		}
	}

	_, again := get(t, srv, "/faker-schedule/?caretakers=5&patients=10&seed=3")
	assert.JSONEq(t, string(body), string(again))
}

func TestFakerScheduleBadParams(t *testing.T) {
	srv := newServer(t, Options{})
	for _, q := range []string{"caretakers=abc", "patients=-1", "caretakers=41", "seed=x"} {
		resp, body := get(t, srv, "/faker-schedule/?"+q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		assert.Contains(t, string(body), `"error"`, q)
	}
}

func TestOptimizeQuery(t *testing.T) {
	srv := newServer(t, Options{})
	path := "/optimize-schedule/?mode=minimal&data=" + url.QueryEscape(conflicting)
	resp, body := get(t, srv, path)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, "OPTIMAL", resp.Header.Get("X-Optimizer-Status"))
	assert.Equal(t, 2, assignments(t, body))

	resp, cached := get(t, srv, path)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.JSONEq(t, string(body), string(cached))
}

func TestOptimizeBodyEnriched(t *testing.T) {
	srv := newServer(t, Options{})
	in := `[{"name": "Alice (nurse)", "team": "north", "schedule": {"Monday": {"8": "P1"}}},
	        {"name": "Bob (doctor)", "schedule": {"Monday": {"8": "P1"}}}]`
	resp, err := http.Post(srv.URL+"/optimize-schedule/", "application/json", strings.NewReader(in))
	require.NoError(t, err)
	resp, body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out, 2)
	assert.JSONEq(t, `"Alice (nurse)"`, string(out[0]["name"]))
	assert.JSONEq(t, `"north"`, string(out[0]["team"]))
}

func TestOptimizeEmptyBody(t *testing.T) {
	srv := newServer(t, Options{})
	resp, err := http.Post(srv.URL+"/optimize-schedule/", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	resp, body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{}`, string(body))
	assert.Equal(t, "EMPTY", resp.Header.Get("X-Optimizer-Status"))
}

func TestOptimizeBadInput(t *testing.T) {
	srv := newServer(t, Options{})
	cases := map[string]string{
		"missing data": "/optimize-schedule/",
		"malformed":    "/optimize-schedule/?data=" + url.QueryEscape(`{"Alice": [1, 2]}`),
		"saturday":     "/optimize-schedule/?data=" + url.QueryEscape(`{"Alice (nurse)": {"Saturday": {"8": "P1"}}}`),
		"hour":         "/optimize-schedule/?data=" + url.QueryEscape(`{"Alice (nurse)": {"Monday": {"18": "P1"}}}`),
		"mode":         "/optimize-schedule/?mode=fastest&data=" + url.QueryEscape(conflicting),
		"budget":       "/optimize-schedule/?budget=-1s&data=" + url.QueryEscape(conflicting),
		"budget limit": "/optimize-schedule/?budget=10h&data=" + url.QueryEscape(conflicting),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			resp, body := get(t, srv, path)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var e errorBody
			require.NoError(t, json.Unmarshal(body, &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestOptimizeBudgetAtLimit(t *testing.T) {
	srv := newServer(t, Options{})
	limit := config.Default().Optimizer.MaxBudget()
	resp, body := get(t, srv, "/optimize-schedule/?budget="+limit.String()+"&data="+url.QueryEscape(conflicting))
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = get(t, srv, "/optimize-schedule/?budget="+(limit+time.Second).String()+"&data="+url.QueryEscape(conflicting))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "limit")
}

func TestOptimizeBodyTooLarge(t *testing.T) {
	srv := newServer(t, Options{MaxBodyBytes: 16})
	resp, err := http.Post(srv.URL+"/optimize-schedule/", "application/json", strings.NewReader(conflicting))
	require.NoError(t, err)
	resp, _ = readBody(t, resp)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestRuns(t *testing.T) {
	srv := newServer(t, Options{})
	resp, _ := get(t, srv, "/optimize-schedule/?data="+url.QueryEscape(conflicting))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []journal.Record
	require.Eventually(t, func() bool {
		_, body := get(t, srv, "/runs?status=OPTIMAL&fallback=false")
		records = nil
		return json.Unmarshal(body, &records) == nil && len(records) == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "minimal", records[0].Mode)

	_, body := get(t, srv, "/runs?status=INFEASIBLE")
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = get(t, srv, "/runs?start=yesterday")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "probe"})
	reg.MustRegister(c)
	c.Inc()
	srv := newServer(t, Options{Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})})
	resp, body := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "probe_total 1")
}

type panicService struct{ Service }

func (panicService) Generate(context.Context, generator.Config) (*generator.Result, error) {
	panic("boom")
}

func (panicService) Mode(string) (optimizer.Mode, error) { return optimizer.Minimal, nil }

type captured struct {
	mu   sync.Mutex
	errs []error
	tags []map[string]string
}

func (c *captured) CaptureException(err error, tags map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
	c.tags = append(c.tags, tags)
}

func (c *captured) Flush(time.Duration) bool { return true }

func TestRecoverer(t *testing.T) {
	rec := &captured{}
	monitoring.Init(rec)
	defer monitoring.Init(nil)

	srv := httptest.NewServer(NewHandler(panicService{}, Options{}))
	defer srv.Close()
	resp, body := get(t, srv, "/faker-schedule/")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"internal server error"}`, string(body))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.errs, 1)
	assert.Contains(t, rec.errs[0].Error(), "boom")
	assert.Equal(t, "/faker-schedule/", rec.tags[0]["path"])
}
