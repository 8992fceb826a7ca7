// Package monitoring forwards unexpected errors to an error tracker.
package monitoring

import (
	"sync"
	"time"
)

// Reporter sends errors to an error tracker.
type Reporter interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration) bool
}

// NopReporter drops every error.
type NopReporter struct{}

func (NopReporter) CaptureException(error, map[string]string) {}
func (NopReporter) Flush(time.Duration) bool                  { return true }

var (
	mu      sync.RWMutex
	current Reporter = NopReporter{}
)

// Init installs r as the process-wide reporter. A nil r restores the no-op
// reporter.
func Init(r Reporter) {
	mu.Lock()
	defer mu.Unlock()
	if r == nil {
		r = NopReporter{}
	}
	current = r
}

// CaptureException reports err with optional tags. A nil err is ignored.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	mu.RLock()
	r := current
	mu.RUnlock()
	r.CaptureException(err, tags)
}

// Flush waits up to timeout for buffered reports to be sent.
func Flush(timeout time.Duration) bool {
	mu.RLock()
	r := current
	mu.RUnlock()
	return r.Flush(timeout)
}
