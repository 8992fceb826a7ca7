// Package monitoring reports errors to Sentry.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	coremon "github.com/kilianp07/caresched/core/monitoring"
)

// Config enables Sentry when DSN is set.
type Config struct {
	DSN              string  `json:"dsn" validate:"omitempty,url"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate" validate:"gte=0,lte=1"`
}

// beforeSend lets tests observe events instead of sending them.
var beforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event

// NewSentryReporter initialises the Sentry SDK. An empty DSN yields a
// NopReporter.
func NewSentryReporter(cfg Config) (coremon.Reporter, error) {
	if cfg.DSN == "" {
		return coremon.NopReporter{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return nil, err
	}
	return sentryReporter{}, nil
}

type sentryReporter struct{}

func (sentryReporter) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	if len(tags) == 0 {
		sentry.CaptureException(err)
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

func (sentryReporter) Flush(timeout time.Duration) bool { return sentry.Flush(timeout) }
