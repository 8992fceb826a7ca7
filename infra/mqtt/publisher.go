// Package mqtt publishes finished schedules to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Message kinds, used as the last topic segment.
const (
	KindOptimized = "optimized"
	KindGenerated = "generated"
)

// Message is the payload of a schedule publication.
type Message struct {
	RunID     string          `json:"run_id"`
	Mode      string          `json:"mode,omitempty"`
	Status    string          `json:"status,omitempty"`
	Fallback  bool            `json:"fallback"`
	Schedule  json.RawMessage `json:"schedule"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher sends schedule messages.
type Publisher interface {
	Publish(ctx context.Context, kind string, msg Message) error
	Close() error
}

// NopPublisher drops every message.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Message) error { return nil }
func (NopPublisher) Close() error                                   { return nil }

// MemoryPublisher keeps messages in memory. Used in tests.
type MemoryPublisher struct {
	mu       sync.Mutex
	Messages map[string][]Message
	Err      error
}

// NewMemoryPublisher creates an empty MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{Messages: make(map[string][]Message)}
}

// Publish records msg under kind, or returns Err when set.
func (m *MemoryPublisher) Publish(_ context.Context, kind string, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages[kind] = append(m.Messages[kind], msg)
	return nil
}

// Sent returns a copy of the messages recorded under kind.
func (m *MemoryPublisher) Sent(kind string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Messages[kind]...)
}

func (m *MemoryPublisher) Close() error { return nil }
