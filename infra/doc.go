// Package infra contains technical adapters: the solver backend, logging,
// metrics sinks, the MQTT publisher, caches, the run journal and the
// schedule codecs. They depend only on interfaces and types from core.
package infra
