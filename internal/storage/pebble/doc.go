// Package pebblestore provides a thin wrapper around Pebble with fsync
// policy, batches, and minimal metrics hooks. All durable state in Relay
// (membership records, messages, the CDC log) lives in one Pebble instance
// opened through this package.
package pebblestore
