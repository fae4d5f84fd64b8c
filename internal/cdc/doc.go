// Package cdc implements the change-data-capture stream that decouples
// table writes from broadcast fan-out. Every committed table mutation
// appends a change entry in the same Pebble batch; a Tailer delivers entries
// to a handler in batches with an at-least-once durable cursor.
package cdc
