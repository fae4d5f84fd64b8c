// Package log provides Relay's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Internally it is backed by Go's standard
// library slog via a custom handler that routes records through the
// formatter/output pipeline, keeping output consistent across the codebase.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("dispatch"), log.Str("channel", "General"))
//	l.Info("fan-out complete", log.Int("sends", 12))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting
// text or JSON formatting.
//
// # Interop
//
// To integrate with libraries expecting *log.Logger (Pebble, net/http), use
// RedirectStdLog or ToStdLogger.
package log
