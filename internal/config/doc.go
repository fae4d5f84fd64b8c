// Package config provides loading and environment overlay for Relay runtime
// configuration. It exposes a Default() baseline, file loading for JSON and
// YAML, and RELAY_* env var overlays.
//
// Example:
//
//	cfg, err := config.Load("/etc/relay.yaml")
//	if err != nil {
//	    cfg = config.Default()
//	}
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{DataDir: config.DefaultDataDir(), Config: cfg})
//	defer rt.Close()
package config
