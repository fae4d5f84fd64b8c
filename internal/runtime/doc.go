// Package runtime wires storage, the change feed, and the domain stores
// into a single-node Relay instance. It exposes Open/Close, basic health
// checks, and accessors used by the servers and dispatcher.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	_ = rt.Subscriptions().Subscribe(context.Background(), cfg.DefaultChannel, "conn-1")
package runtime
