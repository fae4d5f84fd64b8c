package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays RELAY_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("RELAY_DEFAULT_CHANNEL"); v != "" {
		cfg.DefaultChannel = v
	}
	if v := os.Getenv("RELAY_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistoryLimit = n
		}
	}
	if v := os.Getenv("RELAY_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("RELAY_SERVER_SEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.SendTimeout = d
		}
	}
	if v := os.Getenv("RELAY_SERVER_PING_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.PingInterval = d
		}
	}
	if v := os.Getenv("RELAY_SERVER_MAX_FRAME_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxFrameSize = n
		}
	}
}
