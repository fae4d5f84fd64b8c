package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DefaultChannel string `json:"defaultChannel" yaml:"defaultChannel"`
	HistoryLimit   int    `json:"historyLimit" yaml:"historyLimit"`
	Server         Server `json:"server" yaml:"server"`
}

// Server captures listener tunables for the websocket endpoint.
type Server struct {
	Addr         string        `json:"addr" yaml:"addr"`
	SendTimeout  time.Duration `json:"sendTimeout" yaml:"sendTimeout"`
	PingInterval time.Duration `json:"pingInterval" yaml:"pingInterval"`
	MaxFrameSize int64         `json:"maxFrameSize" yaml:"maxFrameSize"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DefaultChannel: "General",
		HistoryLimit:   100,
		Server: Server{
			Addr:         ":8080",
			SendTimeout:  5 * time.Second,
			PingInterval: 30 * time.Second,
			MaxFrameSize: 64 << 10,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults. File values overlay the defaults, so partial
// files are fine.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
