package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultChannel != "General" || cfg.HistoryLimit != 100 {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadJSONOverlaysDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "relay.json")
	if err := os.WriteFile(p, []byte(`{"defaultChannel":"Lobby"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultChannel != "Lobby" {
		t.Fatalf("defaultChannel = %q", cfg.DefaultChannel)
	}
	// Untouched fields keep defaults.
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "relay.yaml")
	body := "historyLimit: 25\nserver:\n  addr: \":9090\"\n  sendTimeout: 2s\n"
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HistoryLimit != 25 || cfg.Server.Addr != ":9090" || cfg.Server.SendTimeout != 2*time.Second {
		t.Fatalf("cfg: %+v", cfg)
	}
}

func TestLoadBadJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "relay.json")
	if err := os.WriteFile(p, []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("RELAY_DEFAULT_CHANNEL", "Town")
	t.Setenv("RELAY_HISTORY_LIMIT", "7")
	t.Setenv("RELAY_SERVER_SEND_TIMEOUT", "750ms")
	cfg := Default()
	FromEnv(&cfg)
	if cfg.DefaultChannel != "Town" || cfg.HistoryLimit != 7 {
		t.Fatalf("cfg: %+v", cfg)
	}
	if cfg.Server.SendTimeout != 750*time.Millisecond {
		t.Fatalf("sendTimeout = %v", cfg.Server.SendTimeout)
	}
}

func TestFromEnvIgnoresMalformed(t *testing.T) {
	t.Setenv("RELAY_HISTORY_LIMIT", "lots")
	cfg := Default()
	FromEnv(&cfg)
	if cfg.HistoryLimit != 100 {
		t.Fatalf("historyLimit = %d", cfg.HistoryLimit)
	}
}
