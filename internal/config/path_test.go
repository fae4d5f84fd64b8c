package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultDataDirXDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	got := DefaultDataDir()
	if got != filepath.Join(dir, "relay") {
		t.Fatalf("DefaultDataDir() = %q", got)
	}
}

func TestDefaultDataDirNonEmpty(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	if DefaultDataDir() == "" {
		t.Fatalf("DefaultDataDir() returned empty path")
	}
}
