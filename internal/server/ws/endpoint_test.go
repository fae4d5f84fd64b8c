package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rzbill/relay/internal/cdc"
	pebblestore "github.com/rzbill/relay/internal/storage/pebble"
	"github.com/rzbill/relay/internal/table"
)

func newTestTable(t *testing.T) *table.Table {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	feed, err := cdc.Open(db)
	if err != nil {
		t.Fatalf("open feed: %v", err)
	}
	return table.New(db, feed)
}

func TestEndpointSeededWhenAbsent(t *testing.T) {
	tbl := newTestTable(t)
	e := NewEndpointConfig(tbl, "ws.example.com:8080")
	if got := e.Address(context.Background()); got != "ws.example.com:8080" {
		t.Fatalf("address = %q", got)
	}
	value, err := tbl.Get(context.Background(), endpointKey, endpointKey)
	if err != nil {
		t.Fatalf("record not seeded: %v", err)
	}
	var rec endpointRecord
	if err := json.Unmarshal(value, &rec); err != nil || rec.Address != "ws.example.com:8080" {
		t.Fatalf("seeded value %q err %v", value, err)
	}
}

func TestEndpointPrefersStoredRecord(t *testing.T) {
	tbl := newTestTable(t)
	value, _ := json.Marshal(endpointRecord{Address: "stored.example.com:9"})
	if err := tbl.Put(context.Background(), endpointKey, endpointKey, value); err != nil {
		t.Fatalf("put: %v", err)
	}
	e := NewEndpointConfig(tbl, "fallback:1")
	if got := e.Address(context.Background()); got != "stored.example.com:9" {
		t.Fatalf("address = %q", got)
	}
	// Cached: a later table change does not alter the resolved address.
	_ = tbl.Delete(context.Background(), endpointKey, endpointKey)
	if got := e.Address(context.Background()); got != "stored.example.com:9" {
		t.Fatalf("address after cache = %q", got)
	}
}
