package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rzbill/relay/internal/cdc"
	"github.com/rzbill/relay/internal/keys"
	"github.com/rzbill/relay/internal/messages"
	"github.com/rzbill/relay/internal/metrics"
	pebblestore "github.com/rzbill/relay/internal/storage/pebble"
	"github.com/rzbill/relay/internal/subscriptions"
	"github.com/rzbill/relay/internal/table"
	"github.com/rzbill/relay/internal/transport"
	"github.com/rzbill/relay/pkg/log"
)

// fakeSender records every send; connections listed in stale report failure.
type fakeSender struct {
	mu    sync.Mutex
	sends map[string][][]byte
	stale map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{sends: map[string][][]byte{}, stale: map[string]bool{}}
}

func (f *fakeSender) Send(_ context.Context, connectionID string, payload []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stale[connectionID] {
		return false
	}
	f.sends[connectionID] = append(f.sends[connectionID], append([]byte(nil), payload...))
	return true
}

func (f *fakeSender) sentTo(connectionID string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends[connectionID]
}

func (f *fakeSender) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sends {
		n += len(s)
	}
	return n
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *subscriptions.Store, *fakeSender) {
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
	subs := subscriptions.New(table.New(db, feed))
	sender := newFakeSender()
	return New(subs, sender, metrics.New(), log.NewNopLogger()), subs, sender
}

func entry(pk, sk string, op keys.Op) cdc.Entry {
	return cdc.Entry{Change: cdc.Change{PartitionKey: pk, SortKey: sk, Op: op}}
}

func TestMembershipInsertNotifiesAllMembers(t *testing.T) {
	d, subs, sender := newTestDispatcher(t)
	ctx := context.Background()

	for _, c := range []string{"a", "b", "abc"} {
		if err := subs.Subscribe(ctx, "General", c); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	err := d.HandleBatch(ctx, []cdc.Entry{entry("CHANNEL|General", "CONNECTION|abc", keys.OpInsert)})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	// Every current member, the joining connection included, is notified.
	for _, c := range []string{"a", "b", "abc"} {
		got := sender.sentTo(c)
		if len(got) != 1 {
			t.Fatalf("connection %s got %d sends", c, len(got))
		}
		var evt transport.SubscriberChange
		if err := json.Unmarshal(got[0], &evt); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if evt.Event != "subscriber_sub" || evt.ChannelID != "General" || evt.SubscriberID != "abc" {
			t.Fatalf("payload %+v", evt)
		}
	}
}

func TestMembershipRemoveNotifiesRemaining(t *testing.T) {
	d, subs, sender := newTestDispatcher(t)
	ctx := context.Background()

	if err := subs.Subscribe(ctx, "General", "a"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// "abc" already unsubscribed; the REMOVE change arrives afterwards.
	err := d.HandleBatch(ctx, []cdc.Entry{entry("CHANNEL|General", "CONNECTION|abc", keys.OpRemove)})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := sender.sentTo("a")
	if len(got) != 1 {
		t.Fatalf("remaining member got %d sends", len(got))
	}
	var evt transport.SubscriberChange
	_ = json.Unmarshal(got[0], &evt)
	if evt.Event != "subscriber_unsub" || evt.SubscriberID != "abc" {
		t.Fatalf("payload %+v", evt)
	}
	if len(sender.sentTo("abc")) != 0 {
		t.Fatalf("departed connection was notified")
	}
}

func TestIgnoredShapes(t *testing.T) {
	d, subs, sender := newTestDispatcher(t)
	ctx := context.Background()

	if err := subs.Subscribe(ctx, "General", "a"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Membership updates, message inserts (delivered on the ingestion
	// path), connection-rooted records, and foreign entities all classify
	// to shapes the dispatcher does not fan out.
	batch := []cdc.Entry{
		entry("CHANNEL|General", "CONNECTION|x", keys.OpUpdate),
		entry("CHANNEL|General", "MESSAGE|1712000", keys.OpInsert),
		entry("CONNECTION|x", "CHANNEL|General", keys.OpInsert),
		entry("AUDIT|1", "AUDIT|2", keys.OpInsert),
	}
	if err := d.HandleBatch(ctx, batch); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.total() != 0 {
		t.Fatalf("ignored shapes produced %d sends", sender.total())
	}
}

func TestBroadcastMessageFanOutComplete(t *testing.T) {
	d, subs, sender := newTestDispatcher(t)
	ctx := context.Background()

	members := []string{"a", "b", "c", "d"}
	for _, c := range members {
		if err := subs.Subscribe(ctx, "General", c); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	err := d.BroadcastMessage(ctx, "General", messages.Message{ConnectionID: "a", Name: "Al", Content: "hi"})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	if sender.total() != len(members) {
		t.Fatalf("sends = %d, want %d", sender.total(), len(members))
	}
	for _, c := range members {
		var evt transport.ChannelMessage
		if err := json.Unmarshal(sender.sentTo(c)[0], &evt); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if evt.Event != "channel_message" || evt.ChannelID != "General" || evt.Name != "Al" || evt.Content != "hi" {
			t.Fatalf("payload for %s: %+v", c, evt)
		}
	}
}

func TestStaleConnectionIsolated(t *testing.T) {
	d, subs, sender := newTestDispatcher(t)
	ctx := context.Background()

	for _, c := range []string{"live", "gone"} {
		if err := subs.Subscribe(ctx, "General", c); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}
	sender.stale["gone"] = true

	err := d.BroadcastMessage(ctx, "General", messages.Message{Name: "Al", Content: "hi"})
	if err != nil {
		t.Fatalf("broadcast must not fail on stale connection: %v", err)
	}
	if len(sender.sentTo("live")) != 1 {
		t.Fatalf("live connection missed the message")
	}
}
