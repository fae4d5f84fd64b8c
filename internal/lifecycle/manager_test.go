package lifecycle

import (
	"context"
	"testing"

	"github.com/rzbill/relay/internal/cdc"
	pebblestore "github.com/rzbill/relay/internal/storage/pebble"
	"github.com/rzbill/relay/internal/subscriptions"
	"github.com/rzbill/relay/internal/table"
	"github.com/rzbill/relay/pkg/log"
)

func newTestManager(t *testing.T) (*Manager, *subscriptions.Store) {
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
	return New(subs, "", log.NewNopLogger()), subs
}

func TestConnectJoinsDefaultChannel(t *testing.T) {
	m, subs := newTestManager(t)
	ctx := context.Background()

	if err := m.Connect(ctx, "conn-1"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	members, err := subs.MembersOf(ctx, DefaultChannel)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 || members[0] != "conn-1" {
		t.Fatalf("members = %v", members)
	}

	// Reconnect is indistinguishable from a client re-subscribe.
	if err := m.Connect(ctx, "conn-1"); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	members, _ = subs.MembersOf(ctx, DefaultChannel)
	if len(members) != 1 {
		t.Fatalf("reconnect duplicated membership: %v", members)
	}
}

func TestDisconnectCleansAllMemberships(t *testing.T) {
	m, subs := newTestManager(t)
	ctx := context.Background()

	for _, ch := range []string{"A", "B", "C"} {
		if err := subs.Subscribe(ctx, ch, "conn-1"); err != nil {
			t.Fatalf("subscribe %s: %v", ch, err)
		}
	}
	if err := subs.Subscribe(ctx, "A", "other"); err != nil {
		t.Fatalf("subscribe other: %v", err)
	}

	if err := m.Disconnect(ctx, "conn-1"); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	channels, err := subs.ChannelsOf(ctx, "conn-1")
	if err != nil {
		t.Fatalf("channels: %v", err)
	}
	if len(channels) != 0 {
		t.Fatalf("memberships remain after disconnect: %v", channels)
	}
	// Unrelated memberships are untouched.
	members, _ := subs.MembersOf(ctx, "A")
	if len(members) != 1 || members[0] != "other" {
		t.Fatalf("channel A members = %v", members)
	}
}

func TestDisconnectUnknownConnection(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Disconnect(context.Background(), "ghost"); err != nil {
		t.Fatalf("disconnect with no memberships: %v", err)
	}
}
