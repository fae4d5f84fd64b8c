package cdc

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/rzbill/relay/internal/storage/pebble"
)

// Feed is the append-only change log emitted as a side effect of table
// writes. Sequence numbers are assigned under the feed lock and committed
// in the same batch as the mutation they describe, so per-partition emission
// order always matches store mutation order.
type Feed struct {
	db *pebblestore.DB

	mu       sync.Mutex
	lastSeq  uint64
	notifyCh chan struct{}
}

// Open initializes the Feed and loads the last sequence from metadata.
func Open(db *pebblestore.DB) (*Feed, error) {
	f := &Feed{db: db, notifyCh: make(chan struct{})}
	meta, err := db.Get(metaKey)
	if err == nil && len(meta) >= 8 {
		f.lastSeq = binary.BigEndian.Uint64(meta[:8])
	}
	return f, nil
}

// Append commits the caller's staged batch operations together with change
// entries for the provided changes, as one atomic batch. fill stages the
// caller's own keys; it must not commit.
//
// The feed lock is held across commit so sequence numbers become visible in
// order and tailing readers never skip an uncommitted gap.
func (f *Feed) Append(ctx context.Context, fill func(b *pebble.Batch) error, changes ...Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b := f.db.NewBatch()
	defer b.Close()

	if fill != nil {
		if err := fill(b); err != nil {
			return err
		}
	}
	for _, c := range changes {
		f.lastSeq++
		if err := b.Set(keyEntry(f.lastSeq), EncodeChange(c), nil); err != nil {
			return err
		}
	}
	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], f.lastSeq)
	if err := b.Set(metaKey, meta[:], nil); err != nil {
		return err
	}

	if err := f.db.CommitBatch(ctx, b); err != nil {
		return err
	}
	close(f.notifyCh)
	f.notifyCh = make(chan struct{})
	return nil
}

// Entry is one committed change with its assigned sequence.
type Entry struct {
	Seq    uint64
	Change Change
}

// Read returns up to limit entries with seq > after, in order, along with
// the seq of the last entry returned (or after when empty).
func (f *Feed) Read(after uint64, limit int) ([]Entry, uint64) {
	low := keyEntry(after + 1)
	hi := keyEntry(^uint64(0))

	iter, err := f.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: append(hi, 0x00)})
	if err != nil {
		return nil, after
	}
	defer iter.Close()

	entries := make([]Entry, 0, limit)
	last := after
	for ok := iter.First(); ok && (limit == 0 || len(entries) < limit); ok = iter.Next() {
		seq := seqFromEntryKey(iter.Key())
		c, valid := DecodeChange(iter.Value())
		if valid {
			entries = append(entries, Entry{Seq: seq, Change: c})
		}
		last = seq
	}
	return entries, last
}

// WaitForAppend blocks until either a new append occurs or timeout elapses.
// It returns true if woken by an append, false on timeout.
func (f *Feed) WaitForAppend(timeout time.Duration) bool {
	f.mu.Lock()
	ch := f.notifyCh
	f.mu.Unlock()
	if timeout <= 0 {
		<-ch
		return true
	}
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

// CommitCursor durably stores the last processed seq for a consumer group.
// A commit below the stored position is ignored, keeping redelivery
// at-least-once rather than regressive.
func (f *Feed) CommitCursor(group string, seq uint64) error {
	key := keyCursor(group)
	if cur, err := f.db.Get(key); err == nil && len(cur) >= 8 {
		if seq <= binary.BigEndian.Uint64(cur[:8]) {
			return nil
		}
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return f.db.Set(key, b[:])
}

// GetCursor loads the committed position for a consumer group.
func (f *Feed) GetCursor(group string) (uint64, bool) {
	cur, err := f.db.Get(keyCursor(group))
	if err != nil || len(cur) < 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(cur[:8]), true
}
