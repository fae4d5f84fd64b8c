package table

import (
	"context"
	"errors"

	"github.com/cockroachdb/pebble"

	"github.com/rzbill/relay/internal/cdc"
	"github.com/rzbill/relay/internal/keys"
	pebblestore "github.com/rzbill/relay/internal/storage/pebble"
)

// ErrNotFound is returned by Get for absent records.
var ErrNotFound = errors.New("table: record not found")

// Record is one row of the single-table layout: a (partition, sort)
// composite address and an opaque value.
type Record struct {
	Partition string
	Sort      string
	Value     []byte
}

// Table is the ordered record store backing all Relay entities. Every
// mutation maintains the reverse index and appends a CDC change in the same
// Pebble batch, so readers of the feed observe exactly the committed
// mutation order per partition.
type Table struct {
	db   *pebblestore.DB
	feed *cdc.Feed
}

// New wires a Table over an open database and change feed.
func New(db *pebblestore.DB, feed *cdc.Feed) *Table {
	return &Table{db: db, feed: feed}
}

// Put upserts the record. Emits INSERT for a new (partition, sort) pair and
// UPDATE when overwriting, mirroring the upstream store's stream semantics.
func (t *Table) Put(ctx context.Context, partition, sort string, value []byte) error {
	op := keys.OpInsert
	if _, err := t.db.Get(primaryKey(partition, sort)); err == nil {
		op = keys.OpUpdate
	}
	return t.feed.Append(ctx, func(b *pebble.Batch) error {
		if err := b.Set(primaryKey(partition, sort), value, nil); err != nil {
			return err
		}
		return b.Set(reverseKey(partition, sort), nil, nil)
	}, cdc.Change{PartitionKey: partition, SortKey: sort, Op: op})
}

// Delete removes the record if present. Deleting an absent record is a
// no-op and emits no change.
func (t *Table) Delete(ctx context.Context, partition, sort string) error {
	if _, err := t.db.Get(primaryKey(partition, sort)); err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return nil
		}
		return err
	}
	return t.feed.Append(ctx, func(b *pebble.Batch) error {
		if err := b.Delete(primaryKey(partition, sort), nil); err != nil {
			return err
		}
		return b.Delete(reverseKey(partition, sort), nil)
	}, cdc.Change{PartitionKey: partition, SortKey: sort, Op: keys.OpRemove})
}

// Get returns the record's value, or ErrNotFound.
func (t *Table) Get(ctx context.Context, partition, sort string) ([]byte, error) {
	v, err := t.db.Get(primaryKey(partition, sort))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

// QueryPrefix returns, in sort order, the records of one partition whose
// sort key begins with sortPrefix. limit <= 0 means no cap. No keys outside
// the partition are visited.
func (t *Table) QueryPrefix(ctx context.Context, partition, sortPrefix string, limit int) ([]Record, error) {
	low, hi := primaryScanBounds(partition, sortPrefix)
	iter, err := t.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Record
	for ok := iter.First(); ok && (limit <= 0 || len(out) < limit); ok = iter.Next() {
		pk, sk, valid := splitPrimary(iter.Key())
		if !valid {
			continue
		}
		out = append(out, Record{Partition: pk, Sort: sk, Value: append([]byte(nil), iter.Value()...)})
	}
	return out, nil
}

// QueryReverse returns the records whose sort key equals sort and whose
// partition begins with partitionPrefix, via the reverse index. Values are
// not materialized; callers needing them issue point Gets.
func (t *Table) QueryReverse(ctx context.Context, sort, partitionPrefix string, limit int) ([]Record, error) {
	low, hi := reverseScanBounds(sort, partitionPrefix)
	iter, err := t.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Record
	for ok := iter.First(); ok && (limit <= 0 || len(out) < limit); ok = iter.Next() {
		pk, sk, valid := splitReverse(iter.Key())
		if !valid {
			continue
		}
		out = append(out, Record{Partition: pk, Sort: sk})
	}
	return out, nil
}
