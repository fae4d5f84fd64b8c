// Package subscriptions manages channel-membership records: the edge
// entities representing "connection X is subscribed to channel Y".
package subscriptions

import (
	"context"

	"github.com/rzbill/relay/internal/keys"
	"github.com/rzbill/relay/internal/table"
)

// Store provides CRUD over membership records. Subscribe and Unsubscribe
// are idempotent, so concurrent calls for the same (channel, connection)
// pair are commutative and need no coordination. Membership changes reach
// other subscribers only through the CDC stream; the store itself notifies
// no one.
type Store struct {
	tbl *table.Table
}

// New builds a Store over the record table.
func New(tbl *table.Table) *Store { return &Store{tbl: tbl} }

// Subscribe upserts the membership record. Re-subscribing is not an error
// and leaves exactly one record in place.
func (s *Store) Subscribe(ctx context.Context, channelID, connectionID string) error {
	return s.tbl.Put(ctx, keys.Channel(channelID).Encode(), keys.Connection(connectionID).Encode(), nil)
}

// Unsubscribe deletes the membership record if present. Unsubscribing an
// absent membership is not an error.
func (s *Store) Unsubscribe(ctx context.Context, channelID, connectionID string) error {
	return s.tbl.Delete(ctx, keys.Channel(channelID).Encode(), keys.Connection(connectionID).Encode())
}

// MembersOf returns the connection ids currently subscribed to the channel.
// The result is a snapshot; membership mutated mid-call is not reflected.
func (s *Store) MembersOf(ctx context.Context, channelID string) ([]string, error) {
	recs, err := s.tbl.QueryPrefix(ctx, keys.Channel(channelID).Encode(), keys.ConnectionPrefix, 0)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, keys.Decode(r.Sort))
	}
	return out, nil
}

// ChannelsOf returns the channel ids the connection is subscribed to, via
// the reverse index.
func (s *Store) ChannelsOf(ctx context.Context, connectionID string) ([]string, error) {
	recs, err := s.tbl.QueryReverse(ctx, keys.Connection(connectionID).Encode(), keys.ChannelPrefix, 0)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, keys.Decode(r.Partition))
	}
	return out, nil
}
