// Package messages implements the append-only writer of channel messages
// and the first page of channel history.
package messages

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/rzbill/relay/internal/keys"
	"github.com/rzbill/relay/internal/table"
)

// Message is one persisted channel message.
type Message struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
	Content      string `json:"content"`
}

// Store appends messages under MESSAGE|<ms timestamp> sort keys so a
// channel partition reads back in chronological order. Messages are
// immutable once written.
//
// Two posts in the same millisecond produce the same sort key and the later
// write wins. Whether same-tick posts should coexist is deliberately left
// unresolved; no tie-break is added.
type Store struct {
	tbl       *table.Table
	sanitizer Sanitizer

	mu     sync.Mutex
	lastMs int64
}

// New builds a Store over the record table and content sanitizer.
func New(tbl *table.Table, sanitizer Sanitizer) *Store {
	return &Store{tbl: tbl, sanitizer: sanitizer}
}

// nowMs is overridable in tests.
var nowMs = func() int64 { return time.Now().UnixMilli() }

// next returns a wall-clock ms timestamp that never moves backwards within
// the process.
func (s *Store) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := nowMs()
	if ms < s.lastMs {
		ms = s.lastMs
	}
	s.lastMs = ms
	return ms
}

// Post sanitizes and durably appends a message. The write completing is the
// caller's durability boundary; fan-out to subscribers is not performed
// here. Returns the stored (sanitized) message.
func (s *Store) Post(ctx context.Context, channelID, authorConnectionID, displayName, rawContent string) (Message, error) {
	msg := Message{
		ConnectionID: authorConnectionID,
		Name:         CleanDisplayName(displayName),
		Content:      s.sanitizer.Sanitize(rawContent),
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return Message{}, err
	}

	sort := keys.Message(channelID, strconv.FormatInt(s.next(), 10)).Encode()
	if err := s.tbl.Put(ctx, keys.Channel(channelID).Encode(), sort, value); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// History returns up to limit of the channel's oldest messages in
// chronological order. Only the first page is served; there is no
// pagination beyond it.
func (s *Store) History(ctx context.Context, channelID string, limit int) ([]Message, error) {
	recs, err := s.tbl.QueryPrefix(ctx, keys.Channel(channelID).Encode(), keys.MessagePrefix, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(recs))
	for _, r := range recs {
		var m Message
		if err := json.Unmarshal(r.Value, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
