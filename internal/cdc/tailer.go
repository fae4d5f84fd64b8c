package cdc

import (
	"context"
	"time"

	"github.com/rzbill/relay/pkg/log"
)

// Handler consumes one batch of change entries. The cursor advances only
// after the handler returns nil, so delivery is at-least-once and handlers
// must tolerate duplicates.
type Handler func(ctx context.Context, entries []Entry) error

// Tailer drives a Handler from the feed under a durable consumer group.
type Tailer struct {
	feed    *Feed
	group   string
	handler Handler
	logger  log.Logger

	batchSize int
	waitFor   time.Duration
	retryIn   time.Duration
}

// NewTailer builds a tailer for the given consumer group.
func NewTailer(feed *Feed, group string, handler Handler, logger log.Logger) *Tailer {
	return &Tailer{
		feed:      feed,
		group:     group,
		handler:   handler,
		logger:    logger.WithComponent("cdc"),
		batchSize: 128,
		waitFor:   2 * time.Second,
		retryIn:   250 * time.Millisecond,
	}
}

// Run tails the feed until ctx is cancelled. A handler failure leaves the
// cursor where it was and the batch is redelivered after a short pause.
func (t *Tailer) Run(ctx context.Context) error {
	after, _ := t.feed.GetCursor(t.group)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, last := t.feed.Read(after, t.batchSize)
		if len(entries) == 0 {
			t.feed.WaitForAppend(t.waitFor)
			continue
		}
		if err := t.handler(ctx, entries); err != nil {
			t.logger.Error("batch handler failed, will redeliver",
				log.Err(err),
				log.Int64("after", int64(after)),
				log.Int("entries", len(entries)),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.retryIn):
			}
			continue
		}
		if err := t.feed.CommitCursor(t.group, last); err != nil {
			t.logger.Error("cursor commit failed", log.Err(err), log.Int64("seq", int64(last)))
		}
		after = last
	}
}
