// Package lifecycle drives the connection state machine: CONNECT and
// DISCONNECT events become subscribe/unsubscribe operations against the
// subscription store.
package lifecycle

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rzbill/relay/internal/subscriptions"
	"github.com/rzbill/relay/pkg/log"
)

// DefaultChannel is the well-known channel every connection joins on
// first contact.
const DefaultChannel = "General"

// Manager handles connection lifecycle transitions. It holds no per
// connection state of its own; a connection exists only as membership
// records, so the transitions reduce to store operations.
type Manager struct {
	subs           *subscriptions.Store
	defaultChannel string
	logger         log.Logger
}

// New builds a Manager. defaultChannel falls back to DefaultChannel when
// empty.
func New(subs *subscriptions.Store, defaultChannel string, logger log.Logger) *Manager {
	if defaultChannel == "" {
		defaultChannel = DefaultChannel
	}
	return &Manager{
		subs:           subs,
		defaultChannel: defaultChannel,
		logger:         logger.WithComponent("lifecycle"),
	}
}

// Connect handles first contact: the connection is subscribed to the
// default channel exactly as if it had sent a subscribe request itself.
// Reconnecting an already-subscribed connection succeeds (idempotent
// upsert).
func (m *Manager) Connect(ctx context.Context, connectionID string) error {
	return m.subs.Subscribe(ctx, m.defaultChannel, connectionID)
}

// Disconnect looks up every membership of the connection via the reverse
// index and unsubscribes them all concurrently, waiting for the full set
// before returning. Failures are logged and the first is returned so the
// caller can decide; the transport must not retry a disconnect, the
// connection is already gone.
func (m *Manager) Disconnect(ctx context.Context, connectionID string) error {
	channels, err := m.subs.ChannelsOf(ctx, connectionID)
	if err != nil {
		return err
	}

	var g errgroup.Group
	for _, channelID := range channels {
		channelID := channelID
		g.Go(func() error {
			if err := m.subs.Unsubscribe(ctx, channelID, connectionID); err != nil {
				m.logger.Error("disconnect cleanup failed",
					log.Str("connection", connectionID),
					log.Str("channel", channelID),
					log.Err(err),
				)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
