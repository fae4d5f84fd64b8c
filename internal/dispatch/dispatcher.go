// Package dispatch turns raw CDC change records into typed, addressed
// notifications and fans them out to live subscriber connections.
package dispatch

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"github.com/rzbill/relay/internal/cdc"
	"github.com/rzbill/relay/internal/keys"
	"github.com/rzbill/relay/internal/messages"
	"github.com/rzbill/relay/internal/metrics"
	"github.com/rzbill/relay/internal/subscriptions"
	"github.com/rzbill/relay/internal/transport"
	"github.com/rzbill/relay/pkg/log"
)

// Dispatcher consumes CDC batches and emits membership notifications, and
// performs the ingestion-time fan-out of posted messages. Message INSERT
// change records are deliberately not re-broadcast here: delivery happens
// once, on the ingestion path, and the stream copy is left to higher-level
// consumers (audit, bots).
type Dispatcher struct {
	subs    *subscriptions.Store
	sender  transport.Sender
	metrics *metrics.Metrics
	logger  log.Logger
}

// New builds a Dispatcher.
func New(subs *subscriptions.Store, sender transport.Sender, mets *metrics.Metrics, logger log.Logger) *Dispatcher {
	return &Dispatcher{
		subs:    subs,
		sender:  sender,
		metrics: mets,
		logger:  logger.WithComponent("dispatch"),
	}
}

var kindNames = map[keys.MutationKind]string{
	keys.Ignored:          "ignored",
	keys.MembershipJoined: "membership_joined",
	keys.MembershipLeft:   "membership_left",
	keys.MessagePosted:    "message_posted",
}

// HandleBatch is the cdc.Handler. Records are classified and processed
// independently and concurrently; one record's failure does not block the
// others. The first store error is returned so the whole batch is
// redelivered; duplicate notifications are acceptable under at-least-once
// delivery.
func (d *Dispatcher) HandleBatch(ctx context.Context, entries []cdc.Entry) error {
	d.metrics.DispatchBatches.Inc()

	var g errgroup.Group
	for _, e := range entries {
		m := keys.Classify(e.Change.PartitionKey, e.Change.SortKey, e.Change.Op)
		d.metrics.ChangesTotal.WithLabelValues(kindNames[m.Kind]).Inc()

		switch m.Kind {
		case keys.MembershipJoined:
			g.Go(func() error { return d.notifyMembership(ctx, m, transport.EventSubscriberSub) })
		case keys.MembershipLeft:
			g.Go(func() error { return d.notifyMembership(ctx, m, transport.EventSubscriberUnsub) })
		default:
			// Ignored and MessagePosted: nothing to dispatch.
		}
	}
	return g.Wait()
}

// notifyMembership tells every current member of the channel that a
// connection joined or left. The affected connection is itself a recipient
// when still a member (join) and naturally absent after a leave; no
// exclusion is applied.
func (d *Dispatcher) notifyMembership(ctx context.Context, m keys.Mutation, event string) error {
	members, err := d.subs.MembersOf(ctx, m.Channel)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(transport.SubscriberChange{
		Event:        event,
		ChannelID:    m.Channel,
		SubscriberID: m.Connection,
	})
	if err != nil {
		return err
	}
	d.fanOut(ctx, members, payload)
	return nil
}

// BroadcastMessage fans a freshly posted message out to the channel's
// current members. Called on the ingestion path after the durable write.
func (d *Dispatcher) BroadcastMessage(ctx context.Context, channelID string, msg messages.Message) error {
	members, err := d.subs.MembersOf(ctx, channelID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(transport.ChannelMessage{
		Event:     transport.EventChannelMessage,
		ChannelID: channelID,
		Name:      msg.Name,
		Content:   msg.Content,
	})
	if err != nil {
		return err
	}
	d.fanOut(ctx, members, payload)
	return nil
}

// fanOut sends the payload to every recipient concurrently and waits for
// the full set to settle. A failed send is a stale connection: logged,
// counted, and otherwise a no-op. It never fails the fan-out.
func (d *Dispatcher) fanOut(ctx context.Context, recipients []string, payload []byte) {
	d.metrics.FanoutSize.Observe(float64(len(recipients)))

	var g errgroup.Group
	for _, connectionID := range recipients {
		connectionID := connectionID
		g.Go(func() error {
			if d.sender.Send(ctx, connectionID, payload) {
				d.metrics.SendsTotal.WithLabelValues("ok").Inc()
			} else {
				d.metrics.SendsTotal.WithLabelValues("failed").Inc()
				d.logger.Debug("send to stale connection dropped", log.Str("connection", connectionID))
			}
			return nil
		})
	}
	_ = g.Wait()
}
