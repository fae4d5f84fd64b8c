// Package transport defines the send-to-connection primitive consumed by
// the broker core and the JSON notification payloads it produces.
package transport

import "context"

// Sender pushes a JSON payload to a specific live connection. Best-effort:
// implementations must return false for stale or closed connections rather
// than raising, and must never block past their own timeout policy. The
// core does not retry sends.
type Sender interface {
	Send(ctx context.Context, connectionID string, payload []byte) bool
}

// Event names carried in the "event" field of every outbound payload.
const (
	EventChannelMessage  = "channel_message"
	EventSubscriberSub   = "subscriber_sub"
	EventSubscriberUnsub = "subscriber_unsub"
	EventError           = "error"
)

// ChannelMessage notifies subscribers of a posted message.
type ChannelMessage struct {
	Event     string `json:"event"`
	ChannelID string `json:"channelId"`
	Name      string `json:"name"`
	Content   string `json:"content"`
}

// SubscriberChange notifies subscribers that a connection joined or left
// the channel. Event is subscriber_sub or subscriber_unsub.
type SubscriberChange struct {
	Event        string `json:"event"`
	ChannelID    string `json:"channelId"`
	SubscriberID string `json:"subscriberId"`
}

// Error reports an unroutable or unknown request action back to its
// originating connection.
type Error struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
