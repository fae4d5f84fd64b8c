// Package keys implements the composite-key codec for Relay's single-table
// layout. Every record's partition and sort values are prefixed strings of
// the form ENTITY|value, so entity kind is recoverable from the key alone.
// This package is the only place that builds or parses those prefixes.
package keys

import "strings"

// Sep separates the entity tag from the raw value inside one key component.
const Sep = "|"

// Entity prefixes. One table multiplexes all three entity kinds.
const (
	ChannelPrefix    = "CHANNEL" + Sep
	ConnectionPrefix = "CONNECTION" + Sep
	MessagePrefix    = "MESSAGE" + Sep
)

// Kind discriminates entity references.
type Kind int

const (
	KindChannel Kind = iota
	KindConnection
	KindMessage
)

// Ref is a typed reference to one entity. Internal code passes Refs around
// and encodes to prefixed strings only at the store boundary.
type Ref struct {
	Kind Kind
	// Channel carries the owning channel for message refs; unset otherwise.
	Channel string
	// ID is the raw entity identifier without any prefix.
	ID string
}

// Channel builds a channel reference.
func Channel(id string) Ref { return Ref{Kind: KindChannel, ID: id} }

// Connection builds a connection reference.
func Connection(id string) Ref { return Ref{Kind: KindConnection, ID: id} }

// Message builds a message reference inside a channel.
func Message(channel, id string) Ref { return Ref{Kind: KindMessage, Channel: channel, ID: id} }

// Encode renders the reference as its prefixed key component.
func (r Ref) Encode() string {
	switch r.Kind {
	case KindChannel:
		return ChannelPrefix + r.ID
	case KindConnection:
		return ConnectionPrefix + r.ID
	default:
		return MessagePrefix + r.ID
	}
}

// ConnectionEvent is implemented by live transport events that carry the
// transport-assigned connection id. Decode accepts these directly so the id
// never round-trips through string encoding.
type ConnectionEvent interface {
	ConnectionID() string
}

// Decode extracts the raw entity id from a prefixed key component or a live
// connection event. It is total: an unprefixed string is returned unchanged.
//
// Known defect, preserved from the original key scheme: the separator is
// stripped globally, so a raw id containing the separator character is
// silently corrupted. Ids must not contain the separator.
func Decode(target any) string {
	switch v := target.(type) {
	case ConnectionEvent:
		return v.ConnectionID()
	case string:
		v = strings.TrimPrefix(v, ChannelPrefix)
		v = strings.TrimPrefix(v, MessagePrefix)
		v = strings.TrimPrefix(v, ConnectionPrefix)
		return strings.ReplaceAll(v, Sep, "")
	default:
		return ""
	}
}
