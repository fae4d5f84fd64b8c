package keys

import "strings"

// Op is the mutation operation tag carried by a CDC change record.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpRemove Op = "REMOVE"
)

// MutationKind is the closed set of meanings a raw store mutation can have.
type MutationKind int

const (
	// Ignored covers mutations with no fan-out semantics: unknown prefixes,
	// connection-only records, membership updates, message edits.
	Ignored MutationKind = iota
	// MembershipJoined is an insert of a (channel, connection) edge.
	MembershipJoined
	// MembershipLeft is a removal of a (channel, connection) edge.
	MembershipLeft
	// MessagePosted is an insert of a message record into a channel.
	MessagePosted
)

// Mutation is a classified store mutation.
type Mutation struct {
	Kind MutationKind
	// Channel is the raw channel id, set for all non-Ignored kinds.
	Channel string
	// Connection is the affected subscriber for membership mutations.
	Connection string
	// Message is the raw message sort id for MessagePosted.
	Message string
}

// Classify derives meaning from the shape of a raw mutation record. Unknown
// partition or sort prefixes classify as Ignored, never as an error: the
// table may carry unrelated entity types and skipping them keeps the stream
// forward-compatible.
func Classify(partitionKey, sortKey string, op Op) Mutation {
	if !strings.HasPrefix(partitionKey, ChannelPrefix) {
		return Mutation{Kind: Ignored}
	}
	channel := Decode(partitionKey)

	switch {
	case strings.HasPrefix(sortKey, ConnectionPrefix):
		switch op {
		case OpInsert:
			return Mutation{Kind: MembershipJoined, Channel: channel, Connection: Decode(sortKey)}
		case OpRemove:
			return Mutation{Kind: MembershipLeft, Channel: channel, Connection: Decode(sortKey)}
		default:
			// Membership records are never legitimately updated; a stray
			// UPDATE is a no-op rather than an error.
			return Mutation{Kind: Ignored}
		}
	case strings.HasPrefix(sortKey, MessagePrefix):
		if op != OpInsert {
			// Messages are immutable; edits and removals carry no meaning.
			return Mutation{Kind: Ignored}
		}
		return Mutation{Kind: MessagePosted, Channel: channel, Message: Decode(sortKey)}
	default:
		return Mutation{Kind: Ignored}
	}
}
