package cdc

import "encoding/binary"

// Keyspace helpers for the change log's Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - cdc/m                  feed metadata (last assigned seq)
// - cdc/e/{seq_be8}        change entries
// - cdc/cursor/{group}     durable consumer cursors
var (
	metaKey      = []byte("cdc/m")
	entryPrefix  = []byte("cdc/e/")
	cursorPrefix = []byte("cdc/cursor/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// keyEntry builds the change entry key with a big-endian sequence for
// proper ordering.
func keyEntry(seq uint64) []byte {
	k := make([]byte, 0, len(entryPrefix)+8)
	k = append(k, entryPrefix...)
	return appendBE8(k, seq)
}

// keyCursor builds the durable cursor key for a consumer group.
func keyCursor(group string) []byte {
	k := make([]byte, 0, len(cursorPrefix)+len(group))
	k = append(k, cursorPrefix...)
	return append(k, group...)
}

func seqFromEntryKey(k []byte) uint64 {
	if len(k) < len(entryPrefix)+8 {
		return 0
	}
	return binary.BigEndian.Uint64(k[len(k)-8:])
}
