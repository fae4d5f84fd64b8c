package cdc

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/rzbill/relay/internal/keys"
)

// Change is one raw store mutation as observed by the feed: the mutated
// partition key, the mutated sort key, and the operation tag.
type Change struct {
	PartitionKey string
	SortKey      string
	Op           keys.Op
}

// Change encoding: varint pkLen | pk | varint skLen | sk | opByte | crc32c.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func opByte(op keys.Op) byte {
	switch op {
	case keys.OpInsert:
		return 'I'
	case keys.OpUpdate:
		return 'U'
	default:
		return 'R'
	}
}

func opFromByte(b byte) keys.Op {
	switch b {
	case 'I':
		return keys.OpInsert
	case 'U':
		return keys.OpUpdate
	default:
		return keys.OpRemove
	}
}

// EncodeChange serializes the change with a trailing checksum.
func EncodeChange(c Change) []byte {
	out := make([]byte, 0, 20+len(c.PartitionKey)+len(c.SortKey)+5)
	var tmp [10]byte

	n := binary.PutUvarint(tmp[:], uint64(len(c.PartitionKey)))
	out = append(out, tmp[:n]...)
	out = append(out, c.PartitionKey...)

	n = binary.PutUvarint(tmp[:], uint64(len(c.SortKey)))
	out = append(out, tmp[:n]...)
	out = append(out, c.SortKey...)

	out = append(out, opByte(c.Op))

	crc := crc32.Checksum(out, castagnoli)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...)
}

// DecodeChange parses an encoded change, verifying the checksum. Returns
// false for truncated or corrupt input.
func DecodeChange(b []byte) (Change, bool) {
	if len(b) < 1+1+1+4 {
		return Change{}, false
	}
	body := b[:len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Checksum(body, castagnoli) != expect {
		return Change{}, false
	}

	pkLen, n := binary.Uvarint(body)
	if n <= 0 || n+int(pkLen) > len(body) {
		return Change{}, false
	}
	pk := string(body[n : n+int(pkLen)])
	rest := body[n+int(pkLen):]

	skLen, n := binary.Uvarint(rest)
	if n <= 0 || n+int(skLen)+1 > len(rest) {
		return Change{}, false
	}
	sk := string(rest[n : n+int(skLen)])
	op := opFromByte(rest[n+int(skLen)])

	return Change{PartitionKey: pk, SortKey: sk, Op: op}, true
}
