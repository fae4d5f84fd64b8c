package table

// Keyspace helpers for the record table's Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - rec/{partition}\x00{sort}   primary records
// - rev/{sort}\x00{partition}   reverse index, maintained with the primary
//
// The 0x00 separator cannot appear in key components, which are prefixed
// strings produced by the keys package.
var (
	recPrefix = []byte("rec/")
	revPrefix = []byte("rev/")
	kvSep     = byte(0x00)
)

func primaryKey(partition, sort string) []byte {
	k := make([]byte, 0, len(recPrefix)+len(partition)+1+len(sort))
	k = append(k, recPrefix...)
	k = append(k, partition...)
	k = append(k, kvSep)
	k = append(k, sort...)
	return k
}

func reverseKey(partition, sort string) []byte {
	k := make([]byte, 0, len(revPrefix)+len(sort)+1+len(partition))
	k = append(k, revPrefix...)
	k = append(k, sort...)
	k = append(k, kvSep)
	k = append(k, partition...)
	return k
}

// primaryScanBounds returns the iterator bounds covering all records in
// partition whose sort key starts with sortPrefix.
func primaryScanBounds(partition, sortPrefix string) (low, hi []byte) {
	low = make([]byte, 0, len(recPrefix)+len(partition)+1+len(sortPrefix))
	low = append(low, recPrefix...)
	low = append(low, partition...)
	low = append(low, kvSep)
	low = append(low, sortPrefix...)
	return low, upperBound(low)
}

// reverseScanBounds mirrors primaryScanBounds over the reverse index.
func reverseScanBounds(sort, partitionPrefix string) (low, hi []byte) {
	low = make([]byte, 0, len(revPrefix)+len(sort)+1+len(partitionPrefix))
	low = append(low, revPrefix...)
	low = append(low, sort...)
	low = append(low, kvSep)
	low = append(low, partitionPrefix...)
	return low, upperBound(low)
}

// upperBound returns the smallest key greater than every key with the given
// prefix.
func upperBound(prefix []byte) []byte {
	out := append([]byte(nil), prefix...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	// All 0xff: no finite upper bound, scan to the end of the keyspace.
	return nil
}

// splitPrimary recovers (partition, sort) from a primary key.
func splitPrimary(k []byte) (string, string, bool) {
	if len(k) < len(recPrefix) {
		return "", "", false
	}
	body := k[len(recPrefix):]
	for i := 0; i < len(body); i++ {
		if body[i] == kvSep {
			return string(body[:i]), string(body[i+1:]), true
		}
	}
	return "", "", false
}

// splitReverse recovers (partition, sort) from a reverse index key.
func splitReverse(k []byte) (string, string, bool) {
	if len(k) < len(revPrefix) {
		return "", "", false
	}
	body := k[len(revPrefix):]
	for i := 0; i < len(body); i++ {
		if body[i] == kvSep {
			return string(body[i+1:]), string(body[:i]), true
		}
	}
	return "", "", false
}
