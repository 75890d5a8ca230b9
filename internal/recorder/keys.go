package recorder

import "encoding/binary"

const (
	actPrefix  = "act/"
	idxPrefix  = "idx/"
	metaPrefix = "meta/"
)

func appendBE8(b []byte, v uint64) []byte {
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], v)
	return append(b, be[:]...)
}

// actKey is act/<label>/<usn BE8>. The binary suffix sorts events in
// journal order within one volume's prefix.
func actKey(label string, usn int64) []byte {
	k := make([]byte, 0, len(actPrefix)+len(label)+1+8)
	k = append(k, actPrefix...)
	k = append(k, label...)
	k = append(k, '/')
	return appendBE8(k, uint64(usn))
}

// actPrefixKey is the scan prefix for one volume's events.
func actPrefixKey(label string) []byte {
	k := make([]byte, 0, len(actPrefix)+len(label)+1)
	k = append(k, actPrefix...)
	k = append(k, label...)
	return append(k, '/')
}

func idxKey(eventID string) []byte {
	return append([]byte(idxPrefix), eventID...)
}

func metaKey(label string) []byte {
	return append([]byte(metaPrefix), label...)
}

// prefixEnd returns the smallest key greater than every key with the
// given prefix, for use as an iterator upper bound.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
