package store

import (
	"fmt"
	"strconv"
)

// priorityWidth is the number of decimal digits in math.MaxInt64, the
// width needed so that byte-lexicographic key order equals
// numeric priority order.
const priorityWidth = 19

// seqWidth is the number of decimal digits in math.MaxUint64, wide
// enough for bbolt's per-bucket NextSequence counter.
const seqWidth = 20

// encodeKey builds a composite (priority, seq) key: a priorityWidth
// zero-padded priority followed by a seqWidth zero-padded sequence
// number. Byte order of the result equals (priority, seq) order, which
// is exactly insertion order for equal priorities.
func encodeKey(priority int64, seq uint64) []byte {
	return []byte(fmt.Sprintf("%0*d%0*d", priorityWidth, priority, seqWidth, seq))
}

// decodeKey splits a composite key back into its priority and sequence
// number. An error means the record is corrupt.
func decodeKey(key []byte) (priority int64, seq uint64, err error) {
	if len(key) != priorityWidth+seqWidth {
		return 0, 0, fmt.Errorf("store: malformed key length %d", len(key))
	}
	priority, err = strconv.ParseInt(string(key[:priorityWidth]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("store: malformed key priority: %w", err)
	}
	seq, err = strconv.ParseUint(string(key[priorityWidth:]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("store: malformed key sequence: %w", err)
	}
	return priority, seq, nil
}

func taskBucketName(siteID string) []byte {
	return []byte("task:" + siteID)
}

var sitesBucketName = []byte("sites")
