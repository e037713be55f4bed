package badger

import (
	"encoding/binary"

	"github.com/archivox/archivox/core"
)

// Key prefixes for different data types
const (
	collectionInfoPrefix = "colinf"
	messageRecordPrefix  = "msgrec"
	insertionSeqName     = "msgseq"
)

// makeCollectionKey generates the key for a collection's configuration record.
func makeCollectionKey(collection string) []byte {
	return []byte(collectionInfoPrefix + ":" + collection)
}

// makeRecordKey generates the key for a message record within a collection.
// Format: prefix:collection:id, with the ID in BigEndian order so
// lexicographic iteration stays well defined.
func makeRecordKey(collection string, id core.ID) []byte {
	prefix := messageRecordPrefix + ":" + collection + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeRecordPrefix generates the iteration prefix for all records of a collection.
func makeRecordPrefix(collection string) []byte {
	return []byte(messageRecordPrefix + ":" + collection + ":")
}
