package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for indexed messages.
// It is derived deterministically from the message's source coordinates
// so that re-ingesting the same message always maps to the same record.
type ID uint64

// IDFromSource generates a deterministic ID from a message's channel and
// source timestamp using BLAKE2b hashing. Identical (channel, ts) pairs
// always produce identical IDs, which makes re-ingestion idempotent.
func IDFromSource(channel, sourceTS string) ID {
	return IDFromContent(channel + ":" + sourceTS)
}

// IDFromContent generates a deterministic ID from arbitrary text content.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// MetaKind identifies the value type carried by a MetaValue.
type MetaKind int

const (
	// MetaKindString holds a free-text attribute.
	MetaKindString MetaKind = iota + 1
	// MetaKindNumber holds a numeric attribute.
	MetaKindNumber
	// MetaKindTime holds a timestamp attribute.
	MetaKindTime
)

// MetaValue is a metadata attribute restricted to a closed set of
// primitive value types. Keeping the set closed keeps the store
// contract checkable, unlike an open-ended dynamic object.
type MetaValue struct {
	Kind MetaKind
	Str  string
	Num  float64
	Time time.Time
}

// MetaString creates a string-valued metadata attribute.
func MetaString(s string) MetaValue {
	return MetaValue{Kind: MetaKindString, Str: s}
}

// MetaNumber creates a numeric metadata attribute.
func MetaNumber(n float64) MetaValue {
	return MetaValue{Kind: MetaKindNumber, Num: n}
}

// MetaTime creates a timestamp metadata attribute.
func MetaTime(t time.Time) MetaValue {
	return MetaValue{Kind: MetaKindTime, Time: t}
}

// Metadata is the typed attribute map carried alongside a message vector.
// Attributes travel with the record but are never embedded into the vector.
type Metadata map[string]MetaValue

// MessageRecord is a single unit of indexable content.
// Records are created during ingestion and immutable thereafter except
// for full-record replacement when the same ID is re-ingested.
type MessageRecord struct {
	Id       ID
	SourceID string // original source coordinates, e.g. "general:1700000000.000100"
	Text     string // cleaned message body, markup stripped
	Vector   []float32
	Metadata Metadata

	// Seq is assigned by the vector store on first insert and preserved
	// across overwrites. It breaks distance ties in insertion order.
	Seq        uint64
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// ResultItem is a single nearest-neighbor match returned by a query.
type ResultItem struct {
	Record   *MessageRecord
	Distance float32
}

// Similarity converts the store's cosine distance to a similarity score.
func (r ResultItem) Similarity() float32 {
	return 1 - r.Distance
}
