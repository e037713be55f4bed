package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the domain types persisted by the storage layer.
// The type set is small and stable, so the serializers are maintained by
// hand rather than generated.

var (
	// IDMUS serializes record identifiers.
	IDMUS = idMUS{}

	// MetaValueMUS serializes a single metadata attribute.
	MetaValueMUS = metaValueMUS{}

	// MetadataMUS serializes metadata maps.
	MetadataMUS = ord.NewMapSer[string, MetaValue](ord.String, MetaValueMUS)

	// VectorMUS serializes embedding vectors.
	VectorMUS = ord.NewSliceSer[float32](varint.Float32)

	// MessageRecordMUS serializes message records.
	MessageRecordMUS = messageRecordMUS{}

	// CollectionInfoMUS serializes collection configuration records.
	CollectionInfoMUS = collectionInfoMUS{}

	timeMUS = timeMicroMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// timeMicroMUS serializes timestamps with microsecond precision.
type timeMicroMUS struct{}

func (timeMicroMUS) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeMicroMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeMicroMUS) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func (timeMicroMUS) Skip(bs []byte) (int, error) {
	return varint.Int64.Skip(bs)
}

type metaValueMUS struct{}

func (metaValueMUS) Marshal(v MetaValue, bs []byte) (n int) {
	n = varint.Int.Marshal(int(v.Kind), bs)
	n += ord.String.Marshal(v.Str, bs[n:])
	n += varint.Float64.Marshal(v.Num, bs[n:])
	n += timeMUS.Marshal(v.Time, bs[n:])
	return n
}

func (metaValueMUS) Unmarshal(bs []byte) (v MetaValue, n int, err error) {
	kind, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.Kind = MetaKind(kind)
	var n1 int
	v.Str, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Num, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Time, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return v, n, err
}

func (metaValueMUS) Size(v MetaValue) (size int) {
	size = varint.Int.Size(int(v.Kind))
	size += ord.String.Size(v.Str)
	size += varint.Float64.Size(v.Num)
	size += timeMUS.Size(v.Time)
	return size
}

func (metaValueMUS) Skip(bs []byte) (n int, err error) {
	n, err = varint.Int.Skip(bs)
	if err != nil {
		return n, err
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = varint.Float64.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = timeMUS.Skip(bs[n:])
	n += n1
	return n, err
}

type messageRecordMUS struct{}

func (messageRecordMUS) Marshal(r MessageRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(r.Id, bs)
	n += ord.String.Marshal(r.SourceID, bs[n:])
	n += ord.String.Marshal(r.Text, bs[n:])
	n += VectorMUS.Marshal(r.Vector, bs[n:])
	n += MetadataMUS.Marshal(r.Metadata, bs[n:])
	n += varint.Uint64.Marshal(r.Seq, bs[n:])
	n += timeMUS.Marshal(r.InsertedAt, bs[n:])
	n += timeMUS.Marshal(r.UpdatedAt, bs[n:])
	return n
}

func (messageRecordMUS) Unmarshal(bs []byte) (r MessageRecord, n int, err error) {
	r.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return r, n, err
	}
	var n1 int
	r.SourceID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return r, n, err
	}
	r.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return r, n, err
	}
	r.Vector, n1, err = VectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return r, n, err
	}
	r.Metadata, n1, err = MetadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return r, n, err
	}
	r.Seq, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return r, n, err
	}
	r.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return r, n, err
	}
	r.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return r, n, err
}

func (messageRecordMUS) Size(r MessageRecord) (size int) {
	size = IDMUS.Size(r.Id)
	size += ord.String.Size(r.SourceID)
	size += ord.String.Size(r.Text)
	size += VectorMUS.Size(r.Vector)
	size += MetadataMUS.Size(r.Metadata)
	size += varint.Uint64.Size(r.Seq)
	size += timeMUS.Size(r.InsertedAt)
	size += timeMUS.Size(r.UpdatedAt)
	return size
}

func (messageRecordMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return n, err
	}
	for _, skip := range []func([]byte) (int, error){
		ord.String.Skip,
		ord.String.Skip,
		VectorMUS.Skip,
		MetadataMUS.Skip,
		varint.Uint64.Skip,
		timeMUS.Skip,
		timeMUS.Skip,
	} {
		var n1 int
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

type collectionInfoMUS struct{}

func (collectionInfoMUS) Marshal(c CollectionInfo, bs []byte) (n int) {
	n = ord.String.Marshal(c.Name, bs)
	n += varint.Int.Marshal(c.Dimension, bs[n:])
	n += ord.String.Marshal(c.Metric, bs[n:])
	n += timeMUS.Marshal(c.CreatedAt, bs[n:])
	return n
}

func (collectionInfoMUS) Unmarshal(bs []byte) (c CollectionInfo, n int, err error) {
	c.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return c, n, err
	}
	var n1 int
	c.Dimension, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return c, n, err
	}
	c.Metric, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return c, n, err
	}
	c.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return c, n, err
}

func (collectionInfoMUS) Size(c CollectionInfo) (size int) {
	size = ord.String.Size(c.Name)
	size += varint.Int.Size(c.Dimension)
	size += ord.String.Size(c.Metric)
	size += timeMUS.Size(c.CreatedAt)
	return size
}

func (collectionInfoMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return n, err
	}
	var n1 int
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = timeMUS.Skip(bs[n:])
	n += n1
	return n, err
}
