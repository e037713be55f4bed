package core

import "time"

// MetricCosine is the cosine distance metric. It is the only metric the
// store currently supports; the name is persisted so that a collection can
// never silently be queried under a different metric than it was built with.
const MetricCosine = "cosine"

// CollectionInfo is the persisted configuration of a named collection.
// It is written when the collection is lazily created on first upsert and
// pins the vector dimensionality and distance metric for its lifetime.
type CollectionInfo struct {
	Name      string
	Dimension int
	Metric    string
	CreatedAt time.Time
}
