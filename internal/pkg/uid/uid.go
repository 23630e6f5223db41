// Package uid provides unique identifier generators with different
// trade-offs: sortable numeric IDs, UUIDs, and distributed object IDs.
package uid

// NumberID generates unique numeric identifiers.
type NumberID interface {
	Generate() uint64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
