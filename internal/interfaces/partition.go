// File: internal/interfaces/partition.go
package interfaces

import "io"

// PartitionEntry describes one partition found by a locator: its type
// string and its position in 512-byte blocks from the start of the disk
type PartitionEntry struct {
	Type       string
	StartBlock uint32
	BlockCount uint32
}

// PartitionMapLocator is the capability the disk layer uses to find
// volumes inside a larger image. The core never depends on the
// partition map's internal layout, only on these two operations
type PartitionMapLocator interface {
	// HasPartitionMap reports whether the stream begins with a
	// recognizable partition map
	HasPartitionMap(r io.ReaderAt) bool

	// Partitions enumerates the partition entries in disk order
	Partitions(r io.ReaderAt) ([]PartitionEntry, error)
}
