// File: internal/interfaces/volume.go
package interfaces

import (
	"io"

	"github.com/deploymenttheory/go-mfs/internal/types"
)

// MasterDirectoryBlockReader provides read access to the parsed volume header
type MasterDirectoryBlockReader interface {
	// Signature returns the volume signature word
	Signature() uint16

	// CreationDate returns when the volume was initialized
	CreationDate() types.MacTime

	// LastBackupDate returns when the volume was last backed up
	LastBackupDate() types.MacTime

	// Attributes returns the volume attribute flags
	Attributes() uint16

	// NumberOfFiles returns the count of files on the volume
	NumberOfFiles() uint16

	// FileDirectoryStart returns the sector index of the first directory block
	FileDirectoryStart() uint16

	// FileDirectoryLength returns the directory length in sectors
	FileDirectoryLength() uint16

	// NumberOfAllocationBlocks returns the total allocation block count
	NumberOfAllocationBlocks() uint16

	// AllocationBlockSize returns the allocation block size in bytes
	AllocationBlockSize() uint32

	// ClumpSize returns the file growth hint in bytes
	ClumpSize() uint32

	// AllocationBlockStart returns the sector index of allocation block 2
	AllocationBlockStart() uint16

	// NextFileNumber returns the next unused file number
	NextFileNumber() uint32

	// FreeAllocationBlocks returns the count of unused allocation blocks
	FreeAllocationBlocks() uint16

	// VolumeName returns the decoded volume name
	VolumeName() string
}

// AllocationBlockMap provides bounds-checked access to the unpacked
// 12-bit block map entries
type AllocationBlockMap interface {
	// Lookup returns the map entry for an allocation block index
	Lookup(index uint16) (uint16, error)

	// Len returns the length of the entry array, reserved indices included
	Len() int

	// Entries returns a copy of the unpacked entry array
	Entries() []uint16
}

// ForkReader reads fork contents from an opened volume
type ForkReader interface {
	// ReadFork returns the complete logical contents of one fork
	ReadFork(entry *types.FileDirectoryEntry, kind types.ForkKind) ([]byte, error)

	// CopyFork streams the logical contents of one fork to w and
	// returns the number of bytes written
	CopyFork(entry *types.FileDirectoryEntry, kind types.ForkKind, w io.Writer) (int64, error)
}
