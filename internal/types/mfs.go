// Package types implements data structures for the Macintosh File System.
// This package is based on the MFS chapters of Inside Macintosh, Volume II.
package types

// Sector and layout constants. MFS divides a volume into 512-byte logical
// blocks (sectors); allocation blocks are a multiple of that.
const (
	// SectorSize is the size of one logical block on an MFS volume.
	SectorSize = 512

	// BootBlockCount is the number of boot sectors preceding the MDB.
	BootBlockCount = 2

	// MdbOffset is the byte offset of the Master Directory Block from the
	// start of the volume (after the two boot sectors).
	MdbOffset = BootBlockCount * SectorSize

	// MdbSize is the fixed size of the Master Directory Block in bytes.
	// The allocation block map begins immediately after it within the
	// same logical block.
	MdbSize = 64

	// DirectoryEntryFixedSize is the size of a file directory entry before
	// its variable-length name (length byte included in the 51).
	DirectoryEntryFixedSize = 51
)

// Volume signatures.
const (
	// MfsSignature identifies an MFS volume in the MDB.
	MfsSignature uint16 = 0xD2D7

	// HfsSignature is the signature of the successor Hierarchical File
	// System. Recognized only to produce a distinct diagnosis.
	HfsSignature uint16 = 0x4244
)

// Allocation block map constants. Entries are 12 bits wide, so block
// indices above 4094 cannot be represented; indices 0 and 1 are reserved
// as sentinel values inside map entries.
const (
	// MaxAllocationBlocks is the largest allocation block count a 12-bit
	// map can describe.
	MaxAllocationBlocks = 4094

	// FirstAllocationBlock is the index of the first real allocation
	// block. Block 2 is the first block of the allocation area.
	FirstAllocationBlock = 2

	// BlockFree marks an allocation block as unused.
	BlockFree uint16 = 0

	// BlockLast marks the final allocation block of a fork's chain.
	BlockLast uint16 = 1
)

// MDB attribute flags.
const (
	// AttrHardwareLocked is set when the volume is locked by hardware.
	AttrHardwareLocked uint16 = 1 << 7

	// AttrSoftwareLocked is set when the volume is locked by software.
	AttrSoftwareLocked uint16 = 1 << 15
)

// File directory entry flag bits.
const (
	// EntryFlagInUse marks a directory entry as occupied. A clear bit
	// terminates the entry list of its directory block.
	EntryFlagInUse uint8 = 1 << 7

	// EntryFlagLocked marks the file as locked.
	EntryFlagLocked uint8 = 1 << 0
)

// Well-known folder numbers. MFS is flat on disk; folders exist only as
// Finder bookkeeping in the directory entry.
const (
	FolderRoot    int16 = 0
	FolderDesktop int16 = -2
	FolderTrash   int16 = -3
)

// MasterDirectoryBlock is the 64-byte volume header located at byte 1024.
// All multi-byte fields are big-endian on disk.
type MasterDirectoryBlock struct {
	// Signature must equal MfsSignature.
	Signature uint16
	// CreationDate is when the volume was initialized.
	CreationDate MacTime
	// LastBackupDate is when the volume was last backed up.
	LastBackupDate MacTime
	// Attributes holds the volume lock flags.
	Attributes uint16
	// NumberOfFiles is the count of files on the volume.
	NumberOfFiles uint16
	// FileDirectoryStart is the sector index of the first directory block.
	FileDirectoryStart uint16
	// FileDirectoryLength is the directory length in sectors.
	FileDirectoryLength uint16
	// NumberOfAllocationBlocks is the total allocation block count (<=4094).
	NumberOfAllocationBlocks uint16
	// AllocationBlockSize is the allocation block size in bytes, a
	// positive multiple of 512.
	AllocationBlockSize uint32
	// ClumpSize is the growth hint; zero or a multiple of
	// AllocationBlockSize.
	ClumpSize uint32
	// AllocationBlockStart is the sector index where allocation block 2
	// begins.
	AllocationBlockStart uint16
	// NextFileNumber is the next unused file number.
	NextFileNumber uint32
	// FreeAllocationBlocks is the count of unused allocation blocks.
	FreeAllocationBlocks uint16
	// VolumeName is the Pascal-style volume name, at most 27 characters.
	VolumeName VolumeName
}

// HardwareLocked reports whether the hardware lock attribute is set.
func (m *MasterDirectoryBlock) HardwareLocked() bool {
	return m.Attributes&AttrHardwareLocked != 0
}

// SoftwareLocked reports whether the software lock attribute is set.
func (m *MasterDirectoryBlock) SoftwareLocked() bool {
	return m.Attributes&AttrSoftwareLocked != 0
}

// ForkInfo describes one fork of a file: where its chain starts in the
// allocation block map and how many bytes it holds.
type ForkInfo struct {
	// FirstAllocationBlock is the chain head, or 0 for an absent fork.
	FirstAllocationBlock uint16
	// LogicalSize is the fork length in bytes.
	LogicalSize uint32
	// AllocatedSize is the space reserved on disk, a multiple of the
	// allocation block size and never less than LogicalSize.
	AllocatedSize uint32
}

// Empty reports whether the fork holds no data.
func (f ForkInfo) Empty() bool {
	return f.LogicalSize == 0 || f.FirstAllocationBlock == 0
}

// ForkKind selects one of a file's two forks.
type ForkKind int

const (
	// DataFork selects the file's content bytes.
	DataFork ForkKind = iota
	// ResourceFork selects the file's structured resource bytes.
	ResourceFork
)

// String returns the conventional short name of the fork kind.
func (k ForkKind) String() string {
	switch k {
	case DataFork:
		return "data"
	case ResourceFork:
		return "resource"
	default:
		return "unknown"
	}
}

// FileDirectoryEntry is one file's metadata record. On disk it occupies
// 51 bytes plus the name, padded to a word boundary by the directory
// layout (the padding is not part of the record).
type FileDirectoryEntry struct {
	// Flags holds the in-use and locked bits.
	Flags uint8
	// Version must be zero.
	Version uint8
	// FileType is the four-character type code.
	FileType FourCC
	// Creator is the four-character creator code.
	Creator FourCC
	// FinderFlags holds the Finder's flag word.
	FinderFlags uint16
	// PositionY and PositionX locate the icon in its window.
	PositionY uint16
	PositionX uint16
	// FolderNumber places the file in a Finder folder: 0 root,
	// -2 desktop, -3 trash, positive values are folder ids.
	FolderNumber int16
	// FileNumber is the unique file number on this volume.
	FileNumber uint32
	// DataFork and ResourceFork describe the two fork chains.
	DataFork     ForkInfo
	ResourceFork ForkInfo
	// CreationDate and ModificationDate are Mac timestamps.
	CreationDate     MacTime
	ModificationDate MacTime
	// Name is the file name, 1 to 255 characters.
	Name string
}

// InUse reports whether the entry's in-use flag bit is set.
func (e *FileDirectoryEntry) InUse() bool {
	return e.Flags&EntryFlagInUse != 0
}

// Locked reports whether the file is locked.
func (e *FileDirectoryEntry) Locked() bool {
	return e.Flags&EntryFlagLocked != 0
}

// RecordSize returns the on-disk size of the entry in bytes, excluding
// any alignment padding that follows it.
func (e *FileDirectoryEntry) RecordSize() int {
	return DirectoryEntryFixedSize + len(e.Name)
}

// Fork returns the ForkInfo selected by kind.
func (e *FileDirectoryEntry) Fork(kind ForkKind) (ForkInfo, bool) {
	switch kind {
	case DataFork:
		return e.DataFork, true
	case ResourceFork:
		return e.ResourceFork, true
	default:
		return ForkInfo{}, false
	}
}
