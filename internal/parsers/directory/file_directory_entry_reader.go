// Package directory parses and serializes MFS file directory entries.
// An entry occupies 51 bytes plus its name; directory blocks word-align
// consecutive entries, but that padding belongs to the block layout, not
// to the record, so Parse reports the unaligned consumed length.
package directory

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-mfs/internal/types"
)

var (
	// ErrTooShort reports input shorter than the fixed 51-byte prefix or
	// shorter than the name it promises.
	ErrTooShort = errors.New("directory entry data too short")

	// ErrUnsupportedVersion reports a nonzero version byte.
	ErrUnsupportedVersion = errors.New("unsupported directory entry version")

	// ErrForkSizeExceedsAllocated reports a fork whose logical size is
	// larger than its allocated size.
	ErrForkSizeExceedsAllocated = errors.New("fork logical size exceeds allocated size")

	// ErrForkMissingAllocation reports a fork with data but no starting
	// allocation block.
	ErrForkMissingAllocation = errors.New("fork has nonzero size but no allocation block")

	// ErrBufferTooSmall reports a serialization buffer shorter than the
	// entry record.
	ErrBufferTooSmall = errors.New("buffer too small for directory entry")
)

// Field offsets within the fixed 51-byte prefix.
const (
	offFlags            = 0
	offVersion          = 1
	offFileType         = 2
	offCreator          = 6
	offFinderFlags      = 10
	offPositionY        = 12
	offPositionX        = 14
	offFolderNumber     = 16
	offFileNumber       = 18
	offDataStartBlock   = 22
	offDataLogicalSize  = 24
	offDataAllocated    = 28
	offRsrcStartBlock   = 32
	offRsrcLogicalSize  = 34
	offRsrcAllocated    = 38
	offCreationDate     = 42
	offModificationDate = 46
	offNameLength       = 50
)

// Parse decodes one directory entry from the start of data and returns
// it together with the number of bytes consumed (51 plus the name
// length). A cleared in-use flag is not an error here; callers use it to
// stop scanning a directory block.
func Parse(data []byte) (*types.FileDirectoryEntry, int, error) {
	if len(data) < types.DirectoryEntryFixedSize {
		return nil, 0, fmt.Errorf("got %d bytes, need at least %d: %w", len(data), types.DirectoryEntryFixedSize, ErrTooShort)
	}

	if v := data[offVersion]; v != 0 {
		return nil, 0, fmt.Errorf("version byte %d: %w", v, ErrUnsupportedVersion)
	}

	fileType, err := types.ParseFourCC(data[offFileType:])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse file type: %w", err)
	}
	creator, err := types.ParseFourCC(data[offCreator:])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse creator: %w", err)
	}

	e := &types.FileDirectoryEntry{
		Flags:        data[offFlags],
		Version:      data[offVersion],
		FileType:     fileType,
		Creator:      creator,
		FinderFlags:  binary.BigEndian.Uint16(data[offFinderFlags:]),
		PositionY:    binary.BigEndian.Uint16(data[offPositionY:]),
		PositionX:    binary.BigEndian.Uint16(data[offPositionX:]),
		FolderNumber: int16(binary.BigEndian.Uint16(data[offFolderNumber:])),
		FileNumber:   binary.BigEndian.Uint32(data[offFileNumber:]),
		DataFork: types.ForkInfo{
			FirstAllocationBlock: binary.BigEndian.Uint16(data[offDataStartBlock:]),
			LogicalSize:          binary.BigEndian.Uint32(data[offDataLogicalSize:]),
			AllocatedSize:        binary.BigEndian.Uint32(data[offDataAllocated:]),
		},
		ResourceFork: types.ForkInfo{
			FirstAllocationBlock: binary.BigEndian.Uint16(data[offRsrcStartBlock:]),
			LogicalSize:          binary.BigEndian.Uint32(data[offRsrcLogicalSize:]),
			AllocatedSize:        binary.BigEndian.Uint32(data[offRsrcAllocated:]),
		},
		CreationDate:     types.MacTime(binary.BigEndian.Uint32(data[offCreationDate:])),
		ModificationDate: types.MacTime(binary.BigEndian.Uint32(data[offModificationDate:])),
	}

	if err := validateFork("data", e.DataFork); err != nil {
		return nil, 0, err
	}
	if err := validateFork("resource", e.ResourceFork); err != nil {
		return nil, 0, err
	}

	name, consumed, err := types.ParsePascalString(data[offNameLength:])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse entry name: %w", err)
	}
	e.Name = name

	return e, offNameLength + consumed, nil
}

func validateFork(label string, f types.ForkInfo) error {
	if f.LogicalSize > f.AllocatedSize {
		return fmt.Errorf("%s fork: logical %d, allocated %d: %w", label, f.LogicalSize, f.AllocatedSize, ErrForkSizeExceedsAllocated)
	}
	if f.LogicalSize > 0 && f.FirstAllocationBlock == 0 {
		return fmt.Errorf("%s fork: logical %d with start block 0: %w", label, f.LogicalSize, ErrForkMissingAllocation)
	}
	return nil
}

// Serialize writes the entry record into buf and returns the number of
// bytes written (51 plus the name length, no alignment padding).
func Serialize(e *types.FileDirectoryEntry, buf []byte) (int, error) {
	size := e.RecordSize()
	if len(buf) < size {
		return 0, fmt.Errorf("got %d bytes, need %d: %w", len(buf), size, ErrBufferTooSmall)
	}

	buf[offFlags] = e.Flags
	buf[offVersion] = e.Version
	copy(buf[offFileType:], e.FileType[:])
	copy(buf[offCreator:], e.Creator[:])
	binary.BigEndian.PutUint16(buf[offFinderFlags:], e.FinderFlags)
	binary.BigEndian.PutUint16(buf[offPositionY:], e.PositionY)
	binary.BigEndian.PutUint16(buf[offPositionX:], e.PositionX)
	binary.BigEndian.PutUint16(buf[offFolderNumber:], uint16(e.FolderNumber))
	binary.BigEndian.PutUint32(buf[offFileNumber:], e.FileNumber)
	binary.BigEndian.PutUint16(buf[offDataStartBlock:], e.DataFork.FirstAllocationBlock)
	binary.BigEndian.PutUint32(buf[offDataLogicalSize:], e.DataFork.LogicalSize)
	binary.BigEndian.PutUint32(buf[offDataAllocated:], e.DataFork.AllocatedSize)
	binary.BigEndian.PutUint16(buf[offRsrcStartBlock:], e.ResourceFork.FirstAllocationBlock)
	binary.BigEndian.PutUint32(buf[offRsrcLogicalSize:], e.ResourceFork.LogicalSize)
	binary.BigEndian.PutUint32(buf[offRsrcAllocated:], e.ResourceFork.AllocatedSize)
	binary.BigEndian.PutUint32(buf[offCreationDate:], uint32(e.CreationDate))
	binary.BigEndian.PutUint32(buf[offModificationDate:], uint32(e.ModificationDate))

	if _, err := types.PutPascalString(buf[offNameLength:], e.Name, types.FileNameCapacity); err != nil {
		return 0, fmt.Errorf("failed to write entry name: %w", err)
	}

	return size, nil
}
