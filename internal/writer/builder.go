// Package writer builds complete MFS disk images. A Builder accumulates
// file definitions and then emits the whole image in one forward pass:
// boot sectors, master directory block, allocation block map, file
// directory, and fork data, all at their correct byte offsets. Forks are
// always laid out physically contiguous.
package writer

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/deploymenttheory/go-mfs/internal/parsers/allocation"
	"github.com/deploymenttheory/go-mfs/internal/parsers/directory"
	"github.com/deploymenttheory/go-mfs/internal/parsers/mdb"
	"github.com/deploymenttheory/go-mfs/internal/types"
)

var (
	// ErrNoFiles reports a write call on a builder with nothing added.
	ErrNoFiles = errors.New("no files added to builder")

	// ErrNilWriter reports an absent destination stream.
	ErrNilWriter = errors.New("destination writer is nil")

	// ErrInvalidBlockSize reports an allocation block size that is not a
	// positive multiple of 512.
	ErrInvalidBlockSize = errors.New("allocation block size must be a positive multiple of 512")

	// ErrInvalidName reports a file name outside 1..255 bytes.
	ErrInvalidName = errors.New("file name must be 1 to 255 bytes")

	// ErrInvalidCode reports a type or creator code that is not exactly
	// 4 bytes.
	ErrInvalidCode = errors.New("type and creator codes must be exactly 4 bytes")

	// ErrImageTooLarge reports content needing more allocation blocks
	// than a 12-bit map can describe.
	ErrImageTooLarge = errors.New("content exceeds 4094 allocation blocks")
)

// DefaultAllocationBlockSize matches a 400K floppy's allocation block.
const DefaultAllocationBlockSize uint32 = 1024

// DefaultVolumeName is used when Write receives an empty name.
const DefaultVolumeName = "Untitled"

// abmHeadCapacity is how many packed map bytes share the MDB's sector.
const abmHeadCapacity = types.SectorSize - types.MdbSize

// FileDefinition is one file to be placed on the image. Data and
// Resource may each be nil or empty for an absent fork.
type FileDefinition struct {
	Name         string
	Type         string
	Creator      string
	Data         []byte
	Resource     []byte
	Flags        uint8
	FinderFlags  uint16
	FolderNumber int16
}

// Builder accumulates file definitions for a single image. The zero
// clock is the wall clock; tests inject their own.
type Builder struct {
	files []FileDefinition
	now   func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock injects the time source used for the timestamps the writer
// stamps on the volume and on every entry.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddFile validates and appends one file definition. Validation happens
// here, at the call that violates the contract, not at write time.
func (b *Builder) AddFile(def FileDefinition) error {
	if len(def.Name) < 1 || len(def.Name) > types.FileNameCapacity {
		return fmt.Errorf("name %q is %d bytes: %w", def.Name, len(def.Name), ErrInvalidName)
	}
	if len(def.Type) != types.FourCCSize {
		return fmt.Errorf("type %q: %w", def.Type, ErrInvalidCode)
	}
	if len(def.Creator) != types.FourCCSize {
		return fmt.Errorf("creator %q: %w", def.Creator, ErrInvalidCode)
	}
	b.files = append(b.files, def)
	return nil
}

// FileCount returns the number of definitions added so far.
func (b *Builder) FileCount() int {
	return len(b.files)
}

// layout holds the transient geometry computed for one write call.
type layout struct {
	blockSize        uint32
	totalBlocks      int
	abmBytes         int
	extraAbmSectors  int
	directoryStart   int
	directorySectors int
	allocationStart  int
	// per file, in definition order: first block of each fork run, or 0.
	dataStart []uint16
	rsrcStart []uint16
	entries   []uint16
}

// Write emits a complete image to w. An empty volumeName or a zero
// allocationBlockSize selects the defaults. The builder's definitions
// are not consumed; Write can be called again with the same content.
func (b *Builder) Write(w io.Writer, volumeName string, allocationBlockSize uint32) error {
	if w == nil {
		return ErrNilWriter
	}
	if len(b.files) == 0 {
		return ErrNoFiles
	}
	if allocationBlockSize == 0 {
		allocationBlockSize = DefaultAllocationBlockSize
	}
	if allocationBlockSize%types.SectorSize != 0 {
		return fmt.Errorf("block size %d: %w", allocationBlockSize, ErrInvalidBlockSize)
	}
	if volumeName == "" {
		volumeName = DefaultVolumeName
	}
	volName, err := types.NewVolumeName(volumeName)
	if err != nil {
		return err
	}

	lay, err := b.computeLayout(allocationBlockSize)
	if err != nil {
		return err
	}

	stamp := types.NewMacTime(b.now())
	entries := b.buildEntries(lay, stamp)

	// Boot sectors are zero; MFS images built here are not bootable.
	if err := writeZeros(w, types.BootBlockCount*types.SectorSize); err != nil {
		return err
	}

	if err := b.writeHeaderAndMap(w, lay, volName, stamp); err != nil {
		return err
	}
	if err := b.writeDirectory(w, lay, entries); err != nil {
		return err
	}
	return b.writeForkData(w, lay)
}

// blocksFor returns how many allocation blocks a fork of n bytes needs.
func blocksFor(n int, blockSize uint32) int {
	if n == 0 {
		return 0
	}
	return (n + int(blockSize) - 1) / int(blockSize)
}

func (b *Builder) computeLayout(blockSize uint32) (*layout, error) {
	lay := &layout{
		blockSize: blockSize,
		dataStart: make([]uint16, len(b.files)),
		rsrcStart: make([]uint16, len(b.files)),
	}

	total := 0
	for _, f := range b.files {
		total += blocksFor(len(f.Data), blockSize)
		total += blocksFor(len(f.Resource), blockSize)
	}
	if total > types.MaxAllocationBlocks {
		return nil, fmt.Errorf("%d blocks of %d bytes: %w", total, blockSize, ErrImageTooLarge)
	}
	lay.totalBlocks = total
	lay.abmBytes = allocation.PackedSize(total)

	spill := lay.abmBytes - abmHeadCapacity
	if spill > 0 {
		lay.extraAbmSectors = (spill + types.SectorSize - 1) / types.SectorSize
	}

	// Greedy directory packing: an entry never splits across a sector.
	sectors := 1
	used := 0
	for _, f := range b.files {
		record := types.DirectoryEntryFixedSize + len(f.Name)
		if used+record > types.SectorSize {
			sectors++
			used = 0
		}
		used += record
		if used%2 != 0 {
			used++
		}
	}
	lay.directorySectors = sectors
	lay.directoryStart = types.BootBlockCount + 1 + lay.extraAbmSectors
	lay.allocationStart = lay.directoryStart + lay.directorySectors

	// Assign contiguous runs starting at block 2: data fork first, then
	// resource fork, files in definition order. Every link points at
	// self+1 except the run's last, which carries the end sentinel.
	entries := make([]uint16, total+types.FirstAllocationBlock)
	next := uint16(types.FirstAllocationBlock)
	assign := func(blocks int) uint16 {
		if blocks == 0 {
			return 0
		}
		start := next
		for i := 0; i < blocks; i++ {
			if i == blocks-1 {
				entries[next] = types.BlockLast
			} else {
				entries[next] = next + 1
			}
			next++
		}
		return start
	}
	for i, f := range b.files {
		lay.dataStart[i] = assign(blocksFor(len(f.Data), blockSize))
		lay.rsrcStart[i] = assign(blocksFor(len(f.Resource), blockSize))
	}
	lay.entries = entries

	return lay, nil
}

func (b *Builder) buildEntries(lay *layout, stamp types.MacTime) []*types.FileDirectoryEntry {
	entries := make([]*types.FileDirectoryEntry, len(b.files))
	for i, f := range b.files {
		var fileType, creator types.FourCC
		copy(fileType[:], f.Type)
		copy(creator[:], f.Creator)

		entries[i] = &types.FileDirectoryEntry{
			Flags:        types.EntryFlagInUse | f.Flags,
			Version:      0,
			FileType:     fileType,
			Creator:      creator,
			FinderFlags:  f.FinderFlags,
			FolderNumber: f.FolderNumber,
			FileNumber:   uint32(i + 1),
			DataFork: types.ForkInfo{
				FirstAllocationBlock: lay.dataStart[i],
				LogicalSize:          uint32(len(f.Data)),
				AllocatedSize:        uint32(blocksFor(len(f.Data), lay.blockSize)) * lay.blockSize,
			},
			ResourceFork: types.ForkInfo{
				FirstAllocationBlock: lay.rsrcStart[i],
				LogicalSize:          uint32(len(f.Resource)),
				AllocatedSize:        uint32(blocksFor(len(f.Resource), lay.blockSize)) * lay.blockSize,
			},
			CreationDate:     stamp,
			ModificationDate: stamp,
			Name:             f.Name,
		}
	}
	return entries
}

// writeHeaderAndMap emits the shared MDB sector plus any spill sectors
// of the allocation block map.
func (b *Builder) writeHeaderAndMap(w io.Writer, lay *layout, volName types.VolumeName, stamp types.MacTime) error {
	block := &types.MasterDirectoryBlock{
		Signature:                types.MfsSignature,
		CreationDate:             stamp,
		LastBackupDate:           0,
		Attributes:               0,
		NumberOfFiles:            uint16(len(b.files)),
		FileDirectoryStart:       uint16(lay.directoryStart),
		FileDirectoryLength:      uint16(lay.directorySectors),
		NumberOfAllocationBlocks: uint16(lay.totalBlocks),
		AllocationBlockSize:      lay.blockSize,
		ClumpSize:                lay.blockSize,
		AllocationBlockStart:     uint16(lay.allocationStart),
		NextFileNumber:           uint32(len(b.files) + 1),
		// The writer packs forks back to back and reserves nothing.
		FreeAllocationBlocks: 0,
		VolumeName:           volName,
	}

	abm, err := allocation.New(lay.entries)
	if err != nil {
		return err
	}
	packed := abm.Encode()

	sector := make([]byte, types.SectorSize)
	if err := mdb.Serialize(block, sector); err != nil {
		return err
	}
	head := packed
	if len(head) > abmHeadCapacity {
		head = head[:abmHeadCapacity]
	}
	copy(sector[types.MdbSize:], head)
	if _, err := w.Write(sector); err != nil {
		return fmt.Errorf("failed to write master directory block: %w", err)
	}

	if lay.extraAbmSectors > 0 {
		spill := make([]byte, lay.extraAbmSectors*types.SectorSize)
		copy(spill, packed[abmHeadCapacity:])
		if _, err := w.Write(spill); err != nil {
			return fmt.Errorf("failed to write allocation block map: %w", err)
		}
	}
	return nil
}

// writeDirectory emits the directory sectors with the same greedy
// packing computeLayout counted.
func (b *Builder) writeDirectory(w io.Writer, lay *layout, entries []*types.FileDirectoryEntry) error {
	sector := make([]byte, types.SectorSize)
	used := 0
	flush := func() error {
		if _, err := w.Write(sector); err != nil {
			return fmt.Errorf("failed to write directory sector: %w", err)
		}
		for i := range sector {
			sector[i] = 0
		}
		used = 0
		return nil
	}

	for _, e := range entries {
		if used+e.RecordSize() > types.SectorSize {
			if err := flush(); err != nil {
				return err
			}
		}
		n, err := directory.Serialize(e, sector[used:])
		if err != nil {
			return err
		}
		used += n
		if used%2 != 0 {
			used++
		}
	}
	return flush()
}

// writeForkData emits fork contents in definition order, data fork
// before resource fork, each fork zero padded to its allocated size.
func (b *Builder) writeForkData(w io.Writer, lay *layout) error {
	emit := func(data []byte) error {
		if len(data) == 0 {
			return nil
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write fork data: %w", err)
		}
		allocated := blocksFor(len(data), lay.blockSize) * int(lay.blockSize)
		return writeZeros(w, allocated-len(data))
	}
	for _, f := range b.files {
		if err := emit(f.Data); err != nil {
			return err
		}
		if err := emit(f.Resource); err != nil {
			return err
		}
	}
	return nil
}

func writeZeros(w io.Writer, n int) error {
	if n <= 0 {
		return nil
	}
	zeros := make([]byte, n)
	if _, err := w.Write(zeros); err != nil {
		return fmt.Errorf("failed to write padding: %w", err)
	}
	return nil
}
