// Package volume implements read access to a single MFS volume: header
// and allocation map parsing at open time, lazy directory enumeration,
// and fork extraction by following allocation block chains.
package volume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/deploymenttheory/go-mfs/internal/interfaces"
	"github.com/deploymenttheory/go-mfs/internal/parsers/allocation"
	"github.com/deploymenttheory/go-mfs/internal/parsers/directory"
	"github.com/deploymenttheory/go-mfs/internal/parsers/mdb"
	"github.com/deploymenttheory/go-mfs/internal/types"
)

var (
	// ErrNilReader reports an absent byte source.
	ErrNilReader = errors.New("volume reader is nil")

	// ErrAllocationBlockOutOfBounds reports a chain step whose computed
	// byte offset falls outside the volume stream.
	ErrAllocationBlockOutOfBounds = errors.New("allocation block offset outside volume")

	// ErrTruncatedRead reports a stream that ended before delivering the
	// bytes a block read asked for.
	ErrTruncatedRead = errors.New("truncated read from volume stream")

	// ErrCyclicChain reports an allocation block chain that revisits a
	// block. A correct map never does this; failing fast beats reading
	// the same bytes until the declared fork size runs out.
	ErrCyclicChain = errors.New("allocation block chain revisits a block")

	// ErrInvalidForkKind reports a fork selector that is neither data
	// nor resource.
	ErrInvalidForkKind = errors.New("invalid fork kind")

	// ErrEntryNotFound reports a name lookup with no match.
	ErrEntryNotFound = errors.New("directory entry not found")
)

// Volume is an opened MFS volume. The header and allocation map are
// parsed once at open time into immutable copies; fork bytes are
// re-read from the underlying stream on every call. A Volume is safe
// for repeated reads but not for concurrent use of a shared stream
// handle that is not itself safe for concurrent positional reads.
type Volume struct {
	r    io.ReaderAt
	size int64
	mdb  *types.MasterDirectoryBlock
	abm  *allocation.BlockMap
}

var _ interfaces.ForkReader = (*Volume)(nil)

// Open parses the volume header and the full allocation block map from
// r, which must expose size readable bytes starting at the volume's
// first boot sector.
func Open(r io.ReaderAt, size int64) (*Volume, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	header := make([]byte, types.MdbSize)
	if err := readFullAt(r, header, types.MdbOffset); err != nil {
		return nil, fmt.Errorf("failed to read master directory block: %w", err)
	}
	block, err := mdb.Parse(header)
	if err != nil {
		return nil, err
	}

	// The packed map starts right after the MDB and runs contiguously
	// across however many sectors it needs.
	packed := make([]byte, allocation.PackedSize(int(block.NumberOfAllocationBlocks)))
	if err := readFullAt(r, packed, types.MdbOffset+types.MdbSize); err != nil {
		return nil, fmt.Errorf("failed to read allocation block map: %w", err)
	}
	abm, err := allocation.Decode(packed, block.NumberOfAllocationBlocks)
	if err != nil {
		return nil, err
	}

	return &Volume{r: r, size: size, mdb: block, abm: abm}, nil
}

// MasterDirectoryBlock returns the parsed volume header.
func (v *Volume) MasterDirectoryBlock() *types.MasterDirectoryBlock {
	return v.mdb
}

// AllocationBlockMap returns the unpacked allocation block map.
func (v *Volume) AllocationBlockMap() *allocation.BlockMap {
	return v.abm
}

// Name returns the decoded volume name.
func (v *Volume) Name() string {
	return v.mdb.VolumeName.String()
}

// ForEachEntry scans the file directory in on-disk order, calling fn for
// each in-use entry until fn returns false or an error. Within a
// directory block, scanning stops at the first entry whose in-use flag
// is clear; the rest of the block is padding.
func (v *Volume) ForEachEntry(fn func(*types.FileDirectoryEntry) (bool, error)) error {
	start := int(v.mdb.FileDirectoryStart)
	length := int(v.mdb.FileDirectoryLength)

	block := make([]byte, types.SectorSize)
	for sector := start; sector < start+length; sector++ {
		if err := readFullAt(v.r, block, int64(sector)*types.SectorSize); err != nil {
			return fmt.Errorf("failed to read directory sector %d: %w", sector, err)
		}

		off := 0
		for off < types.SectorSize {
			if block[off]&types.EntryFlagInUse == 0 {
				break
			}
			entry, consumed, err := directory.Parse(block[off:])
			if err != nil {
				return fmt.Errorf("directory sector %d offset %d: %w", sector, off, err)
			}
			cont, err := fn(entry)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
			off += consumed
			if off%2 != 0 {
				off++
			}
		}
	}
	return nil
}

// Entries materializes the directory in on-disk order. The order is not
// guaranteed to match file numbers.
func (v *Volume) Entries() ([]*types.FileDirectoryEntry, error) {
	var entries []*types.FileDirectoryEntry
	err := v.ForEachEntry(func(e *types.FileDirectoryEntry) (bool, error) {
		entries = append(entries, e)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FindEntry looks up a file by name, case-insensitively per Macintosh
// convention.
func (v *Volume) FindEntry(name string) (*types.FileDirectoryEntry, error) {
	var found *types.FileDirectoryEntry
	err := v.ForEachEntry(func(e *types.FileDirectoryEntry) (bool, error) {
		if strings.EqualFold(e.Name, name) {
			found = e
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrEntryNotFound)
	}
	return found, nil
}

// ReadFork returns the complete logical contents of one fork.
func (v *Volume) ReadFork(entry *types.FileDirectoryEntry, kind types.ForkKind) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := v.CopyFork(entry, kind, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CopyFork streams the logical contents of one fork to w and returns
// the number of bytes written. An empty fork (size 0 or start block 0)
// produces zero bytes without touching the stream.
func (v *Volume) CopyFork(entry *types.FileDirectoryEntry, kind types.ForkKind, w io.Writer) (int64, error) {
	fork, ok := entry.Fork(kind)
	if !ok {
		return 0, fmt.Errorf("fork kind %d: %w", kind, ErrInvalidForkKind)
	}
	if fork.Empty() {
		return 0, nil
	}

	blockSize := int64(v.mdb.AllocationBlockSize)
	remaining := int64(fork.LogicalSize)
	index := fork.FirstAllocationBlock
	visited := make(map[uint16]bool)

	var written int64
	buf := make([]byte, blockSize)
	for remaining > 0 {
		if visited[index] {
			return written, fmt.Errorf("block %d seen twice reading %s fork of %q: %w", index, kind, entry.Name, ErrCyclicChain)
		}
		visited[index] = true

		offset := v.allocationBlockOffset(index)
		if offset < 0 || offset >= v.size {
			return written, fmt.Errorf("block %d at offset %d, volume size %d: %w", index, offset, v.size, ErrAllocationBlockOutOfBounds)
		}

		n := blockSize
		if remaining < n {
			n = remaining
		}
		if err := readFullAt(v.r, buf[:n], offset); err != nil {
			return written, fmt.Errorf("block %d: %w", index, err)
		}
		m, err := w.Write(buf[:n])
		written += int64(m)
		if err != nil {
			return written, fmt.Errorf("failed to write fork bytes: %w", err)
		}
		remaining -= n
		if remaining == 0 {
			break
		}

		next, err := v.abm.Lookup(index)
		if err != nil {
			return written, err
		}
		if next == types.BlockFree || next == types.BlockLast {
			break
		}
		index = next
	}

	return written, nil
}

// allocationBlockOffset translates an allocation block index to a byte
// offset within the volume stream. Block 2 sits at the sector named by
// the MDB, so the base backs up two block sizes.
func (v *Volume) allocationBlockOffset(index uint16) int64 {
	blockSize := int64(v.mdb.AllocationBlockSize)
	return int64(v.mdb.AllocationBlockStart)*types.SectorSize - types.FirstAllocationBlock*blockSize + int64(index)*blockSize
}

// readFullAt reads exactly len(buf) bytes at off, mapping short reads to
// ErrTruncatedRead.
func readFullAt(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF || err == nil {
		return fmt.Errorf("got %d of %d bytes at offset %d: %w", n, len(buf), off, ErrTruncatedRead)
	}
	return err
}
