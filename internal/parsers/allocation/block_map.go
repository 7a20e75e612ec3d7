// Package allocation packs and unpacks the MFS allocation block map:
// one 12-bit entry per allocation block, big-endian nibble order, two
// entries per three bytes. The codec works on a contiguous byte buffer;
// splitting the map across 512-byte sectors is the volume and writer's
// concern.
package allocation

import (
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-mfs/internal/interfaces"
	"github.com/deploymenttheory/go-mfs/internal/types"
)

var (
	// ErrIndexOutOfRange reports a lookup outside the entry array.
	ErrIndexOutOfRange = errors.New("allocation block index out of range")

	// ErrTooManyBlocks reports a block count above the 12-bit limit.
	ErrTooManyBlocks = errors.New("allocation block count exceeds 4094")

	// ErrDataTooShort reports a packed buffer too small for the declared
	// block count.
	ErrDataTooShort = errors.New("packed map data too short")
)

// PackedSize returns the number of bytes needed to hold n 12-bit
// entries, covering a half-used trailing byte.
func PackedSize(n int) int {
	return (n*3 + 1) / 2
}

// BlockMap holds the unpacked entries. Index space starts at 2: indices
// 0 and 1 are placeholders so an allocation block number indexes the
// array directly. Entry semantics: 0 free, 1 last block of its chain,
// anything else the next block of the same fork's chain.
type BlockMap struct {
	entries []uint16
}

// Decode unpacks the map for numberOfAllocationBlocks blocks from the
// packed bytes at the start of data.
func Decode(data []byte, numberOfAllocationBlocks uint16) (*BlockMap, error) {
	if numberOfAllocationBlocks > types.MaxAllocationBlocks {
		return nil, fmt.Errorf("%d blocks: %w", numberOfAllocationBlocks, ErrTooManyBlocks)
	}

	n := int(numberOfAllocationBlocks)
	need := PackedSize(n)
	if len(data) < need {
		return nil, fmt.Errorf("got %d bytes, need %d for %d entries: %w", len(data), need, n, ErrDataTooShort)
	}

	entries := make([]uint16, n+types.FirstAllocationBlock)
	for k := 0; k < n; k++ {
		o := k * 3 / 2
		if k%2 == 0 {
			entries[k+types.FirstAllocationBlock] = uint16(data[o])<<4 | uint16(data[o+1])>>4
		} else {
			entries[k+types.FirstAllocationBlock] = (uint16(data[o])&0x0F)<<8 | uint16(data[o+1])
		}
	}

	return &BlockMap{entries: entries}, nil
}

// New builds a map from an already unpacked entry array, placeholders
// included. The writer uses this to assemble chains before packing.
func New(entries []uint16) (*BlockMap, error) {
	if len(entries) > types.MaxAllocationBlocks+types.FirstAllocationBlock {
		return nil, fmt.Errorf("%d entries: %w", len(entries), ErrTooManyBlocks)
	}
	m := &BlockMap{entries: make([]uint16, len(entries))}
	copy(m.entries, entries)
	return m, nil
}

// Encode packs the entries back into bytes, the exact inverse of Decode.
// Output length is PackedSize of the block count.
func (m *BlockMap) Encode() []byte {
	n := len(m.entries) - types.FirstAllocationBlock
	if n < 0 {
		n = 0
	}
	out := make([]byte, PackedSize(n))
	for k := 0; k < n; k++ {
		v := m.entries[k+types.FirstAllocationBlock] & 0x0FFF
		o := k * 3 / 2
		if k%2 == 0 {
			out[o] = byte(v >> 4)
			out[o+1] |= byte(v&0x0F) << 4
		} else {
			out[o] |= byte(v >> 8)
			out[o+1] = byte(v)
		}
	}
	return out
}

// Lookup returns the entry for an allocation block index, bounds-checked
// over the whole array including the two placeholder slots.
func (m *BlockMap) Lookup(index uint16) (uint16, error) {
	if int(index) >= len(m.entries) {
		return 0, fmt.Errorf("index %d, length %d: %w", index, len(m.entries), ErrIndexOutOfRange)
	}
	return m.entries[index], nil
}

// Len returns the length of the entry array, placeholders included.
func (m *BlockMap) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the unpacked entry array.
func (m *BlockMap) Entries() []uint16 {
	out := make([]uint16, len(m.entries))
	copy(out, m.entries)
	return out
}

var _ interfaces.AllocationBlockMap = (*BlockMap)(nil)
