// Package mdb parses and serializes the Master Directory Block, the
// 64-byte MFS volume header located at byte 1024 of the volume.
package mdb

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-mfs/internal/interfaces"
	"github.com/deploymenttheory/go-mfs/internal/types"
)

var (
	// ErrWrongSize reports input that is not exactly 64 bytes.
	ErrWrongSize = errors.New("master directory block must be exactly 64 bytes")

	// ErrNotMfsSignature reports a signature word that is not MFS.
	ErrNotMfsSignature = errors.New("not an MFS volume signature")

	// ErrHfsSignature reports an HFS signature where MFS was expected.
	// Distinct from ErrNotMfsSignature so callers can tell the user
	// they have the wrong filesystem rather than garbage.
	ErrHfsSignature = errors.New("volume is HFS, not MFS")

	// ErrInvalidAllocationBlockSize reports a block size that is zero or
	// not a multiple of 512.
	ErrInvalidAllocationBlockSize = errors.New("allocation block size must be a positive multiple of 512")

	// ErrInvalidClumpSize reports a clump size that is neither zero nor
	// a multiple of the allocation block size.
	ErrInvalidClumpSize = errors.New("clump size must be zero or a multiple of the allocation block size")

	// ErrTooManyAllocationBlocks reports a block count the 12-bit map
	// cannot describe.
	ErrTooManyAllocationBlocks = errors.New("allocation block count exceeds 4094")

	// ErrFreeExceedsTotal reports more free blocks than total blocks.
	ErrFreeExceedsTotal = errors.New("free allocation blocks exceed total")

	// ErrVolumeNameTooLong reports a volume name length byte above 27.
	ErrVolumeNameTooLong = errors.New("volume name exceeds 27 characters")

	// ErrBufferTooSmall reports a serialization buffer below 64 bytes.
	ErrBufferTooSmall = errors.New("buffer too small for master directory block")
)

// Field offsets within the 64-byte block. All fields are big-endian.
const (
	offSignature            = 0
	offCreationDate         = 2
	offLastBackupDate       = 6
	offAttributes           = 10
	offNumberOfFiles        = 12
	offFileDirectoryStart   = 14
	offFileDirectoryLength  = 16
	offNumAllocationBlocks  = 18
	offAllocationBlockSize  = 20
	offClumpSize            = 24
	offAllocationBlockStart = 28
	offNextFileNumber       = 30
	offFreeAllocationBlocks = 34
	offVolumeName           = 36
)

// Parse decodes and validates a Master Directory Block. The input must
// be exactly 64 bytes; a block either parses completely and validly or
// not at all.
func Parse(data []byte) (*types.MasterDirectoryBlock, error) {
	if len(data) != types.MdbSize {
		return nil, fmt.Errorf("got %d bytes: %w", len(data), ErrWrongSize)
	}

	sig := binary.BigEndian.Uint16(data[offSignature:])
	if sig != types.MfsSignature {
		if sig == types.HfsSignature {
			return nil, fmt.Errorf("signature 0x%04X: %w", sig, ErrHfsSignature)
		}
		return nil, fmt.Errorf("signature 0x%04X, want 0x%04X: %w", sig, types.MfsSignature, ErrNotMfsSignature)
	}

	m := &types.MasterDirectoryBlock{
		Signature:                sig,
		CreationDate:             types.MacTime(binary.BigEndian.Uint32(data[offCreationDate:])),
		LastBackupDate:           types.MacTime(binary.BigEndian.Uint32(data[offLastBackupDate:])),
		Attributes:               binary.BigEndian.Uint16(data[offAttributes:]),
		NumberOfFiles:            binary.BigEndian.Uint16(data[offNumberOfFiles:]),
		FileDirectoryStart:       binary.BigEndian.Uint16(data[offFileDirectoryStart:]),
		FileDirectoryLength:      binary.BigEndian.Uint16(data[offFileDirectoryLength:]),
		NumberOfAllocationBlocks: binary.BigEndian.Uint16(data[offNumAllocationBlocks:]),
		AllocationBlockSize:      binary.BigEndian.Uint32(data[offAllocationBlockSize:]),
		ClumpSize:                binary.BigEndian.Uint32(data[offClumpSize:]),
		AllocationBlockStart:     binary.BigEndian.Uint16(data[offAllocationBlockStart:]),
		NextFileNumber:           binary.BigEndian.Uint32(data[offNextFileNumber:]),
		FreeAllocationBlocks:     binary.BigEndian.Uint16(data[offFreeAllocationBlocks:]),
	}

	if m.AllocationBlockSize == 0 || m.AllocationBlockSize%types.SectorSize != 0 {
		return nil, fmt.Errorf("allocation block size %d: %w", m.AllocationBlockSize, ErrInvalidAllocationBlockSize)
	}
	if m.ClumpSize%m.AllocationBlockSize != 0 {
		return nil, fmt.Errorf("clump size %d with block size %d: %w", m.ClumpSize, m.AllocationBlockSize, ErrInvalidClumpSize)
	}
	if m.NumberOfAllocationBlocks > types.MaxAllocationBlocks {
		return nil, fmt.Errorf("%d allocation blocks: %w", m.NumberOfAllocationBlocks, ErrTooManyAllocationBlocks)
	}
	if m.FreeAllocationBlocks > m.NumberOfAllocationBlocks {
		return nil, fmt.Errorf("%d free of %d total: %w", m.FreeAllocationBlocks, m.NumberOfAllocationBlocks, ErrFreeExceedsTotal)
	}

	name, err := types.ParseVolumeName(data[offVolumeName:])
	if err != nil {
		if errors.Is(err, types.ErrBadLengthByte) {
			return nil, fmt.Errorf("volume name length %d: %w", data[offVolumeName], ErrVolumeNameTooLong)
		}
		return nil, fmt.Errorf("failed to parse volume name: %w", err)
	}
	m.VolumeName = name

	return m, nil
}

// Serialize writes the block into the first 64 bytes of buf, big-endian,
// in the documented field order.
func Serialize(m *types.MasterDirectoryBlock, buf []byte) error {
	if len(buf) < types.MdbSize {
		return fmt.Errorf("got %d bytes, need %d: %w", len(buf), types.MdbSize, ErrBufferTooSmall)
	}

	binary.BigEndian.PutUint16(buf[offSignature:], m.Signature)
	binary.BigEndian.PutUint32(buf[offCreationDate:], uint32(m.CreationDate))
	binary.BigEndian.PutUint32(buf[offLastBackupDate:], uint32(m.LastBackupDate))
	binary.BigEndian.PutUint16(buf[offAttributes:], m.Attributes)
	binary.BigEndian.PutUint16(buf[offNumberOfFiles:], m.NumberOfFiles)
	binary.BigEndian.PutUint16(buf[offFileDirectoryStart:], m.FileDirectoryStart)
	binary.BigEndian.PutUint16(buf[offFileDirectoryLength:], m.FileDirectoryLength)
	binary.BigEndian.PutUint16(buf[offNumAllocationBlocks:], m.NumberOfAllocationBlocks)
	binary.BigEndian.PutUint32(buf[offAllocationBlockSize:], m.AllocationBlockSize)
	binary.BigEndian.PutUint32(buf[offClumpSize:], m.ClumpSize)
	binary.BigEndian.PutUint16(buf[offAllocationBlockStart:], m.AllocationBlockStart)
	binary.BigEndian.PutUint32(buf[offNextFileNumber:], m.NextFileNumber)
	binary.BigEndian.PutUint16(buf[offFreeAllocationBlocks:], m.FreeAllocationBlocks)
	copy(buf[offVolumeName:types.MdbSize], m.VolumeName[:])

	return nil
}

// masterDirectoryBlockReader implements the MasterDirectoryBlockReader interface
type masterDirectoryBlockReader struct {
	block *types.MasterDirectoryBlock
}

// NewMasterDirectoryBlockReader parses data and returns an accessor over
// the validated block.
func NewMasterDirectoryBlockReader(data []byte) (interfaces.MasterDirectoryBlockReader, error) {
	block, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return &masterDirectoryBlockReader{block: block}, nil
}

func (r *masterDirectoryBlockReader) Signature() uint16 { return r.block.Signature }

func (r *masterDirectoryBlockReader) CreationDate() types.MacTime { return r.block.CreationDate }

func (r *masterDirectoryBlockReader) LastBackupDate() types.MacTime { return r.block.LastBackupDate }

func (r *masterDirectoryBlockReader) Attributes() uint16 { return r.block.Attributes }

func (r *masterDirectoryBlockReader) NumberOfFiles() uint16 { return r.block.NumberOfFiles }

func (r *masterDirectoryBlockReader) FileDirectoryStart() uint16 { return r.block.FileDirectoryStart }

func (r *masterDirectoryBlockReader) FileDirectoryLength() uint16 {
	return r.block.FileDirectoryLength
}

func (r *masterDirectoryBlockReader) NumberOfAllocationBlocks() uint16 {
	return r.block.NumberOfAllocationBlocks
}

func (r *masterDirectoryBlockReader) AllocationBlockSize() uint32 {
	return r.block.AllocationBlockSize
}

func (r *masterDirectoryBlockReader) ClumpSize() uint32 { return r.block.ClumpSize }

func (r *masterDirectoryBlockReader) AllocationBlockStart() uint16 {
	return r.block.AllocationBlockStart
}

func (r *masterDirectoryBlockReader) NextFileNumber() uint32 { return r.block.NextFileNumber }

func (r *masterDirectoryBlockReader) FreeAllocationBlocks() uint16 {
	return r.block.FreeAllocationBlocks
}

func (r *masterDirectoryBlockReader) VolumeName() string { return r.block.VolumeName.String() }
