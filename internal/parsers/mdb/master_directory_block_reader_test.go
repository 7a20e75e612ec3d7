package mdb

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/deploymenttheory/go-mfs/internal/types"
)

// validBlock builds a consistent 64-byte MDB for a small volume.
func validBlock() []byte {
	data := make([]byte, types.MdbSize)
	binary.BigEndian.PutUint16(data[0:], types.MfsSignature)
	binary.BigEndian.PutUint32(data[2:], 0x9C000000)  // creation
	binary.BigEndian.PutUint32(data[6:], 0)           // backup
	binary.BigEndian.PutUint16(data[10:], 0)          // attributes
	binary.BigEndian.PutUint16(data[12:], 3)          // files
	binary.BigEndian.PutUint16(data[14:], 4)          // directory start
	binary.BigEndian.PutUint16(data[16:], 12)         // directory length
	binary.BigEndian.PutUint16(data[18:], 391)        // allocation blocks
	binary.BigEndian.PutUint32(data[20:], 1024)       // block size
	binary.BigEndian.PutUint32(data[24:], 8192)       // clump size
	binary.BigEndian.PutUint16(data[28:], 16)         // allocation start
	binary.BigEndian.PutUint32(data[30:], 4)          // next file number
	binary.BigEndian.PutUint16(data[34:], 100)        // free blocks
	data[36] = 4
	copy(data[37:], "Test")
	return data
}

func TestParseValidBlock(t *testing.T) {
	m, err := Parse(validBlock())
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if m.Signature != types.MfsSignature {
		t.Errorf("Signature = 0x%04X", m.Signature)
	}
	if m.NumberOfFiles != 3 {
		t.Errorf("NumberOfFiles = %d, want 3", m.NumberOfFiles)
	}
	if m.FileDirectoryStart != 4 || m.FileDirectoryLength != 12 {
		t.Errorf("directory = %d+%d, want 4+12", m.FileDirectoryStart, m.FileDirectoryLength)
	}
	if m.NumberOfAllocationBlocks != 391 || m.AllocationBlockSize != 1024 {
		t.Errorf("allocation = %d x %d", m.NumberOfAllocationBlocks, m.AllocationBlockSize)
	}
	if m.VolumeName.String() != "Test" {
		t.Errorf("VolumeName = %q, want %q", m.VolumeName.String(), "Test")
	}
	if got := m.CreationDate; got != types.MacTime(0x9C000000) {
		t.Errorf("CreationDate = %d", got)
	}
}

func TestParseRejections(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{
			name:    "too short",
			mutate:  func(d []byte) []byte { return d[:63] },
			wantErr: ErrWrongSize,
		},
		{
			name:    "too long",
			mutate:  func(d []byte) []byte { return append(d, 0) },
			wantErr: ErrWrongSize,
		},
		{
			name: "generic bad signature",
			mutate: func(d []byte) []byte {
				binary.BigEndian.PutUint16(d[0:], 0x1234)
				return d
			},
			wantErr: ErrNotMfsSignature,
		},
		{
			name: "HFS signature classified distinctly",
			mutate: func(d []byte) []byte {
				binary.BigEndian.PutUint16(d[0:], types.HfsSignature)
				return d
			},
			wantErr: ErrHfsSignature,
		},
		{
			name: "zero allocation block size",
			mutate: func(d []byte) []byte {
				binary.BigEndian.PutUint32(d[20:], 0)
				return d
			},
			wantErr: ErrInvalidAllocationBlockSize,
		},
		{
			name: "allocation block size not sector multiple",
			mutate: func(d []byte) []byte {
				binary.BigEndian.PutUint32(d[20:], 1000)
				return d
			},
			wantErr: ErrInvalidAllocationBlockSize,
		},
		{
			name: "clump size not block multiple",
			mutate: func(d []byte) []byte {
				binary.BigEndian.PutUint32(d[24:], 1500)
				return d
			},
			wantErr: ErrInvalidClumpSize,
		},
		{
			name: "too many allocation blocks",
			mutate: func(d []byte) []byte {
				binary.BigEndian.PutUint16(d[18:], 4095)
				binary.BigEndian.PutUint16(d[34:], 0)
				return d
			},
			wantErr: ErrTooManyAllocationBlocks,
		},
		{
			name: "free exceeds total",
			mutate: func(d []byte) []byte {
				binary.BigEndian.PutUint16(d[34:], 392)
				return d
			},
			wantErr: ErrFreeExceedsTotal,
		},
		{
			name: "volume name too long",
			mutate: func(d []byte) []byte {
				d[36] = 28
				return d
			},
			wantErr: ErrVolumeNameTooLong,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.mutate(validBlock()))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Parse() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestParseAcceptsZeroClumpSize(t *testing.T) {
	data := validBlock()
	binary.BigEndian.PutUint32(data[24:], 0)
	if _, err := Parse(data); err != nil {
		t.Errorf("clump size 0 should be valid: %v", err)
	}
}

func TestHfsDistinctFromGenericBadSignature(t *testing.T) {
	hfs := validBlock()
	binary.BigEndian.PutUint16(hfs[0:], types.HfsSignature)
	_, hfsErr := Parse(hfs)

	bad := validBlock()
	binary.BigEndian.PutUint16(bad[0:], 0xBEEF)
	_, badErr := Parse(bad)

	if errors.Is(hfsErr, ErrNotMfsSignature) {
		t.Error("HFS input should not report the generic signature error")
	}
	if errors.Is(badErr, ErrHfsSignature) {
		t.Error("arbitrary bad signature should not report the HFS error")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	original := validBlock()
	m, err := Parse(original)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	out := make([]byte, types.MdbSize)
	if err := Serialize(m, out); err != nil {
		t.Fatalf("Serialize() failed: %v", err)
	}
	if string(out) != string(original) {
		t.Errorf("Serialize() output differs from original bytes\n got %x\nwant %x", out, original)
	}
}

func TestSerializeBufferTooSmall(t *testing.T) {
	m, err := Parse(validBlock())
	if err != nil {
		t.Fatal(err)
	}
	if err := Serialize(m, make([]byte, 63)); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Serialize(63 bytes) = %v, want ErrBufferTooSmall", err)
	}
}

func TestMasterDirectoryBlockReaderAccessors(t *testing.T) {
	r, err := NewMasterDirectoryBlockReader(validBlock())
	if err != nil {
		t.Fatalf("NewMasterDirectoryBlockReader() failed: %v", err)
	}

	if r.Signature() != types.MfsSignature {
		t.Errorf("Signature() = 0x%04X", r.Signature())
	}
	if r.VolumeName() != "Test" {
		t.Errorf("VolumeName() = %q", r.VolumeName())
	}
	if r.NumberOfAllocationBlocks() != 391 {
		t.Errorf("NumberOfAllocationBlocks() = %d", r.NumberOfAllocationBlocks())
	}
	if r.AllocationBlockSize() != 1024 {
		t.Errorf("AllocationBlockSize() = %d", r.AllocationBlockSize())
	}
	if r.FreeAllocationBlocks() != 100 {
		t.Errorf("FreeAllocationBlocks() = %d", r.FreeAllocationBlocks())
	}
	if r.ClumpSize() != 8192 {
		t.Errorf("ClumpSize() = %d", r.ClumpSize())
	}
	if r.NextFileNumber() != 4 {
		t.Errorf("NextFileNumber() = %d", r.NextFileNumber())
	}
}
