package disk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/deploymenttheory/go-mfs/internal/interfaces"
	"github.com/deploymenttheory/go-mfs/internal/types"
)

// MfsPartitionType is the Apple Partition Map type string marking an
// MFS partition.
const MfsPartitionType = "Apple_MFS"

// Driver descriptor and partition entry signatures.
const (
	ddmSignature = "ER"
	apmSignature = "PM"
)

// ErrCorruptPartitionMap reports a map whose entries lack the expected
// signature or count.
var ErrCorruptPartitionMap = errors.New("corrupt Apple Partition Map")

// apmLocator reads Apple Partition Maps: a driver descriptor block at
// offset 0 followed by one 512-byte entry per partition starting at
// block 1, the first entry carrying the total entry count.
type apmLocator struct{}

// NewPartitionMapLocator returns the default Apple Partition Map
// locator.
func NewPartitionMapLocator() interfaces.PartitionMapLocator {
	return apmLocator{}
}

func (apmLocator) HasPartitionMap(r io.ReaderAt) bool {
	var sig [2]byte
	if n, _ := r.ReadAt(sig[:], 0); n < 2 {
		return false
	}
	return string(sig[:]) == ddmSignature
}

func (apmLocator) Partitions(r io.ReaderAt) ([]interfaces.PartitionEntry, error) {
	first := make([]byte, types.SectorSize)
	if n, err := r.ReadAt(first, types.SectorSize); n < len(first) {
		return nil, fmt.Errorf("failed to read first partition entry: %w", firstErr(err))
	}
	if string(first[0:2]) != apmSignature {
		return nil, fmt.Errorf("first entry signature %q: %w", first[0:2], ErrCorruptPartitionMap)
	}

	count := binary.BigEndian.Uint32(first[4:8])
	entries := make([]interfaces.PartitionEntry, 0, count)
	buf := make([]byte, types.SectorSize)
	for i := uint32(0); i < count; i++ {
		if n, err := r.ReadAt(buf, int64(1+i)*types.SectorSize); n < len(buf) {
			return nil, fmt.Errorf("failed to read partition entry %d: %w", i, firstErr(err))
		}
		if string(buf[0:2]) != apmSignature {
			return nil, fmt.Errorf("entry %d signature %q: %w", i, buf[0:2], ErrCorruptPartitionMap)
		}
		partType, _, _ := strings.Cut(string(buf[48:80]), "\x00")
		entries = append(entries, interfaces.PartitionEntry{
			Type:       partType,
			StartBlock: binary.BigEndian.Uint32(buf[8:12]),
			BlockCount: binary.BigEndian.Uint32(buf[12:16]),
		})
	}
	return entries, nil
}

func firstErr(err error) error {
	if err == nil {
		return io.ErrUnexpectedEOF
	}
	return err
}
