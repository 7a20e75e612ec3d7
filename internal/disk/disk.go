// Package disk opens one or more MFS volumes from a byte stream. A
// stream may be a bare volume image or a partitioned disk carrying an
// Apple Partition Map; partition discovery goes through an injected
// locator capability so this package never reads map internals itself.
package disk

import (
	"errors"
	"fmt"
	"io"

	"github.com/deploymenttheory/go-mfs/internal/interfaces"
	"github.com/deploymenttheory/go-mfs/internal/types"
	"github.com/deploymenttheory/go-mfs/internal/volume"
)

// ErrNilReader reports an absent byte source.
var ErrNilReader = errors.New("disk reader is nil")

// Disk is an ordered collection of opened volumes.
type Disk struct {
	volumes []*volume.Volume
}

// Open opens all MFS volumes in the stream using the default Apple
// Partition Map locator.
func Open(r io.ReaderAt, size int64) (*Disk, error) {
	return OpenWith(r, size, NewPartitionMapLocator())
}

// OpenWith opens all MFS volumes found by the given locator. Without a
// partition map, and also when a map yields no MFS partitions, the
// whole stream is treated as a single bare volume.
func OpenWith(r io.ReaderAt, size int64, locator interfaces.PartitionMapLocator) (*Disk, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	if locator != nil && locator.HasPartitionMap(r) {
		parts, err := locator.Partitions(r)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate partitions: %w", err)
		}

		var volumes []*volume.Volume
		for _, p := range parts {
			if p.Type != MfsPartitionType {
				continue
			}
			start := int64(p.StartBlock) * types.SectorSize
			length := int64(p.BlockCount) * types.SectorSize
			if start+length > size {
				length = size - start
			}
			v, err := volume.Open(io.NewSectionReader(r, start, length), length)
			if err != nil {
				return nil, fmt.Errorf("partition at block %d: %w", p.StartBlock, err)
			}
			volumes = append(volumes, v)
		}
		if len(volumes) > 0 {
			return &Disk{volumes: volumes}, nil
		}
		// A map with no MFS partitions falls through to the bare case.
	}

	v, err := volume.Open(r, size)
	if err != nil {
		return nil, err
	}
	return &Disk{volumes: []*volume.Volume{v}}, nil
}

// Volumes returns the opened volumes in disk order.
func (d *Disk) Volumes() []*volume.Volume {
	return d.volumes
}
