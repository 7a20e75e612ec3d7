package cmd

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-mfs/internal/device"
	"github.com/deploymenttheory/go-mfs/internal/disk"
	"github.com/deploymenttheory/go-mfs/internal/logger"
	"github.com/deploymenttheory/go-mfs/internal/volume"
)

// openDisk opens an image file and all MFS volumes inside it, honoring
// the configured partition map detection.
func openDisk(path string) (*device.ImageDevice, *disk.Disk, error) {
	config, err := device.LoadImageConfig()
	if err != nil {
		return nil, nil, err
	}

	dev, err := device.OpenImage(path)
	if err != nil {
		return nil, nil, err
	}

	var d *disk.Disk
	if config.DetectPartitionMap {
		d, err = disk.Open(dev, dev.Size())
	} else {
		d, err = disk.OpenWith(dev, dev.Size(), nil)
	}
	if err != nil {
		dev.Close()
		return nil, nil, err
	}

	logger.Logger.Debugw("opened image",
		"path", path,
		"size", dev.Size(),
		"volumes", len(d.Volumes()))
	return dev, d, nil
}

// selectVolume picks a volume by 1-based index, defaulting to the first.
func selectVolume(d *disk.Disk, index int) (*volume.Volume, error) {
	vols := d.Volumes()
	if index == 0 {
		index = 1
	}
	if index < 1 || index > len(vols) {
		return nil, fmt.Errorf("volume %d requested, image has %d", index, len(vols))
	}
	return vols[index-1], nil
}

// sanitizeHostName makes a Macintosh file name safe for the host
// filesystem. Colons were the only separator MFS forbade; slashes and
// NULs are the host's problem.
func sanitizeHostName(name string) string {
	r := strings.NewReplacer("/", "_", "\x00", "_", ":", "_")
	s := r.Replace(name)
	if s == "" || s == "." || s == ".." {
		s = "_" + s
	}
	return s
}
