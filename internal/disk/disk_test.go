package disk

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-mfs/internal/types"
	"github.com/deploymenttheory/go-mfs/internal/writer"
)

func buildVolumeImage(t *testing.T, volumeName string, files ...writer.FileDefinition) []byte {
	t.Helper()
	clock := func() time.Time { return time.Date(1987, 10, 1, 0, 0, 0, 0, time.UTC) }
	b := writer.NewBuilder(writer.WithClock(clock))
	for _, f := range files {
		require.NoError(t, b.AddFile(f))
	}
	var buf bytes.Buffer
	require.NoError(t, b.Write(&buf, volumeName, 1024))
	return buf.Bytes()
}

// apmImage wraps payloads into a partitioned disk: driver descriptor
// block, one map entry per partition, then the partition payloads.
func apmImage(t *testing.T, parts []struct {
	partType string
	payload  []byte
}) []byte {
	t.Helper()

	// Payloads start after block 0 and the map entries.
	mapBlocks := len(parts)
	start := 1 + mapBlocks

	var img bytes.Buffer
	ddm := make([]byte, types.SectorSize)
	copy(ddm, "ER")
	img.Write(ddm)

	offset := start
	for _, p := range parts {
		require.Zero(t, len(p.payload)%types.SectorSize, "payload must be sector aligned")
		entry := make([]byte, types.SectorSize)
		copy(entry, "PM")
		binary.BigEndian.PutUint32(entry[4:8], uint32(len(parts)))
		binary.BigEndian.PutUint32(entry[8:12], uint32(offset))
		binary.BigEndian.PutUint32(entry[12:16], uint32(len(p.payload)/types.SectorSize))
		copy(entry[48:80], p.partType)
		img.Write(entry)
		offset += len(p.payload) / types.SectorSize
	}
	for _, p := range parts {
		img.Write(p.payload)
	}
	return img.Bytes()
}

func TestOpenBareVolume(t *testing.T) {
	img := buildVolumeImage(t, "Bare", writer.FileDefinition{
		Name: "Read Me", Type: "TEXT", Creator: "ttxt", Data: []byte("hello"),
	})

	d, err := Open(bytes.NewReader(img), int64(len(img)))
	require.NoError(t, err)
	require.Len(t, d.Volumes(), 1)
	assert.Equal(t, "Bare", d.Volumes()[0].Name())
}

func TestOpenRejectsNilReader(t *testing.T) {
	_, err := Open(nil, 0)
	assert.ErrorIs(t, err, ErrNilReader)
}

func TestOpenPartitionedDisk(t *testing.T) {
	vol1 := buildVolumeImage(t, "One", writer.FileDefinition{
		Name: "A", Type: "TEXT", Creator: "ttxt", Data: []byte("first volume"),
	})
	vol2 := buildVolumeImage(t, "Two", writer.FileDefinition{
		Name: "B", Type: "TEXT", Creator: "ttxt", Data: []byte("second volume"),
	})
	img := apmImage(t, []struct {
		partType string
		payload  []byte
	}{
		{"Apple_Driver43", make([]byte, 1024)},
		{MfsPartitionType, vol1},
		{"Apple_Free", make([]byte, 512)},
		{MfsPartitionType, vol2},
	})

	d, err := Open(bytes.NewReader(img), int64(len(img)))
	require.NoError(t, err)
	require.Len(t, d.Volumes(), 2)
	assert.Equal(t, "One", d.Volumes()[0].Name())
	assert.Equal(t, "Two", d.Volumes()[1].Name())

	// Fork reads resolve against each partition's own window.
	e, err := d.Volumes()[1].FindEntry("B")
	require.NoError(t, err)
	data, err := d.Volumes()[1].ReadFork(e, types.DataFork)
	require.NoError(t, err)
	assert.Equal(t, []byte("second volume"), data)
}

func TestMapWithoutMfsPartitionsFallsBackToBareVolume(t *testing.T) {
	// A valid MFS volume whose boot area happens to carry a partition
	// map signature describing only non-MFS partitions. The fallback
	// must still open the whole stream as one volume.
	img := buildVolumeImage(t, "Fallback", writer.FileDefinition{
		Name: "A", Type: "TEXT", Creator: "ttxt", Data: []byte("x"),
	})
	copy(img[0:2], "ER")
	copy(img[512:514], "PM")
	binary.BigEndian.PutUint32(img[512+4:], 1)
	binary.BigEndian.PutUint32(img[512+8:], 0)
	binary.BigEndian.PutUint32(img[512+12:], 1)
	copy(img[512+48:], "Apple_Driver43")

	d, err := Open(bytes.NewReader(img), int64(len(img)))
	require.NoError(t, err)
	require.Len(t, d.Volumes(), 1)
	assert.Equal(t, "Fallback", d.Volumes()[0].Name())
}

func TestCorruptPartitionMap(t *testing.T) {
	img := make([]byte, 4*types.SectorSize)
	copy(img, "ER")
	copy(img[512:], "XX")

	_, err := Open(bytes.NewReader(img), int64(len(img)))
	assert.ErrorIs(t, err, ErrCorruptPartitionMap)
}

func TestLocatorReportsEntries(t *testing.T) {
	vol := buildVolumeImage(t, "V", writer.FileDefinition{
		Name: "A", Type: "TEXT", Creator: "ttxt", Data: []byte("x"),
	})
	img := apmImage(t, []struct {
		partType string
		payload  []byte
	}{
		{MfsPartitionType, vol},
	})

	locator := NewPartitionMapLocator()
	r := bytes.NewReader(img)
	assert.True(t, locator.HasPartitionMap(r))

	parts, err := locator.Partitions(r)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, MfsPartitionType, parts[0].Type)
	assert.Equal(t, uint32(2), parts[0].StartBlock)
	assert.Equal(t, uint32(len(vol)/types.SectorSize), parts[0].BlockCount)

	assert.False(t, locator.HasPartitionMap(bytes.NewReader(vol)))
}
