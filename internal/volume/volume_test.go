package volume

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

func fixedClock() time.Time {
	return time.Date(1986, 3, 17, 9, 30, 0, 0, time.UTC)
}

// buildImage writes a single-volume image with the given files and a
// 1024-byte allocation block.
func buildImage(t *testing.T, files ...writer.FileDefinition) []byte {
	t.Helper()
	b := writer.NewBuilder(writer.WithClock(fixedClock))
	for _, f := range files {
		require.NoError(t, b.AddFile(f))
	}
	var buf bytes.Buffer
	require.NoError(t, b.Write(&buf, "Test", 1024))
	return buf.Bytes()
}

func openImage(t *testing.T, img []byte) *Volume {
	t.Helper()
	v, err := Open(bytes.NewReader(img), int64(len(img)))
	require.NoError(t, err)
	return v
}

func patternBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return data
}

func TestOpenParsesHeaderAndMap(t *testing.T) {
	img := buildImage(t, writer.FileDefinition{
		Name: "Read Me", Type: "TEXT", Creator: "ttxt", Data: patternBytes(100),
	})
	v := openImage(t, img)

	m := v.MasterDirectoryBlock()
	assert.Equal(t, "Test", v.Name())
	assert.Equal(t, uint16(1), m.NumberOfFiles)
	assert.Equal(t, uint16(1), m.NumberOfAllocationBlocks)
	assert.Equal(t, uint32(1024), m.AllocationBlockSize)
	assert.Equal(t, types.NewMacTime(fixedClock()), m.CreationDate)

	// One single-block fork: its chain entry is the end sentinel.
	next, err := v.AllocationBlockMap().Lookup(types.FirstAllocationBlock)
	require.NoError(t, err)
	assert.Equal(t, types.BlockLast, next)
}

func TestOpenRejectsNilReader(t *testing.T) {
	_, err := Open(nil, 0)
	assert.ErrorIs(t, err, ErrNilReader)
}

func TestEntriesInDefinitionOrder(t *testing.T) {
	img := buildImage(t,
		writer.FileDefinition{Name: "First", Type: "TEXT", Creator: "ttxt", Data: patternBytes(10)},
		writer.FileDefinition{Name: "Second", Type: "APPL", Creator: "DEMO", Resource: patternBytes(20)},
	)
	v := openImage(t, img)

	entries, err := v.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "First", entries[0].Name)
	assert.Equal(t, "Second", entries[1].Name)
	assert.Equal(t, uint32(1), entries[0].FileNumber)
	assert.Equal(t, uint32(2), entries[1].FileNumber)
	assert.Equal(t, "APPL", entries[1].FileType.String())
}

func TestFindEntryIsCaseInsensitive(t *testing.T) {
	img := buildImage(t, writer.FileDefinition{
		Name: "Read Me", Type: "TEXT", Creator: "ttxt", Data: patternBytes(10),
	})
	v := openImage(t, img)

	e, err := v.FindEntry("READ me")
	require.NoError(t, err)
	assert.Equal(t, "Read Me", e.Name)

	_, err = v.FindEntry("Missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestReadForkReturnsExactBytes(t *testing.T) {
	data := patternBytes(1500)
	rsrc := patternBytes(3000)
	img := buildImage(t, writer.FileDefinition{
		Name: "Both", Type: "TEXT", Creator: "ttxt", Data: data, Resource: rsrc,
	})
	v := openImage(t, img)

	e, err := v.FindEntry("Both")
	require.NoError(t, err)

	got, err := v.ReadFork(e, types.DataFork)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	got, err = v.ReadFork(e, types.ResourceFork)
	require.NoError(t, err)
	assert.Equal(t, rsrc, got)
}

func TestReadForkIsIdempotent(t *testing.T) {
	img := buildImage(t, writer.FileDefinition{
		Name: "Twice", Type: "TEXT", Creator: "ttxt", Data: patternBytes(2500),
	})
	v := openImage(t, img)

	e, err := v.FindEntry("Twice")
	require.NoError(t, err)

	first, err := v.ReadFork(e, types.DataFork)
	require.NoError(t, err)
	second, err := v.ReadFork(e, types.DataFork)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCopyForkEmptyForkShortCircuits(t *testing.T) {
	img := buildImage(t, writer.FileDefinition{
		Name: "DataOnly", Type: "TEXT", Creator: "ttxt", Data: patternBytes(10),
	})
	v := openImage(t, img)

	e, err := v.FindEntry("DataOnly")
	require.NoError(t, err)

	var sink bytes.Buffer
	n, err := v.CopyFork(e, types.ResourceFork, &sink)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, sink.Len())
}

func TestCopyForkRejectsInvalidKind(t *testing.T) {
	img := buildImage(t, writer.FileDefinition{
		Name: "F", Type: "TEXT", Creator: "ttxt", Data: patternBytes(10),
	})
	v := openImage(t, img)

	e, err := v.FindEntry("F")
	require.NoError(t, err)

	_, err = v.CopyFork(e, types.ForkKind(9), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrInvalidForkKind)
}

// Offsets used when corrupting writer output: no map spill with these
// sizes, so the directory is sector 3 and the packed map starts at 1088.
const (
	testAbmOffset   = types.MdbOffset + types.MdbSize
	testEntryOffset = 3 * types.SectorSize
)

func TestCyclicChainFailsFast(t *testing.T) {
	img := buildImage(t, writer.FileDefinition{
		Name: "Loop", Type: "TEXT", Creator: "ttxt", Data: patternBytes(1536),
	})

	// Rewrite block 2's map entry to point at itself and raise the
	// fork's logical size so the read cannot end before revisiting.
	img[testAbmOffset] = 0x00
	img[testAbmOffset+1] = (img[testAbmOffset+1] & 0x0F) | 0x20
	binary.BigEndian.PutUint32(img[testEntryOffset+24:], 2048)

	v := openImage(t, img)
	e, err := v.FindEntry("Loop")
	require.NoError(t, err)

	_, err = v.ReadFork(e, types.DataFork)
	assert.ErrorIs(t, err, ErrCyclicChain)
}

func TestChainBlockOutOfBounds(t *testing.T) {
	img := buildImage(t, writer.FileDefinition{
		Name: "Wild", Type: "TEXT", Creator: "ttxt", Data: patternBytes(100),
	})

	// Point the entry's data fork at a block far past the image end.
	binary.BigEndian.PutUint16(img[testEntryOffset+22:], 1000)

	v := openImage(t, img)
	e, err := v.FindEntry("Wild")
	require.NoError(t, err)

	_, err = v.ReadFork(e, types.DataFork)
	assert.ErrorIs(t, err, ErrAllocationBlockOutOfBounds)
}

func TestTruncatedStreamSurfacesTruncatedRead(t *testing.T) {
	img := buildImage(t, writer.FileDefinition{
		Name: "Cut", Type: "TEXT", Creator: "ttxt", Data: patternBytes(900),
	})

	// Drop the tail of the allocation area but lie about the size so
	// the bounds check still passes.
	cut := img[:len(img)-512]
	v, err := Open(bytes.NewReader(cut), int64(len(img)))
	require.NoError(t, err)

	e, err := v.FindEntry("Cut")
	require.NoError(t, err)

	_, err = v.ReadFork(e, types.DataFork)
	assert.ErrorIs(t, err, ErrTruncatedRead)
}

func TestOpenRejectsHfsImage(t *testing.T) {
	img := buildImage(t, writer.FileDefinition{
		Name: "F", Type: "TEXT", Creator: "ttxt", Data: patternBytes(10),
	})
	binary.BigEndian.PutUint16(img[types.MdbOffset:], types.HfsSignature)

	_, err := Open(bytes.NewReader(img), int64(len(img)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HFS")
}
