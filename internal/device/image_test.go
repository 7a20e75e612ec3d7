package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.img")
	content := []byte("0123456789")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	dev, err := OpenImage(path)
	require.NoError(t, err)
	defer dev.Close()

	assert.Equal(t, int64(len(content)), dev.Size())
	assert.Equal(t, path, dev.Path())

	buf := make([]byte, 4)
	n, err := dev.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("3456"), buf)
}

func TestOpenImageMissingFile(t *testing.T) {
	_, err := OpenImage(filepath.Join(t.TempDir(), "nope.img"))
	assert.Error(t, err)
}

func TestLoadImageConfigDefaults(t *testing.T) {
	config, err := LoadImageConfig()
	require.NoError(t, err)

	assert.True(t, config.DetectPartitionMap)
	assert.Equal(t, uint32(1024), config.AllocationBlockSize)
	assert.Equal(t, "Untitled", config.VolumeName)
}
