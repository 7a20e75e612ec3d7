// Package device provides file-backed access to MFS disk images and the
// viper-driven configuration that governs how the tool opens and
// creates them.
package device

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ImageDevice is a read-only handle on a disk image file.
type ImageDevice struct {
	file *os.File
	size int64
}

// ImageConfig holds configuration for image handling
type ImageConfig struct {
	DetectPartitionMap  bool   `mapstructure:"detect_partition_map"`
	AllocationBlockSize uint32 `mapstructure:"allocation_block_size"`
	VolumeName          string `mapstructure:"volume_name"`
	TestDataPath        string `mapstructure:"test_data_path"`
}

// LoadImageConfig loads image configuration using Viper
func LoadImageConfig() (*ImageConfig, error) {
	viper.SetConfigName("mfs-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.mfs")
	viper.AddConfigPath("/etc/mfs")

	// Set defaults
	viper.SetDefault("detect_partition_map", true)
	viper.SetDefault("allocation_block_size", 1024) // 400K floppy geometry
	viper.SetDefault("volume_name", "Untitled")
	viper.SetDefault("test_data_path", "./tests")

	// Allow environment variables
	viper.SetEnvPrefix("MFS")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config ImageConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// OpenImage opens a disk image file for reading.
func OpenImage(path string) (*ImageDevice, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	return &ImageDevice{file: file, size: stat.Size()}, nil
}

// ReadAt implements io.ReaderAt over the image file.
func (d *ImageDevice) ReadAt(p []byte, off int64) (int, error) {
	return d.file.ReadAt(p, off)
}

// Size returns the image size in bytes.
func (d *ImageDevice) Size() int64 {
	return d.size
}

// Path returns the underlying file path.
func (d *ImageDevice) Path() string {
	return d.file.Name()
}

// Close releases the underlying file.
func (d *ImageDevice) Close() error {
	return d.file.Close()
}
