package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-mfs/internal/device"
	"github.com/deploymenttheory/go-mfs/internal/writer"
)

var (
	createVolumeName string
	createBlockSize  uint32
	createType       string
	createCreator    string
)

var createCmd = &cobra.Command{
	Use:   "create <output-image> <file ...>",
	Short: "Build a new MFS image from host files",
	Long: `Build a complete MFS disk image containing the given host files.
Each file becomes the data fork of one entry; a sibling input named
<file>.rsrc supplies that entry's resource fork instead of becoming a
file of its own.

Examples:
  go-mfs create boot.img ReadMe.txt --volume-name "My Disk"
  go-mfs create app.img MyApp MyApp.rsrc --type APPL --creator DEMO`,

	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreate(args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVar(&createVolumeName, "volume-name", "", "volume name (default from config)")
	createCmd.Flags().Uint32Var(&createBlockSize, "block-size", 0, "allocation block size (default from config)")
	createCmd.Flags().StringVar(&createType, "type", "TEXT", "four-character file type code")
	createCmd.Flags().StringVar(&createCreator, "creator", "ttxt", "four-character creator code")
}

func runCreate(output string, inputs []string) error {
	config, err := device.LoadImageConfig()
	if err != nil {
		return err
	}
	volumeName := createVolumeName
	if volumeName == "" {
		volumeName = config.VolumeName
	}
	blockSize := createBlockSize
	if blockSize == 0 {
		blockSize = config.AllocationBlockSize
	}

	// Pair *.rsrc inputs with their base file before building.
	resources := make(map[string][]byte)
	var order []string
	data := make(map[string][]byte)
	for _, in := range inputs {
		content, err := os.ReadFile(in)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", in, err)
		}
		name := filepath.Base(in)
		if strings.HasSuffix(name, ".rsrc") {
			resources[strings.TrimSuffix(name, ".rsrc")] = content
			continue
		}
		order = append(order, name)
		data[name] = content
	}

	b := writer.NewBuilder()
	for _, name := range order {
		err := b.AddFile(writer.FileDefinition{
			Name:     name,
			Type:     createType,
			Creator:  createCreator,
			Data:     data[name],
			Resource: resources[name],
		})
		if err != nil {
			return err
		}
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	err = b.Write(out, volumeName, blockSize)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d files, volume %q\n", output, b.FileCount(), volumeName)
	return nil
}
