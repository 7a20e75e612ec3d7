package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var headerVolumeIndex int

var headerCmd = &cobra.Command{
	Use:   "header <image>",
	Short: "Show the master directory block of a volume",
	Long: `Show the decoded master directory block of an MFS volume.

Examples:
  # Bare volume image
  go-mfs header System.img

  # Second MFS partition of a partitioned disk
  go-mfs header HD20.img --volume 2`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeader(args[0])
	},
}

func init() {
	rootCmd.AddCommand(headerCmd)
	headerCmd.Flags().IntVar(&headerVolumeIndex, "volume", 0, "1-based volume index")
}

func runHeader(path string) error {
	dev, d, err := openDisk(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	v, err := selectVolume(d, headerVolumeIndex)
	if err != nil {
		return err
	}

	m := v.MasterDirectoryBlock()
	fmt.Printf("Volume name:             %s\n", v.Name())
	fmt.Printf("Signature:               0x%04X\n", m.Signature)
	fmt.Printf("Created:                 %s\n", m.CreationDate.Time().Format("2006-01-02 15:04:05"))
	fmt.Printf("Last backup:             %s\n", m.LastBackupDate.Time().Format("2006-01-02 15:04:05"))
	fmt.Printf("Attributes:              0x%04X (hw-locked=%v, sw-locked=%v)\n",
		m.Attributes, m.HardwareLocked(), m.SoftwareLocked())
	fmt.Printf("Files:                   %d\n", m.NumberOfFiles)
	fmt.Printf("Directory:               sectors %d..%d\n",
		m.FileDirectoryStart, m.FileDirectoryStart+m.FileDirectoryLength-1)
	fmt.Printf("Allocation blocks:       %d x %d bytes (%d free)\n",
		m.NumberOfAllocationBlocks, m.AllocationBlockSize, m.FreeAllocationBlocks)
	fmt.Printf("Clump size:              %d\n", m.ClumpSize)
	fmt.Printf("Allocation block start:  sector %d\n", m.AllocationBlockStart)
	fmt.Printf("Next file number:        %d\n", m.NextFileNumber)
	return nil
}
