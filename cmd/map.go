package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-mfs/internal/types"
)

var mapVolumeIndex int

var mapCmd = &cobra.Command{
	Use:   "map <image>",
	Short: "Dump the allocation block map",
	Long: `Dump the unpacked 12-bit allocation block map of an MFS volume.
Entry 0 means the block is free, 1 ends a chain, any other value is the
next block of the same fork's chain.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMap(args[0])
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.Flags().IntVar(&mapVolumeIndex, "volume", 0, "1-based volume index")
}

func runMap(path string) error {
	dev, d, err := openDisk(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	v, err := selectVolume(d, mapVolumeIndex)
	if err != nil {
		return err
	}

	entries := v.AllocationBlockMap().Entries()
	for i := types.FirstAllocationBlock; i < len(entries); i++ {
		switch entries[i] {
		case types.BlockFree:
			fmt.Printf("%5d  free\n", i)
		case types.BlockLast:
			fmt.Printf("%5d  end of chain\n", i)
		default:
			fmt.Printf("%5d  -> %d\n", i, entries[i])
		}
	}
	return nil
}
