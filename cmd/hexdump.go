package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-mfs/internal/types"
)

var (
	hexdumpVolumeIndex int
	hexdumpFork        string
)

var hexdumpCmd = &cobra.Command{
	Use:   "hexdump <image> <name>",
	Short: "Hex dump one fork of a file",
	Long: `Hex dump the data or resource fork of a file.

Examples:
  go-mfs hexdump System.img "Read Me"
  go-mfs hexdump System.img Finder --fork resource`,

	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHexdump(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(hexdumpCmd)
	hexdumpCmd.Flags().IntVar(&hexdumpVolumeIndex, "volume", 0, "1-based volume index")
	hexdumpCmd.Flags().StringVar(&hexdumpFork, "fork", "data", "fork to dump (data, resource)")
}

func forkKind(name string) (types.ForkKind, error) {
	switch name {
	case "data":
		return types.DataFork, nil
	case "resource", "rsrc":
		return types.ResourceFork, nil
	default:
		return 0, fmt.Errorf("unknown fork %q (want data or resource)", name)
	}
}

func runHexdump(path, name string) error {
	kind, err := forkKind(hexdumpFork)
	if err != nil {
		return err
	}

	dev, d, err := openDisk(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	v, err := selectVolume(d, hexdumpVolumeIndex)
	if err != nil {
		return err
	}

	entry, err := v.FindEntry(name)
	if err != nil {
		return err
	}

	dumper := hex.Dumper(os.Stdout)
	defer dumper.Close()
	_, err = v.CopyFork(entry, kind, dumper)
	return err
}
