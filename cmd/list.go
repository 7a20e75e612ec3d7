package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-mfs/internal/types"
)

var listVolumeIndex int

var listCmd = &cobra.Command{
	Use:   "list <image>",
	Short: "List the files on a volume",
	Long: `List the file directory of an MFS volume in on-disk order.

Examples:
  go-mfs list System.img
  go-mfs list HD20.img --volume 2`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(args[0])
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listVolumeIndex, "volume", 0, "1-based volume index")
}

func runList(path string) error {
	dev, d, err := openDisk(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	v, err := selectVolume(d, listVolumeIndex)
	if err != nil {
		return err
	}

	fmt.Printf("Volume %q\n", v.Name())
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tCREATOR\tDATA\tRSRC\tMODIFIED\tFLAGS")
	err = v.ForEachEntry(func(e *types.FileDirectoryEntry) (bool, error) {
		flags := ""
		if e.Locked() {
			flags = "locked"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.Name, e.FileType, e.Creator,
			e.DataFork.LogicalSize, e.ResourceFork.LogicalSize,
			e.ModificationDate.Time().Format("2006-01-02 15:04"), flags)
		return true, nil
	})
	if err != nil {
		return err
	}
	return w.Flush()
}
