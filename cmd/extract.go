package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-mfs/internal/logger"
	"github.com/deploymenttheory/go-mfs/internal/types"
	"github.com/deploymenttheory/go-mfs/internal/volume"
)

var (
	extractVolumeIndex int
	extractOutDir      string
)

var extractCmd = &cobra.Command{
	Use:   "extract <image> [name ...]",
	Short: "Extract files to the host filesystem",
	Long: `Extract files from an MFS volume. With no names, every file on the
volume is extracted. The data fork is written under the file's name;
a nonempty resource fork is written alongside it with a .rsrc suffix.
Original modification times are preserved when the host allows it.

Examples:
  go-mfs extract System.img
  go-mfs extract System.img "Read Me" --out dump/`,

	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().IntVar(&extractVolumeIndex, "volume", 0, "1-based volume index")
	extractCmd.Flags().StringVar(&extractOutDir, "out", ".", "output directory")
}

func runExtract(path string, names []string) error {
	dev, d, err := openDisk(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	v, err := selectVolume(d, extractVolumeIndex)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(extractOutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if len(names) == 0 {
		return v.ForEachEntry(func(e *types.FileDirectoryEntry) (bool, error) {
			return true, extractEntry(v, e)
		})
	}
	for _, name := range names {
		entry, err := v.FindEntry(name)
		if err != nil {
			return err
		}
		if err := extractEntry(v, entry); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(v *volume.Volume, e *types.FileDirectoryEntry) error {
	base := filepath.Join(extractOutDir, sanitizeHostName(e.Name))

	if err := extractFork(v, e, types.DataFork, base); err != nil {
		return err
	}
	if e.ResourceFork.LogicalSize > 0 {
		if err := extractFork(v, e, types.ResourceFork, base+".rsrc"); err != nil {
			return err
		}
	}
	return nil
}

func extractFork(v *volume.Volume, e *types.FileDirectoryEntry, kind types.ForkKind, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	n, err := v.CopyFork(e, kind, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to extract %s fork of %q: %w", kind, e.Name, err)
	}

	// Best effort only; a host that cannot represent the time does not
	// invalidate the extracted bytes.
	mtime := e.ModificationDate.Time()
	if err := os.Chtimes(dest, mtime, mtime); err != nil {
		logger.Logger.Debugw("could not preserve timestamp", "file", dest, "error", err)
	}

	fmt.Printf("%s (%d bytes)\n", dest, n)
	return nil
}
