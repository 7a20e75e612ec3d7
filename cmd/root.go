package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-mfs/internal/logger"
)

var (
	// Global output flags only
	verbose   bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "go-mfs",
	Short: "Macintosh File System (MFS) disk image tool",
	Long: `go-mfs reads and writes Macintosh File System (MFS) disk images,
the flat 400K floppy format of the original 1984 Macintosh.

Works with bare volume images and with disks carrying an Apple
Partition Map. HFS and later filesystems are detected and rejected.

Commands:
  header      Show the master directory block of a volume
  list        List the files on a volume
  map         Dump the allocation block map
  hexdump     Hex dump one fork of a file
  extract     Extract files to the host filesystem
  create      Build a new MFS image from host files
  shell       Explore an image interactively`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.InitLogger(logger.Config{Debug: verbose, Format: logFormat})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "human", "log format (human, json)")
}
