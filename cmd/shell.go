package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-mfs/internal/disk"
	"github.com/deploymenttheory/go-mfs/internal/types"
	"github.com/deploymenttheory/go-mfs/internal/volume"
)

var shellCmd = &cobra.Command{
	Use:   "shell <image>",
	Short: "Explore an image interactively",
	Long: `Open an interactive shell over an MFS image.

Commands inside the shell:
  vols                 list volumes
  vol <n>              switch to volume n
  info                 show the current volume's header summary
  ls                   list files
  cat <name>           print a file's data fork
  extract <name>       write a file's forks to the current directory
  quit                 leave the shell`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(args[0])
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

type shellState struct {
	disk    *disk.Disk
	current int
}

func (s *shellState) volume() *volume.Volume {
	return s.disk.Volumes()[s.current]
}

func runShell(path string) error {
	dev, d, err := openDisk(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	state := &shellState{disk: d}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      prompt(state),
		HistoryFile: os.TempDir() + "/.go-mfs_history",
	})
	if err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		if done := shellProcess(state, strings.TrimSpace(line)); done {
			return nil
		}
		rl.SetPrompt(prompt(state))
	}
}

func prompt(s *shellState) string {
	return fmt.Sprintf("%s> ", s.volume().Name())
}

func shellProcess(s *shellState, line string) bool {
	if line == "" {
		return false
	}
	fields := strings.Fields(line)
	verb, args := fields[0], fields[1:]

	var err error
	switch verb {
	case "quit", "exit", "q":
		return true
	case "vols":
		for i, v := range s.disk.Volumes() {
			fmt.Printf("%d  %s\n", i+1, v.Name())
		}
	case "vol":
		err = shellVol(s, args)
	case "info":
		shellInfo(s.volume())
	case "ls":
		err = shellLs(s.volume())
	case "cat":
		err = shellCat(s.volume(), args)
	case "extract":
		err = shellExtract(s.volume(), args)
	default:
		fmt.Fprintf(os.Stderr, "Unrecognized command: %s\n", verb)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return false
}

func shellVol(s *shellState, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("vol expects a volume number")
	}
	var n int
	if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
		return fmt.Errorf("vol expects a volume number")
	}
	if n < 1 || n > len(s.disk.Volumes()) {
		return fmt.Errorf("volume %d requested, image has %d", n, len(s.disk.Volumes()))
	}
	s.current = n - 1
	return nil
}

func shellInfo(v *volume.Volume) {
	m := v.MasterDirectoryBlock()
	fmt.Printf("%q: %d files, %d blocks x %d bytes, %d free, created %s\n",
		v.Name(), m.NumberOfFiles, m.NumberOfAllocationBlocks,
		m.AllocationBlockSize, m.FreeAllocationBlocks,
		m.CreationDate.Time().Format("2006-01-02"))
}

func shellLs(v *volume.Volume) error {
	return v.ForEachEntry(func(e *types.FileDirectoryEntry) (bool, error) {
		fmt.Printf("%-32s %s/%s %8d %8d\n",
			e.Name, e.FileType, e.Creator,
			e.DataFork.LogicalSize, e.ResourceFork.LogicalSize)
		return true, nil
	})
}

func shellCat(v *volume.Volume, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cat expects a file name")
	}
	entry, err := v.FindEntry(strings.Join(args, " "))
	if err != nil {
		return err
	}
	_, err = v.CopyFork(entry, types.DataFork, os.Stdout)
	fmt.Println()
	return err
}

func shellExtract(v *volume.Volume, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("extract expects a file name")
	}
	entry, err := v.FindEntry(strings.Join(args, " "))
	if err != nil {
		return err
	}
	return extractEntry(v, entry)
}
