// Package cli wires flags, config and the interactive or summary front ends.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lumipallolabs/disko/internal/config"
	"github.com/lumipallolabs/disko/internal/core"
	"github.com/lumipallolabs/disko/internal/logging"
	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/stats"
	"github.com/lumipallolabs/disko/internal/ui"
)

// Version is injected at build time via -ldflags
var Version = "dev"

type options struct {
	configPath    string
	logFile       string
	summary       bool
	depth         int
	threads       int
	sort          bool
	apparent      bool
	oneFileSystem bool
	exclude       []string
}

// NewRootCommand creates the disko command
func NewRootCommand() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "disko [path]",
		Short: "Interactive disk usage explorer",
		Long: `disko walks a directory tree in parallel and shows where the space went.

Directories are listed largest first and can be browsed while the walk is
still running. Files and directories can be deleted from the list; sizes are
updated all the way up to the root.

When stdout is not a terminal, or with --summary, disko prints a size tree
instead of starting the interactive browser.

Without a path, disko reopens the last explored directory, or the current
one if there is none.`,
		Version:      Version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, &o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", config.DefaultPath(), "config file")
	f.StringVar(&o.logFile, "log-file", "", "append debug logs to this file")
	f.BoolVar(&o.summary, "summary", false, "print a size summary instead of the interactive browser")
	f.IntVarP(&o.depth, "depth", "d", 1, "levels printed by --summary (0 = totals only, -1 = unlimited)")
	f.IntVarP(&o.threads, "threads", "t", 0, "directories read in parallel (default: number of CPUs)")
	f.BoolVar(&o.sort, "sort", false, "read directory entries in name order")
	f.BoolVarP(&o.apparent, "apparent", "a", false, "show apparent sizes instead of disk usage")
	f.BoolVarP(&o.oneFileSystem, "one-file-system", "x", true, "do not cross mount points")
	f.StringSliceVarP(&o.exclude, "exclude", "e", nil, "skip entries whose name matches the glob (repeatable)")

	return cmd
}

func run(cmd *cobra.Command, args []string, o *options) error {
	if o.logFile != "" {
		if err := logging.Enable(o.logFile); err != nil {
			return err
		}
		defer logging.Disable()
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, o, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	m := stats.NewManager(cfg.StatsFile)
	if err := m.Load(); err != nil {
		logging.Debug.Printf("[cli] stats unavailable: %v", err)
	}

	path := defaultRoot(m.LastPath())
	if len(args) > 0 {
		path = args[0]
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := model.NewDirEntry(root); err != nil {
		return fmt.Errorf("cannot explore %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	if o.summary || !isTerminal(out) {
		return runSummary(cmd.Context(), out, root, cfg, o.depth)
	}

	ctrl := core.NewController(root, cfg, core.WithStats(m))
	return ui.Run(cmd.Context(), ctrl)
}

// applyFlags overrides config values with flags given on the command line
func applyFlags(cmd *cobra.Command, o *options, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("threads") {
		cfg.Threads = o.threads
	}
	if f.Changed("sort") {
		cfg.Sort = o.sort
	}
	if f.Changed("apparent") {
		if o.apparent {
			cfg.SizeMode = model.SizeApparent.String()
		} else {
			cfg.SizeMode = model.SizeDisk.String()
		}
	}
	if f.Changed("one-file-system") {
		cfg.OneFileSystem = o.oneFileSystem
	}
	if f.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, o.exclude...)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// defaultRoot picks the last explored root when it is still a directory,
// otherwise the working directory
func defaultRoot(last string) string {
	if last == "" {
		return "."
	}
	if info, err := os.Stat(last); err != nil || !info.IsDir() {
		return "."
	}
	return last
}
