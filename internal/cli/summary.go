package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/lumipallolabs/disko/internal/config"
	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/reftree"
	"github.com/lumipallolabs/disko/internal/scanner"
)

// ErrNothingScanned is returned when a walk ends without reaching the root
var ErrNothingScanned = errors.New("nothing was scanned")

// runSummary walks root and prints the result. depth 0 prints totals only
// and takes the flat path, which builds no tree.
func runSummary(ctx context.Context, w io.Writer, root string, cfg *config.Config, depth int) error {
	mode := cfg.Mode()
	if depth == 0 {
		start := time.Now()
		totals, err := scanner.Summarize(ctx, root, cfg.ScanOptions())
		if err != nil {
			return err
		}
		printTotals(w, root, totals.Sizes, totals.Entries(), totals.HardLinks, mode, time.Since(start))
		printVolume(w, root)
		return nil
	}

	return printTree(ctx, w, scanner.NewWalker(cfg.ScanOptions()), root, mode, depth)
}

// printTree walks root with s and prints the tree down to depth
func printTree(ctx context.Context, w io.Writer, s scanner.Scanner, root string, mode model.SizeMode, depth int) error {
	start := time.Now()
	tree := reftree.New[model.Entry]()
	if err := s.Walk(ctx, root, tree); err != nil {
		return err
	}
	elapsed := time.Since(start)

	top := tree.Root()
	if top == nil {
		// the root vanished between validation and the walk
		return fmt.Errorf("%s: %w", root, ErrNothingScanned)
	}
	err := reftree.Fprint(w, top, reftree.PrintOptions[model.Entry]{
		MaxDepth: depth,
		Label:    labeler(root, mode),
		Less:     model.Less(mode),
	})
	if err != nil {
		return fmt.Errorf("print tree: %w", err)
	}

	e := top.Data()
	fmt.Fprintln(w)
	printTotals(w, root, e.Sizes, e.Descendants, 0, mode, elapsed)
	printVolume(w, root)
	return nil
}

// labeler renders one tree line: size, then name
func labeler(root string, mode model.SizeMode) func(model.Entry) string {
	return func(e model.Entry) string {
		name := e.Name
		switch {
		case e.Path == root:
			name = root
		case e.IsDir():
			name += "/"
		case e.HardLink:
			name += " (hard link)"
		}
		return fmt.Sprintf("%9s  %s", humanize.IBytes(e.Size(mode)), name)
	}
}

func printTotals(w io.Writer, root string, sizes model.Sizes, entries, links uint64, mode model.SizeMode, elapsed time.Duration) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)
	muted := color.New(color.FgHiBlack)

	bold.Fprint(w, "Total: ")
	cyan.Fprintf(w, "%s", humanize.IBytes(sizes.In(mode)))
	fmt.Fprintf(w, " (%s) in %s entries under %s\n", mode, humanize.Comma(int64(entries)), root)

	other := mode.Toggle()
	muted.Fprintf(w, "       %s %s", humanize.IBytes(sizes.In(other)), other)
	if links > 0 {
		muted.Fprintf(w, ", %s hard links counted once", humanize.Comma(int64(links)))
	}
	muted.Fprintf(w, ", walked in %v\n", elapsed.Round(time.Millisecond))
}

func printVolume(w io.Writer, root string) {
	vol, err := model.GetVolume(root)
	if err != nil || vol.TotalBytes == 0 {
		return
	}
	green := color.New(color.FgGreen)
	fmt.Fprintf(w, "Volume: %s of %s used (%.0f%%), ",
		humanize.IBytes(vol.UsedBytes()), humanize.IBytes(vol.TotalBytes), vol.UsedPercent())
	green.Fprintf(w, "%s free\n", humanize.IBytes(vol.FreeBytes))
}
