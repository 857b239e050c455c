package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sortview/internal/list"
	"github.com/roach88/sortview/internal/sortview"
)

// SortOptions holds flags for the sort command.
type SortOptions struct {
	*RootOptions
	By     string
	Locale string
	Input  string
	Trace  bool
}

// sortResult is the JSON payload for a completed sort.
type sortResult struct {
	By     string   `json:"by"`
	Count  int      `json:"count"`
	Values []string `json:"values"`
}

// NewSortCommand creates the sort command.
func NewSortCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SortOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sort [values...]",
		Short: "Project values through a one-shot sorted view",
		Long: `Sort values by building a projection over them and printing the result.

Values come from the command line, from --input (one value per line), or
both. The projection is built eagerly, so the output is the fully sorted
sequence. With --trace, each change notification the projection emits is
written to stderr as it happens.

Examples:
  sortview sort 9 3 7 1 --by numeric
  sortview sort Banana apple Cherry --by text-ci
  sortview sort --input words.txt --locale da
  sortview sort 5 2 8 --by reverse-numeric --trace`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSort(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.By, "by", "text", "sort key (numeric|text|text-ci|reverse-numeric)")
	cmd.Flags().StringVar(&opts.Locale, "locale", "", "BCP 47 locale tag for text collation")
	cmd.Flags().StringVar(&opts.Input, "input", "", "read values from a file, one per line")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print change notifications to stderr")

	return cmd
}

func runSort(opts *SortOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	values := append([]string{}, args...)
	if opts.Input != "" {
		lines, err := readLines(opts.Input)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read input file", err)
		}
		formatter.VerboseLog("read %d value(s) from %s", len(lines), opts.Input)
		values = append(values, lines...)
	}

	srt, err := buildSorter(opts.By, opts.Locale)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid sort options", err)
	}

	viewOpts := []sortview.Option[string]{}
	if opts.Verbose {
		handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		viewOpts = append(viewOpts, sortview.WithLogger[string](slog.New(handler)))
	}

	// Build the view unsorted and attach the sorter after subscribing, so
	// --trace sees the attach notification too.
	src := list.NewArray(values...)
	view := sortview.New[string](src, nil, viewOpts...)
	defer view.Close()

	if opts.Trace {
		errW := cmd.ErrOrStderr()
		view.Watch(func(sp list.Splice) {
			fmt.Fprintf(errW, "~ (%d,-%d,+%d) -> %v\n", sp.Position, sp.Removed, sp.Added, projectionItems(view))
		})
	}

	view.SetSorter(srt)
	sorted := projectionItems(view)

	if opts.Format == "json" {
		return formatter.Success(sortResult{
			By:     opts.By,
			Count:  len(sorted),
			Values: sorted,
		})
	}

	w := cmd.OutOrStdout()
	for _, v := range sorted {
		fmt.Fprintln(w, v)
	}
	return nil
}

// projectionItems snapshots the projection's current order.
func projectionItems(view *sortview.View[string]) []string {
	items := make([]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		item, ok := view.At(i)
		if !ok {
			break
		}
		items = append(items, item)
	}
	return items
}

// readLines reads a file into one value per non-empty line.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}
