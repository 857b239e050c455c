package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sortview/internal/list"
	"github.com/roach88/sortview/internal/mainloop"
	"github.com/roach88/sortview/internal/sortview"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	By     string
	Locale string
	Budget time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Mutate a sequence interactively and watch the projection converge",
		Long: `Drive a live projection from stdin commands.

The projection starts incremental, so large sorts run in budgeted steps on
an internal scheduler. Mutations queue work; 'pump' runs one scheduler tick
and 'drain' runs the scheduler to idle. Each change notification prints as

  ~ (position,-removed,+added) -> projection

Commands:
  add VALUE...        append values to the source
  ins INDEX VALUE     insert a value at INDEX
  rm INDEX [COUNT]    remove COUNT values (default 1) at INDEX
  set INDEX VALUE     replace the value at INDEX
  sorter NAME         switch sorter (numeric|text|text-ci|reverse-numeric|none)
  inc on|off          toggle incremental sorting
  pump [N]            run N scheduler ticks (default 1)
  drain               run the scheduler until idle
  dump                print source, projection, and pending work
  help                show this command list
  quit                exit

Example session:
  sortview watch --by numeric
  > add 9 3 7 1
  > drain
  > rm 0 2
  > quit`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.By, "by", "text", "sort key (numeric|text|text-ci|reverse-numeric)")
	cmd.Flags().StringVar(&opts.Locale, "locale", "", "BCP 47 locale tag for text collation")
	cmd.Flags().DurationVar(&opts.Budget, "budget", time.Millisecond, "time budget per incremental sort step")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	srt, err := buildSorter(opts.By, opts.Locale)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid sort options", err)
	}

	w := cmd.OutOrStdout()

	loop := mainloop.New()
	defer loop.Close()

	viewOpts := []sortview.Option[string]{
		sortview.WithIncremental[string](true),
		sortview.WithScheduler[string](loop),
		sortview.WithStepBudget[string](opts.Budget),
	}
	if opts.Verbose {
		handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		viewOpts = append(viewOpts, sortview.WithLogger[string](slog.New(handler)))
	}

	src := list.NewArray[string]()
	view := sortview.New[string](src, nil, viewOpts...)
	defer view.Close()

	view.Watch(func(sp list.Splice) {
		fmt.Fprintf(w, "~ (%d,-%d,+%d) -> %v\n", sp.Position, sp.Removed, sp.Added, projectionItems(view))
	})
	view.SetSorter(srt)

	fmt.Fprintln(w, "Watching a live projection. Type 'help' for commands, 'quit' to exit.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !watchDispatch(view, src, loop, opts.Locale, w, strings.Fields(line)) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitFailure, "failed to read commands", err)
	}
	return nil
}

// watchDispatch executes one stdin command. It returns false when the
// session should end. Bad input prints a usage line and keeps the session
// alive; an interactive tool should not die on a typo.
func watchDispatch(view *sortview.View[string], src *list.Array[string], loop *mainloop.Loop, locale string, w io.Writer, fields []string) bool {
	switch fields[0] {
	case "quit", "q", "exit":
		return false

	case "help":
		fmt.Fprintln(w, "commands: add VALUE... | ins INDEX VALUE | rm INDEX [COUNT] | set INDEX VALUE")
		fmt.Fprintln(w, "          sorter NAME | inc on|off | pump [N] | drain | dump | quit")

	case "add":
		if len(fields) < 2 {
			fmt.Fprintln(w, "usage: add VALUE...")
			break
		}
		src.Append(fields[1:]...)

	case "ins":
		if len(fields) != 3 {
			fmt.Fprintln(w, "usage: ins INDEX VALUE")
			break
		}
		i, err := parseIndex(fields[1], src.Len()+1)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			break
		}
		src.Insert(i, fields[2])

	case "rm":
		if len(fields) < 2 || len(fields) > 3 {
			fmt.Fprintln(w, "usage: rm INDEX [COUNT]")
			break
		}
		i, err := parseIndex(fields[1], src.Len())
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			break
		}
		n := 1
		if len(fields) == 3 {
			n, err = strconv.Atoi(fields[2])
			if err != nil || n < 1 {
				fmt.Fprintf(w, "error: invalid count %q\n", fields[2])
				break
			}
		}
		if i+n > src.Len() {
			fmt.Fprintf(w, "error: range [%d,%d) out of bounds for %d items\n", i, i+n, src.Len())
			break
		}
		src.Remove(i, n)

	case "set":
		if len(fields) != 3 {
			fmt.Fprintln(w, "usage: set INDEX VALUE")
			break
		}
		i, err := parseIndex(fields[1], src.Len())
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			break
		}
		src.Splice(i, 1, fields[2])

	case "sorter":
		if len(fields) != 2 {
			fmt.Fprintln(w, "usage: sorter NAME")
			break
		}
		if fields[1] == "none" {
			view.SetSorter(nil)
			break
		}
		srt, err := buildSorter(fields[1], locale)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			break
		}
		view.SetSorter(srt)

	case "inc":
		if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
			fmt.Fprintln(w, "usage: inc on|off")
			break
		}
		view.SetIncremental(fields[1] == "on")

	case "pump":
		n := 1
		if len(fields) == 2 {
			parsed, err := strconv.Atoi(fields[1])
			if err != nil || parsed < 1 {
				fmt.Fprintf(w, "error: invalid tick count %q\n", fields[1])
				break
			}
			n = parsed
		}
		for t := 0; t < n; t++ {
			if !loop.Pump() {
				fmt.Fprintln(w, "idle")
				break
			}
		}

	case "drain":
		loop.Drain()

	case "dump":
		fmt.Fprintf(w, "source:     %v\n", src.Items())
		fmt.Fprintf(w, "projection: %v\n", projectionItems(view))
		fmt.Fprintf(w, "pending:    %d\n", view.Pending())

	default:
		fmt.Fprintf(w, "unknown command %q (try 'help')\n", fields[0])
	}
	return true
}

// parseIndex parses a 0-based index and checks it against limit, the first
// out-of-range value.
func parseIndex(s string, limit int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	if i < 0 || i >= limit {
		return 0, fmt.Errorf("index %d out of range [0,%d)", i, limit)
	}
	return i, nil
}
