package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sortview/internal/catalog"
	"github.com/roach88/sortview/internal/list"
	"github.com/roach88/sortview/internal/sorter"
	"github.com/roach88/sortview/internal/sortview"
)

// CatalogOptions holds flags shared by the catalog subcommands.
type CatalogOptions struct {
	*RootOptions
	Database string
}

// entryPayload is the JSON shape for a catalog entry.
type entryPayload struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Rank      int64  `json:"rank"`
	CreatedAt int64  `json:"created_at"`
}

func payloadFor(e catalog.Entry) entryPayload {
	return entryPayload{ID: e.ID, Label: e.Label, Rank: e.Rank, CreatedAt: e.CreatedAt}
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage a persistent catalog of labeled, ranked entries",
		Long: `Manage a SQLite-backed catalog of labeled, ranked entries.

Entries keep their insertion order via UUIDv7 keys; 'ls' projects them
through a sorted view instead of an ORDER BY, so the listing goes through
the same sorting pipeline the live projections use.

Examples:
  sortview catalog init --db ./catalog.db
  sortview catalog add --db ./catalog.db "parser rewrite" --rank 3
  sortview catalog ls --db ./catalog.db --by rank
  sortview catalog rm --db ./catalog.db 01912d68-...-7cab
  sortview catalog clear --db ./catalog.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the catalog database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newCatalogInitCommand(opts))
	cmd.AddCommand(newCatalogAddCommand(opts))
	cmd.AddCommand(newCatalogRemoveCommand(opts))
	cmd.AddCommand(newCatalogListCommand(opts))
	cmd.AddCommand(newCatalogClearCommand(opts))

	return cmd
}

func newCatalogInitCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "init",
		Short:         "Create the catalog database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open catalog", err)
			}
			defer cat.Close()

			formatter := newFormatter(opts.RootOptions, cmd)
			if opts.Format == "json" {
				return formatter.Success(map[string]string{"path": opts.Database})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog initialized: %s\n", opts.Database)
			return nil
		},
	}
}

func newCatalogAddCommand(opts *CatalogOptions) *cobra.Command {
	var rank int64

	cmd := &cobra.Command{
		Use:           "add <label>",
		Short:         "Add an entry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open catalog", err)
			}
			defer cat.Close()

			entry, err := cat.Insert(cmdContext(cmd), args[0], rank)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to add entry", err)
			}

			formatter := newFormatter(opts.RootOptions, cmd)
			if opts.Format == "json" {
				return formatter.Success(payloadFor(entry))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s rank=%d %s\n", entry.ID, entry.Rank, entry.Label)
			return nil
		},
	}

	cmd.Flags().Int64Var(&rank, "rank", 0, "entry rank")
	return cmd
}

func newCatalogRemoveCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <id>",
		Short:         "Remove an entry by id",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open catalog", err)
			}
			defer cat.Close()

			removed, err := cat.Remove(cmdContext(cmd), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "failed to remove entry", err)
			}
			if !removed {
				return NewExitError(ExitFailure, fmt.Sprintf("no such entry: %s", args[0]))
			}

			formatter := newFormatter(opts.RootOptions, cmd)
			if opts.Format == "json" {
				return formatter.Success(map[string]string{"removed": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newCatalogListCommand(opts *CatalogOptions) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:           "ls",
		Short:         "List entries through a sorted projection",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			srt, err := entrySorter(by)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid sort options", err)
			}

			cat, err := catalog.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open catalog", err)
			}
			defer cat.Close()

			entries, err := cat.List(cmdContext(cmd))
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list entries", err)
			}

			src := list.NewArray(entries...)
			view := sortview.New[catalog.Entry](src, srt)
			defer view.Close()

			projected := make([]catalog.Entry, 0, view.Len())
			for i := 0; i < view.Len(); i++ {
				entry, ok := view.At(i)
				if !ok {
					break
				}
				projected = append(projected, entry)
			}

			formatter := newFormatter(opts.RootOptions, cmd)
			if opts.Format == "json" {
				payload := make([]entryPayload, len(projected))
				for i, e := range projected {
					payload[i] = payloadFor(e)
				}
				return formatter.Success(payload)
			}

			w := cmd.OutOrStdout()
			for _, e := range projected {
				fmt.Fprintf(w, "%-36s  %6d  %s\n", e.ID, e.Rank, e.Label)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "rank", "listing order (rank|label|insertion)")
	return cmd
}

func newCatalogClearCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Remove all entries",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open catalog", err)
			}
			defer cat.Close()

			ctx := cmdContext(cmd)
			count, err := cat.Count(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to count entries", err)
			}
			if err := cat.Clear(ctx); err != nil {
				return WrapExitError(ExitFailure, "failed to clear catalog", err)
			}

			formatter := newFormatter(opts.RootOptions, cmd)
			if opts.Format == "json" {
				return formatter.Success(map[string]int{"removed": count})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", count)
			return nil
		},
	}
}

// entrySorter maps the ls --by value to a sorter over catalog entries.
// Rank ties break on label so the listing is total. Insertion order needs
// no sorter at all; the projection passes the source through.
func entrySorter(by string) (sorter.Interface[catalog.Entry], error) {
	rankKey := sorter.NewByKey(func(e catalog.Entry) int64 { return e.Rank })
	labelKey := sorter.NewByKey(func(e catalog.Entry) string { return e.Label })

	switch by {
	case "rank":
		return sorter.NewMulti[catalog.Entry](rankKey, labelKey), nil
	case "label":
		return labelKey, nil
	case "insertion":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown listing order %q: must be one of [rank label insertion]", by)
}

// newFormatter builds an OutputFormatter bound to the command's writers.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// cmdContext returns the command's context, falling back to Background for
// direct construction in tests.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
