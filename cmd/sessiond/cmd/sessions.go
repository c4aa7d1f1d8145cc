package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/session/boltstore"
	"github.com/dmitrymomot/sessionkit/pkg/session/pgstore"
)

var (
	outputJSON bool
	forceClear bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage stored sessions",
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, b *backend) error) error {
	ctx := cmd.Context()
	b, err := openStore(ctx, app.Store, log)
	if err != nil {
		return err
	}
	defer func() { _ = b.close(context.WithoutCancel(ctx)) }()
	return fn(ctx, b)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List live sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, b *backend) error {
			l, err := b.lister()
			if err != nil {
				return err
			}
			all, err := l.All(ctx)
			if err != nil {
				return err
			}
			return printSessions(cmd.OutOrStdout(), all, outputJSON)
		})
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of live sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, b *backend) error {
			l, err := b.lister()
			if err != nil {
				return err
			}
			n, err := l.Len(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, b *backend) error {
			snap, err := b.store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if snap == nil {
				return fmt.Errorf("%w: %s", session.ErrNotFound, args[0])
			}
			return writeIndented(cmd.OutOrStdout(), snap)
		})
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy <id>...",
	Short: "Destroy sessions by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, b *backend) error {
			for _, id := range args {
				if err := b.store.Destroy(ctx, id); err != nil && !session.IsNotFound(err) {
					return err
				}
			}
			return nil
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !forceClear {
			return fmt.Errorf("refusing to clear the %s store without --force", app.Store)
		}
		return withStore(cmd, func(ctx context.Context, b *backend) error {
			l, err := b.lister()
			if err != nil {
				return err
			}
			return l.Clear(ctx)
		})
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired sessions from stores without native expiry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, b *backend) error {
			var (
				n   int64
				err error
			)
			switch s := b.store.(type) {
			case *pgstore.Store:
				n, err = s.Prune(ctx)
			case *boltstore.Store:
				var c int
				c, err = s.Prune(ctx)
				n = int64(c)
			default:
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s store expires sessions on its own\n", b.name)
				return err
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d sessions\n", n)
			return err
		})
	},
}

func printSessions(w io.Writer, all map[string]*session.Snapshot, asJSON bool) error {
	if asJSON {
		return writeIndented(w, all)
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEXPIRES\tKEYS")
	for _, id := range ids {
		snap := all[id]
		expires := "session"
		if t, ok := snap.ExpiresAt(); ok {
			expires = t.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", id, expires, len(snap.Values))
	}
	return tw.Flush()
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(listCmd, countCmd, getCmd, destroyCmd, clearCmd, pruneCmd)
	listCmd.Flags().BoolVar(&outputJSON, "json", false, "print sessions as JSON")
	clearCmd.Flags().BoolVarP(&forceClear, "force", "f", false, "confirm removing every session")
}
