package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moodtrail/moodtrail/internal/domain"
	"github.com/moodtrail/moodtrail/internal/taxonomy"
)

// newTaxonomyCmd builds the tags or actions command group.
func newTaxonomyCmd(app *App, kind string) *cobra.Command {
	singular := kind[:len(kind)-1]
	pick := func(s *Session) *taxonomy.Reconciler {
		if kind == "tags" {
			return s.Tags
		}
		return s.Actions
	}

	var retries int
	cmd := &cobra.Command{
		Use:   kind,
		Short: fmt.Sprintf("Manage your %s", kind),
		Long: fmt.Sprintf(`List, add, rename and remove %s.

Changes are applied locally first and then sent to the server. A change the
server rejects is retried (see --retries) and then rolled back.`, kind),
	}
	cmd.PersistentFlags().IntVar(&retries, "retries", 1, "Times to retry a rejected change before rolling it back")

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   fmt.Sprintf("List %s", kind),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context, s *Session) error {
				s.loadTaxonomies(ctx)
				printItems(cmd.OutOrStdout(), pick(s).Items(), kind == "actions")
				return nil
			})
		},
	}

	var category string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: fmt.Sprintf("Add a %s", singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, s *Session) error {
				r := pick(s)
				s.loadTaxonomies(ctx)
				if existing, ok := r.Find(args[0]); ok && !existing.Temporary() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %q already exists\n", singular, existing.Name)
					return nil
				}
				id := r.AddItem(domain.Item{Name: args[0], Category: category})
				if err := settle(ctx, cmd.ErrOrStderr(), r, id, retries); err != nil {
					return err
				}
				item, _ := r.Find(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q (%s)\n", singular, item.Name, item.ID)
				return nil
			})
		},
	}
	if kind == "actions" {
		add.Flags().StringVar(&category, "category", "", "Category label")
	}

	rename := &cobra.Command{
		Use:     "rename <old> <new>",
		Aliases: []string{"mv"},
		Short:   fmt.Sprintf("Rename a %s", singular),
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, s *Session) error {
				r := pick(s)
				s.loadTaxonomies(ctx)
				item, ok := r.Find(args[0])
				if !ok {
					return fmt.Errorf("%s %q not found", singular, args[0])
				}
				id := r.Edit(item.ID, args[1], item.Name)
				if id == "" {
					return fmt.Errorf("new name must not be empty")
				}
				if err := settle(ctx, cmd.ErrOrStderr(), r, id, retries); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s %q to %q\n", singular, item.Name, args[1])
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"delete"},
		Short:   fmt.Sprintf("Remove a %s", singular),
		Long:    "Removed entries stay on past check-ins; adding the same name later revives them.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, s *Session) error {
				r := pick(s)
				s.loadTaxonomies(ctx)
				item, ok := r.Find(args[0])
				if !ok {
					return fmt.Errorf("%s %q not found", singular, args[0])
				}
				if err := settle(ctx, cmd.ErrOrStderr(), r, r.Delete(item), retries); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %q\n", singular, item.Name)
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, rename, remove)
	return cmd
}

// settle waits for mutation id, retries it while it keeps failing and rolls
// it back once retries run out. An empty id means nothing was sent.
func settle(ctx context.Context, errOut io.Writer, r *taxonomy.Reconciler, id string, retries int) error {
	if id == "" {
		return nil
	}
	r.Wait()

	m, ok := r.Queue().Get(id)
	if !ok || m.Status != taxonomy.StatusFailed {
		return nil
	}
	for attempt := 1; attempt <= retries; attempt++ {
		fmt.Fprintf(errOut, "warning: %s %q failed: %v (retry %d/%d)\n", m.Op, m.Item.Name, m.Err, attempt, retries)
		if err := r.Retry(ctx, id); err == nil {
			return nil
		}
		if m, ok = r.Queue().Get(id); !ok {
			return nil
		}
	}

	if err := r.Rollback(id); err != nil {
		return err
	}
	return errors.Join(fmt.Errorf("%s %q was not saved", m.Op, m.Item.Name), m.Err)
}

func printItems(out io.Writer, items []domain.Item, withCategory bool) {
	if len(items) == 0 {
		fmt.Fprintln(out, "Nothing here yet.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if withCategory {
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSTATUS")
	} else {
		fmt.Fprintln(w, "ID\tNAME\tSTATUS")
	}
	for _, it := range items {
		status := "synced"
		if it.Temporary() {
			status = "local"
		}
		if withCategory {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ID, it.Name, it.Category, status)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\n", it.ID, it.Name, status)
		}
	}
	w.Flush()
}
