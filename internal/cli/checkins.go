package cli

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moodtrail/moodtrail/internal/checkin"
	"github.com/moodtrail/moodtrail/internal/domain"
	"github.com/moodtrail/moodtrail/internal/normalize"
	"github.com/moodtrail/moodtrail/internal/taxonomy"
)

// entryFlags are the check-in fields shared by new and edit.
type entryFlags struct {
	mood, energy, stress int
	note                 string
	tags                 []string
	actions              []string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.mood, "mood", "m", domain.DefaultRating, "Mood, 1 (low) to 5 (high)")
	cmd.Flags().IntVarP(&f.energy, "energy", "e", domain.DefaultRating, "Energy, 1 to 5")
	cmd.Flags().IntVarP(&f.stress, "stress", "s", domain.DefaultRating, "Stress, 1 to 5")
	cmd.Flags().StringVarP(&f.note, "note", "n", "", "Free-text note")
	cmd.Flags().StringArrayVarP(&f.tags, "tag", "t", nil, "Tag name (repeatable)")
	cmd.Flags().StringArrayVarP(&f.actions, "action", "a", nil, "Action as name or name=rating (repeatable)")
}

// apply copies the flags the user set onto d. Tags and actions replace the
// draft's lists; unknown names are created first.
func (f *entryFlags) apply(ctx context.Context, cmd *cobra.Command, s *Session, d *checkin.Draft) error {
	scales := []struct {
		flag string
		val  int
		dst  *int
	}{
		{"mood", f.mood, &d.Mood},
		{"energy", f.energy, &d.Energy},
		{"stress", f.stress, &d.Stress},
	}
	for _, sc := range scales {
		if !cmd.Flags().Changed(sc.flag) {
			continue
		}
		if sc.val < domain.MinScale || sc.val > domain.MaxScale {
			return fmt.Errorf("--%s must be between %d and %d", sc.flag, domain.MinScale, domain.MaxScale)
		}
		*sc.dst = sc.val
	}
	if cmd.Flags().Changed("note") {
		d.Note = f.note
	}

	if cmd.Flags().Changed("tag") {
		d.Tags = d.Tags[:0]
		for _, name := range f.tags {
			item, err := s.ensureItem(ctx, s.Tags, name)
			if err != nil {
				return err
			}
			if !slices.Contains(d.Tags, item.Name) {
				d.Tags = append(d.Tags, item.Name)
			}
		}
	}

	if cmd.Flags().Changed("action") {
		d.Actions = d.Actions[:0]
		for _, raw := range f.actions {
			name, rating, err := parseRated(raw)
			if err != nil {
				return err
			}
			item, err := s.ensureItem(ctx, s.Actions, name)
			if err != nil {
				return err
			}
			if !slices.ContainsFunc(d.Actions, func(a domain.ActionEntry) bool { return a.ActionID == item.ID }) {
				d.ToggleAction(item)
			}
			if rating > 0 {
				d.Rate(item.ID, rating)
			}
		}
	}
	return nil
}

// parseRated splits "name=rating". A bare name has rating 0.
func parseRated(raw string) (string, int, error) {
	name, value, found := strings.Cut(raw, "=")
	name = normalize.Name(name)
	if name == "" {
		return "", 0, fmt.Errorf("invalid action %q", raw)
	}
	if !found {
		return name, 0, nil
	}
	rating, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || rating < domain.MinScale || rating > domain.MaxScale {
		return "", 0, fmt.Errorf("invalid rating in %q: want %d-%d", raw, domain.MinScale, domain.MaxScale)
	}
	return name, rating, nil
}

// ensureItem returns the confirmed item for name, creating it on the server
// and waiting for the result when needed.
func (s *Session) ensureItem(ctx context.Context, r *taxonomy.Reconciler, name string) (domain.Item, error) {
	s.loadTaxonomies(ctx)

	item, ok := r.Find(name)
	if ok && !item.Temporary() {
		return item, nil
	}
	if ok {
		// Placeholder from the defaults list: drop it and create it for real.
		r.Delete(item)
	}
	r.Add(name)
	r.Wait()

	item, ok = r.Find(name)
	if !ok || item.Temporary() {
		return domain.Item{}, fmt.Errorf("could not create %q on the server", name)
	}
	return item, nil
}

// resolveActionID maps an action name to its ID, falling back to the input.
func (s *Session) resolveActionID(ctx context.Context, nameOrID string) string {
	s.loadTaxonomies(ctx)
	if item, ok := s.Actions.Find(nameOrID); ok && !item.Temporary() {
		return item.ID
	}
	return nameOrID
}

func newTodayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List today's check-ins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context, s *Session) error {
				entries, err := s.CheckIns.LoadToday(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Today (%s): %d of %d check-ins\n", domain.DateKey(app.now()), len(entries), domain.DailyLimit)
				if len(entries) == 0 {
					fmt.Fprintln(out, "Nothing logged yet. Use 'moodtrail new' to add one.")
					return nil
				}
				printEntries(out, entries, false)
				return nil
			})
		},
	}
}

func newNewCmd(app *App) *cobra.Command {
	var f entryFlags

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Log a check-in",
		Long: `Logs a check-in for now. Unknown tags and actions are created on the fly.
At most four check-ins can be started per day.

Examples:
  moodtrail new --mood 2 --energy 3 --stress 4 --tag work
  moodtrail new -m 4 -a walk=5 -a "deep breathing" -n "better after lunch"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context, s *Session) error {
				if _, err := s.CheckIns.LoadToday(ctx); err != nil {
					return err
				}
				d, err := s.CheckIns.StartNew()
				if err != nil {
					return err
				}
				if err := f.apply(ctx, cmd, s, &d); err != nil {
					return err
				}
				id, err := s.CheckIns.Save(ctx, d)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved check-in %s\n", id)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var f entryFlags

	cmd := &cobra.Command{
		Use:   "edit <check-in-id>",
		Short: "Change a saved check-in",
		Long: `Updates the fields given on the command line and keeps the rest.
The check-in keeps its original date and time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, s *Session) error {
				entry, err := s.Client.CheckIns().ByID(ctx, args[0])
				if err != nil {
					return err
				}
				d := checkin.Hydrate(entry)
				if err := f.apply(ctx, cmd, s, &d); err != nil {
					return err
				}
				id, err := s.CheckIns.Save(ctx, d)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated check-in %s\n", id)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newRateCmd(app *App) *cobra.Command {
	var checkInID string

	cmd := &cobra.Command{
		Use:   "rate <action> <rating>",
		Short: "Rate how much an action helped, 1 to 5",
		Long: `Rates one action. Without --checkin the rating goes to the first
check-in in your history that logged the action.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid rating %q", args[1])
			}
			return app.run(cmd, func(ctx context.Context, s *Session) error {
				actionID := s.resolveActionID(ctx, args[0])
				if err := s.CheckIns.UpdateRating(ctx, actionID, rating, checkInID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rated %s %d/5\n", args[0], rating)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&checkInID, "checkin", "", "Check-in ID holding the action")
	return cmd
}

func newRateAllCmd(app *App) *cobra.Command {
	var ratings []string

	cmd := &cobra.Command{
		Use:   "rate-all <check-in-id>",
		Short: "Rate every action on a check-in",
		Long:  `Actions not given with --action are rated 3.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, s *Session) error {
				byID := make(map[string]int, len(ratings))
				for _, raw := range ratings {
					name, rating, err := parseRated(raw)
					if err != nil {
						return err
					}
					if rating == 0 {
						return fmt.Errorf("missing rating in %q", raw)
					}
					byID[s.resolveActionID(ctx, name)] = rating
				}

				entry, err := s.CheckIns.RateAll(ctx, args[0], byID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Rated check-in %s\n", entry.ID)
				fmt.Fprintln(out, formatActions(entry))
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&ratings, "action", "a", nil, "Rating as name=rating (repeatable)")
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <check-in-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a check-in",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, s *Session) error {
				// The process exits right after, so no reload is published;
				// insights always fetches fresh.
				if err := s.CheckIns.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted check-in %s\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past check-ins, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(ctx context.Context, s *Session) error {
				entries, err := s.Client.CheckIns().History(ctx)
				if err != nil {
					return err
				}
				slices.SortStableFunc(entries, func(a, b *domain.CheckIn) int {
					return cmp.Or(cmp.Compare(b.Date, a.Date), domain.CompareNewestFirst(a, b))
				})
				if limit > 0 && len(entries) > limit {
					entries = entries[:limit]
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No check-ins yet.")
					return nil
				}
				printEntries(cmd.OutOrStdout(), entries, true)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum entries to show (0 for all)")
	return cmd
}

func printEntries(out io.Writer, entries []*domain.CheckIn, withDate bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if withDate {
		fmt.Fprintln(w, "ID\tDATE\tTIME\tMOOD\tENERGY\tSTRESS\tTAGS\tACTIONS")
	} else {
		fmt.Fprintln(w, "ID\tTIME\tMOOD\tENERGY\tSTRESS\tTAGS\tACTIONS")
	}
	for _, c := range entries {
		at := "-"
		if c.Time != nil {
			at = c.Time.Local().Format("15:04")
		}
		cols := []string{c.ID}
		if withDate {
			cols = append(cols, c.Date)
		}
		cols = append(cols, at,
			strconv.Itoa(c.Mood), strconv.Itoa(c.Energy), strconv.Itoa(c.Stress),
			strings.Join(c.Tags, ", "), formatActions(c))
		fmt.Fprintln(w, strings.Join(cols, "\t"))
	}
	w.Flush()
}

// formatActions renders "walk (4), read (-)".
func formatActions(c *domain.CheckIn) string {
	parts := make([]string, 0, len(c.Actions))
	for _, a := range c.Actions {
		rating := "-"
		if r, ok := c.ResolvedRating(a.ActionID); ok {
			rating = strconv.Itoa(r)
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", a.ActionName, rating))
	}
	return strings.Join(parts, ", ")
}
