package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moodtrail/moodtrail/internal/insight"
)

const barWidth = 20

func newInsightsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Rank your coping actions by average rating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, func(_ context.Context, s *Session) error {
				s.Insights.Refresh()
				s.Insights.Settle()
				snap := s.Insights.Snapshot()

				out := cmd.OutOrStdout()
				if snap == nil || snap.Degraded {
					fmt.Fprintln(out, "Insights are unavailable right now.")
					return nil
				}
				if len(snap.Recommendations) == 0 {
					fmt.Fprintln(out, "No actions logged yet. Add actions to your check-ins to see what helps.")
				} else {
					fmt.Fprintln(out, "What helps most")
					w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
					for _, r := range snap.Recommendations {
						fmt.Fprintf(w, "%d.\t%s\t%s\t%s\tused %d×\n", r.Rank, r.Name, bar(r.Score), r.Badge, r.TimesUsed)
					}
					w.Flush()
					fmt.Fprintln(out)
					for _, r := range snap.Recommendations {
						fmt.Fprintf(out, "  %s\n", r.Copy)
					}
				}

				if len(snap.TodayActions) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Today")
					w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
					for _, a := range snap.TodayActions {
						fmt.Fprintf(w, "  %s\t%s\n", a.Name, a.Display())
					}
					w.Flush()
				}

				if len(snap.Notes) > 0 {
					fmt.Fprintln(out)
					for _, n := range snap.Notes {
						fmt.Fprintf(out, "• %s\n", n)
					}
				}
				if len(snap.Recommendations) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, insight.Suggestion(snap.Recommendations))
				}
				return nil
			})
		},
	}
}

// bar draws score (0-100) as a fixed-width bar.
func bar(score float64) string {
	filled := int(math.Round(score / 100 * barWidth))
	filled = max(0, min(barWidth, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}
