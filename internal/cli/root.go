package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// NewRootCmd builds the moodtrail command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	app := newApp(opts...)

	root := &cobra.Command{
		Use:   "moodtrail",
		Short: "Log how you feel and learn which coping actions help",
		Long: `MoodTrail records short check-ins (mood, energy, stress, tags and the
coping actions you tried) and ranks your actions by how well you rated them.

Examples:
  moodtrail login --server https://mood.example.com --user usr-abc --token v4.public...
  moodtrail new --mood 2 --stress 4 --tag work --action walk=4
  moodtrail today
  moodtrail insights`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd)
		},
	}

	root.PersistentFlags().String("config-dir", "", "Config directory (default ~/.moodtrail)")
	root.PersistentFlags().String("server", "", "Server URL")
	root.PersistentFlags().String("user", "", "User ID")

	root.AddCommand(newLoginCmd(app))
	root.AddCommand(newLogoutCmd(app))
	root.AddCommand(newTodayCmd(app))
	root.AddCommand(newNewCmd(app))
	root.AddCommand(newEditCmd(app))
	root.AddCommand(newRateCmd(app))
	root.AddCommand(newRateAllCmd(app))
	root.AddCommand(newDeleteCmd(app))
	root.AddCommand(newHistoryCmd(app))
	root.AddCommand(newTaxonomyCmd(app, "tags"))
	root.AddCommand(newTaxonomyCmd(app, "actions"))
	root.AddCommand(newInsightsCmd(app))

	return root
}
