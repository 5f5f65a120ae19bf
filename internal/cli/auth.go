package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/moodtrail/moodtrail/internal/remote"
)

func newLoginCmd(app *App) *cobra.Command {
	var (
		token    string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the server, user ID and API token",
		Long: `Saves the server URL and user ID to the config file and the token to
the OS keyring. Tokens are issued on the server host with tokengen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.cfg
			if cfg.UserID == "" {
				return errors.New("--user is required")
			}
			if token == "" {
				return errors.New("--token is required")
			}

			if !noVerify {
				hc := app.httpClient
				if hc == nil {
					hc = &http.Client{Timeout: cfg.Timeout}
				}
				client := remote.NewClient(cfg.Server, cfg.UserID, token, remote.WithHTTPClient(hc))
				if _, err := client.Health(cmd.Context()); err != nil {
					return fmt.Errorf("server %s is not reachable: %w", cfg.Server, err)
				}
				if _, err := client.Tags().List(cmd.Context()); err != nil {
					return fmt.Errorf("token rejected: %w", err)
				}
			}

			if err := app.creds.SaveToken(cfg.Server, cfg.UserID, token); err != nil {
				return err
			}
			if err := saveConfig(app.viper, app.configDir, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s\n", cfg.Server, cfg.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "API token")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip checking the token against the server")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.creds.DeleteToken(app.cfg.Server, app.cfg.UserID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
