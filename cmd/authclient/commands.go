package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jrsteele09/go-auth-client/clientdata"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "authclient",
		Short: "Auth Client - session management for the client API",
		Long: `authclient signs in against the OAuth2 token endpoint, keeps the session
credential on disk and restores it on the next run.

Configuration:
  Config is loaded from auth-client.yaml in the current directory, or the file
  given with --config. Environment variables override config values with the
  AUTH_CLIENT_ prefix.
  Example: AUTH_CLIENT_API_BASE_URL=https://api.example.com`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ./auth-client.yaml)")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the banner")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newRestoreCmd(opts),
	)
	return root
}

func (o *rootOptions) app(cmd *cobra.Command) (*app, error) {
	a, err := newApp(cmd.Context(), o.configFile, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if !o.quiet {
		displayAppname(a.cfg.GetAppName())
	}
	return a, nil
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a username and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			if password == "" {
				password = os.Getenv("AUTH_CLIENT_PASSWORD")
			}
			if password == "" {
				return errors.New("--password or AUTH_CLIENT_PASSWORD is required")
			}

			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			a.start(cmd.Context())

			clientID, err := a.login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), clientID, a.stores.Profile.Get())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (default: $AUTH_CLIENT_PASSWORD)")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove all local session data",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			a.start(cmd.Context())
			a.session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Restore the session and print who is signed in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			a.start(cmd.Context())

			state := a.session.State()
			if !state.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			printProfile(cmd.OutOrStdout(), state.ClientID, a.stores.Profile.Get())
			return nil
		},
	}
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore the session and load the client's data",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			a.start(cmd.Context())

			state := a.session.State()
			if !state.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			loadClientData(cmd.Context(), a, state.ClientID)
			printProfile(cmd.OutOrStdout(), state.ClientID, a.stores.Profile.Get())
			fmt.Fprintf(cmd.OutOrStdout(), "visits: %d, packages: %d, unpaid invoices: %d, unread notifications: %d\n",
				len(a.stores.Visits.Get()),
				len(a.stores.Packages.Get()),
				len(a.stores.UnpaidInvoices.Get()),
				a.stores.Notifications.Get().Unread,
			)
			return nil
		},
	}
}

func loadClientData(ctx context.Context, a *app, clientID string) {
	params := clientdata.ClientParams{ClientID: clientID}
	fetches := map[string]func() error{
		clientdata.VisitsStore:         func() error { return a.stores.Visits.Fetch(ctx, params) },
		clientdata.PackagesStore:       func() error { return a.stores.Packages.Fetch(ctx, params) },
		clientdata.UnpaidInvoicesStore: func() error { return a.stores.UnpaidInvoices.Fetch(ctx, params) },
		clientdata.NotificationsStore:  func() error { return a.stores.Notifications.Fetch(ctx, clientdata.NoParams{}) },
	}
	for name, fetch := range fetches {
		if err := fetch(); err != nil {
			a.logger.Warn().Err(err).Str("store", name).Msg("fetch failed")
		}
	}
}

func printProfile(w io.Writer, clientID string, p clientdata.Profile) {
	name := p.FirstName + " " + p.LastName
	if p.ID == "" {
		name = "(profile unavailable)"
	}
	fmt.Fprintf(w, "signed in as client %s: %s\n", clientID, name)
}
