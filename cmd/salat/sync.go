package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile local records with the remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Sync", args)
		if err != nil {
			return err
		}
		defer a.Close()

		plan, err := a.Sync(cmd.Context())
		if err != nil {
			a.Fail()
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Printf("Uploaded %d, merged %d, downloaded %d\n", plan.Uploaded, plan.Merged, plan.Downloaded)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sign-in and sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Status", args)
		if err != nil {
			return err
		}
		defer a.Close()

		st := a.SyncStatus(cmd.Context())
		user := st.UserID
		if user == "" {
			user = "(signed out)"
		}
		last := "never"
		if !st.LastSynced.IsZero() {
			last = st.LastSynced.Local().Format(time.DateTime)
		}
		fmt.Printf("User:        %s\n", user)
		fmt.Printf("Remote:      %s\n", st.Remote)
		fmt.Printf("Pending:     %v\n", st.Pending)
		fmt.Printf("Last synced: %s\n", last)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login [TOKEN]",
	Short: "Sign in with an access token",
	Long:  "Sign in with an access token. Without an argument the token is read from SALAT_TOKEN.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := os.Getenv("SALAT_TOKEN")
		if len(args) > 0 {
			token = args[0]
		}
		if strings.TrimSpace(token) == "" {
			return fmt.Errorf("no token given")
		}

		a, err := newApp(cmd, "Login", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Login(cmd.Context(), strings.TrimSpace(token))
		if err != nil {
			a.Fail()
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Printf("Signed in as %s\n", user)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out; records stay on this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Logout", args)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Logout(cmd.Context()); err != nil {
			a.Fail()
			return err
		}
		fmt.Println("Signed out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
