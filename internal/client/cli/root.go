// Package cli implements the lockerctl command tree. Commands build an
// API client plus session manager pair, restore any persisted login,
// and talk to the server; the session manager keeps tokens fresh so
// individual commands never deal with refresh themselves.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"locker/internal/client/api"
	"locker/internal/client/session"

	"github.com/spf13/cobra"
)

var (
	serverURL    string
	clientID     string
	clientSecret string
	sessionFile  string

	rootCmd = &cobra.Command{
		Use:   "lockerctl",
		Short: "lockerctl - command line client for the locker vault server",
		Long: `lockerctl stores and retrieves encrypted files from a locker server.

Log in once; the session is persisted and refreshed automatically until
you log out or the server revokes it.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("LOCKER_SERVER", "http://localhost:8080"), "base URL of the locker server")
	rootCmd.PersistentFlags().StringVar(&clientID, "client-id", envOr("LOCKER_CLIENT_ID", "lockerctl"), "OAuth client ID")
	rootCmd.PersistentFlags().StringVar(&clientSecret, "client-secret", os.Getenv("LOCKER_CLIENT_SECRET"), "OAuth client secret")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "path of the persisted session (defaults under the user config dir)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(rmCmd)
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

// newSession builds the API client and session manager pair and
// restores any persisted login.
func newSession() (*api.Client, *session.Manager, error) {
	path := sessionFile
	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, nil, fmt.Errorf("cannot locate config dir: %w", err)
		}
		path = filepath.Join(base, "lockerctl", "session.json")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	client := api.New(serverURL, clientID, clientSecret)
	manager := session.NewManager(client, session.NewFileStorage(path), logger)
	client.SetTokenSource(manager)

	if err := manager.Restore(); err != nil {
		return nil, nil, fmt.Errorf("cannot restore session: %w", err)
	}

	return client, manager, nil
}
