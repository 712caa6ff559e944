package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginScope string

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create a new account on the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Choose a password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		client, _, err := newSession()
		if err != nil {
			return err
		}

		account, err := client.Register(cmd.Context(), args[0], password, "")
		if err != nil {
			return err
		}

		color.Green("Account %s created", account.Username)

		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in and persist the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}

		_, manager, err := newSession()
		if err != nil {
			return err
		}

		if err := manager.Login(cmd.Context(), args[0], password, loginScope); err != nil {
			return err
		}

		color.Green("Logged in as %s", args[0])

		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the session and forget it locally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, manager, err := newSession()
		if err != nil {
			return err
		}

		if err := manager.Logout(cmd.Context()); err != nil {
			return err
		}

		fmt.Println("Logged out")

		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account that owns the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newSession()
		if err != nil {
			return err
		}

		account, err := client.Me(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", account.Username, account.ID)

		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginScope, "scope", "", "scope to request with the login")
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("cannot read password: %w", err)
	}

	return string(raw), nil
}
