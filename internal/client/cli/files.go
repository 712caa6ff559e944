package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"locker/internal/util"
)

var putCmd = &cobra.Command{
	Use:   "put <local-file> <remote-path>",
	Short: "Upload a file to the vault",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", args[0], err)
		}

		client, _, err := newSession()
		if err != nil {
			return err
		}

		if err := client.Upload(cmd.Context(), args[1], content); err != nil {
			return err
		}

		color.Green("Uploaded %s (%d bytes)", args[1], len(content))

		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <remote-path> [local-file]",
	Short: "Download a file from the vault",
	Long:  "Downloads a file. With no local file argument the content goes to stdout.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newSession()
		if err != nil {
			return err
		}

		content, err := client.Download(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if len(args) == 2 {
			if err := os.WriteFile(args[1], content, 0o600); err != nil {
				return fmt.Errorf("cannot write %s: %w", args[1], err)
			}

			return nil
		}

		_, err = os.Stdout.Write(content)

		return err
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <remote-path>",
	Short: "Delete a file from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newSession()
		if err != nil {
			return err
		}

		if err := client.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("Deleted %s\n", args[0])

		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [remote-dir]",
	Short: "List vault entries one level below a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		}

		client, _, err := newSession()
		if err != nil {
			return err
		}

		entries, err := client.List(cmd.Context(), dir)
		if err != nil {
			return err
		}

		dirColor := color.New(color.FgCyan, color.Bold)
		for _, entry := range entries {
			if entry.IsDir {
				dirColor.Printf("%s/\n", entry.Name)

				continue
			}
			fmt.Printf("%-40s %10s  %s\n", entry.Name, util.FormatBytes(entry.Size), entry.ModifiedAt.Format("2006-01-02 15:04"))
		}

		return nil
	},
}
