package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/ledger"
)

// ledgerCommand creates the ledger management command.
func (c *CLI) ledgerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and clear module id ledgers",
	}

	cmd.AddCommand(c.ledgerPathCommand())
	cmd.AddCommand(c.ledgerShowCommand())
	cmd.AddCommand(c.ledgerClearCommand())

	return cmd
}

// ledgerPathCommand creates the "ledger path" subcommand.
func (c *CLI) ledgerPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the ledger directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := c.rootDir()
			if err != nil {
				return fmt.Errorf("get project root: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ledger.Dir(root))
			return nil
		},
	}
}

// ledgerShowCommand creates the "ledger show" subcommand.
func (c *CLI) ledgerShowCommand() *cobra.Command {
	var (
		platform string
		entries  bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the ledgers of a platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, files, err := c.ledgerFiles(platform)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				printInfo("No ledgers in %s", dir)
				return nil
			}

			out := cmd.OutOrStdout()
			for _, f := range files {
				list, err := ledger.Open(f).Entries()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s\n", StyleValue.Render(filepath.Base(f)), StyleDim.Render(fmt.Sprintf("%d entries", len(list))))
				if !entries {
					continue
				}
				for _, e := range list {
					fmt.Fprintf(out, "  %s %s\n", StyleNumber.Render(fmt.Sprintf("%7d", e.ID)), e.Path)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "target platform: android or ios (required)")
	cmd.Flags().BoolVarP(&entries, "entries", "e", false, "print every path|id entry")
	_ = cmd.RegisterFlagCompletionFunc("platform", completePlatforms)

	return cmd
}

// ledgerClearCommand creates the "ledger clear" subcommand.
func (c *CLI) ledgerClearCommand() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Truncate every ledger of a platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, files, err := c.ledgerFiles(platform)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				printInfo("No ledgers to clear")
				return nil
			}

			for _, f := range files {
				if err := ledger.Open(f).Clear(); err != nil {
					return err
				}
			}
			printSuccess("Cleared %d ledgers", len(files))
			printDetail("Directory: %s", dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "target platform: android or ios (required)")
	_ = cmd.RegisterFlagCompletionFunc("platform", completePlatforms)

	return cmd
}

// ledgerFiles returns the ledger directory and the platform's ledger files.
func (c *CLI) ledgerFiles(platform string) (string, []string, error) {
	p, err := config.ParsePlatform(platform)
	if err != nil {
		return "", nil, err
	}
	root, err := c.rootDir()
	if err != nil {
		return "", nil, fmt.Errorf("get project root: %w", err)
	}
	dir := ledger.Dir(root)
	files, err := ledger.Files(dir, string(p))
	if err != nil {
		return "", nil, fmt.Errorf("list ledgers: %w", err)
	}
	return dir, files, nil
}
