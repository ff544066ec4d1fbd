// Package commands implements the CLI commands for lockstep.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/lockstep/internal/app"
)

// CLI represents the command line interface for lockstep.
type CLI struct {
	components *app.Components
	rootCmd    *cobra.Command
}

// New creates a new CLI instance with the given components.
func New(c *app.Components) *CLI {
	rootCmd := &cobra.Command{
		Use:           "lockstep",
		Short:         "Deterministic installer for pinned dependency manifests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cli := &CLI{
		components: c,
		rootCmd:    rootCmd,
	}

	rootCmd.AddCommand(cli.newPlanCmd())
	rootCmd.AddCommand(cli.newInstallCmd())
	rootCmd.AddCommand(cli.newVerifyCmd())
	rootCmd.AddCommand(cli.newVersionCmd())

	return cli
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}
