package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "install [packages...]",
		Short: "Fetch, verify and install the pinned packages",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.components.App.Install(cmd.Context(), args, force)
			if res != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(),
					"installed %d, cached %d, failed %d, skipped %d\n",
					res.Installed, res.Cached, res.Failed, res.Skipped)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reinstall packages even when their recorded state is current")
	return cmd
}
