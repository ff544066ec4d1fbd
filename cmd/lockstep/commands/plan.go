package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/lockstep/internal/core/domain"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [packages...]",
		Short: "Print the resolved installation order without fetching anything",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := c.components.App.Plan(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, name := range plan.Order {
				pkg, _ := plan.Graph.Package(domain.NewInternedString(name))
				_, _ = fmt.Fprintf(out, "%3d. %s %s\n", i+1, name, pkg.Version.String())
			}
			_, _ = fmt.Fprintf(out, "%d packages planned, %d excluded\n", len(plan.Order), len(plan.Pruned))
			return nil
		},
	}
}
